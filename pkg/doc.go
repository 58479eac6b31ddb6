// Package pkg provides the core libraries for mermaidpix markdown diagram
// rendering.
//
// # Overview
//
// Mermaidpix converts fenced diagram blocks in markdown documents into
// high-resolution PNG images and rewrites the documents to link to them.
// The pkg directory is organized by concern:
//
//   - [cache] - content-addressed artifact store (hash keys, filename
//     convention, lookup and cleanup)
//   - [render] - diagram engines (external mermaid-cli subprocess,
//     in-process Graphviz)
//   - [rewrite] - fence scanning and document splicing
//   - [pipeline] - orchestration (read -> render -> write)
//   - [errors] - coded errors separating per-block render failures from
//     fatal document-level failures
//   - [observability] - optional hooks for render and cache events
//
// # Architecture
//
// The typical data flow through mermaidpix:
//
//	Markdown document
//	         |
//	  rewrite.Span          locate fenced diagram blocks
//	         |
//	  cache.Digest          derive content key per block
//	         |
//	  render.Engine         cache hit, or render to <engine>_<key>.png
//	         |
//	  rewrite.Rewriter      splice relative image links over the spans
//	         |
//	Rewritten document
//
// Rendering is fail-soft: a block whose render fails keeps its original
// fenced source, and the run continues with the remaining blocks.
package pkg
