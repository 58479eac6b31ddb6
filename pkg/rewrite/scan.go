package rewrite

import "strings"

// fence is the delimiter marking diagram blocks in the document.
const fence = "```"

// Block is a contiguous region of the original document recognized as
// diagram source, identified by its byte offsets. Immutable once extracted.
type Block struct {
	Engine string // fence language that selected the engine
	Source string // diagram source between the fences, byte-exact
	Start  int    // offset of the opening fence
	End    int    // offset just past the closing fence
}

// Span returns the full original text of the block, fences included.
func (b Block) Span(doc string) string {
	return doc[b.Start:b.End]
}

// scan extracts diagram blocks for the given engine names, left to right
// with no overlap.
//
// A block opens at "```<engine>\n" and closes at the nearest following
// "\n```". This is an explicit nearest-closing-fence scan rather than a
// non-greedy regex, so there is no backtracking ambiguity: an opening fence
// with no closing fence leaves the remainder of the document as plain text.
// Fences with an unrecognized info string are stepped over marker by marker,
// so a diagram fence inside another language's code block is still found the
// way a left-to-right regex search would find it.
func scan(doc string, engines map[string]bool) []Block {
	var blocks []Block
	pos := 0
	for {
		open := strings.Index(doc[pos:], fence)
		if open < 0 {
			return blocks
		}
		open += pos

		infoStart := open + len(fence)
		nl := strings.IndexByte(doc[infoStart:], '\n')
		if nl < 0 {
			return blocks
		}
		engine := doc[infoStart : infoStart+nl]
		if !engines[engine] {
			pos = open + len(fence)
			continue
		}

		bodyStart := infoStart + nl + 1
		close := strings.Index(doc[bodyStart:], "\n"+fence)
		if close < 0 {
			// Unterminated block: no closing fence exists anywhere after
			// this point, so nothing later can form a block either.
			return blocks
		}

		blocks = append(blocks, Block{
			Engine: engine,
			Source: doc[bodyStart : bodyStart+close],
			Start:  open,
			End:    bodyStart + close + 1 + len(fence),
		})
		pos = blocks[len(blocks)-1].End
	}
}
