package cli

import (
	"github.com/spf13/cobra"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	"github.com/mermaidpix/mermaidpix/pkg/render"
)

// cacheCommand creates the artifact cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage generated diagram images",
	}

	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It removes only
// conventionally named artifacts from the image directory; anything else in
// the directory is left alone.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <image-dir>",
		Short: "Remove generated diagram images from an image directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cache.New(args[0])
			count, err := store.Clear(render.EngineMermaid, render.EngineGraphviz)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("No generated images found")
				return nil
			}
			printSuccess("Removed %d generated image(s)", count)
			printDetail("Directory: %s", args[0])
			return nil
		},
	}
}
