package main

import (
	"context"

	"github.com/dnesting/sparse/v2/format"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds the number of inputs decoded at once.
const maxParallelLoads = 8

func newMergeCmd(c *cli) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "merge <out> <in>...",
		Short: "Merge several images into one",
		Long: `The merge command combines the inputs in argument order. By default a byte
already present in the result is kept when a later input stores the same
address; --overwrite lets later inputs win. The entry point and header come
from the first input that has them.

Example:
  sparsehex merge full.hex bootloader.hex app.s19
  sparsehex merge --overwrite patched.bin base.bin patch.hex`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(cmd.Context(), args[0], args[1:], overwrite)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Let later inputs replace earlier bytes")
	return cmd
}

func (c *cli) loadAll(ctx context.Context, paths []string) ([]*format.Image, error) {
	imgs := make([]*format.Image, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := c.readImage(path)
			if err != nil {
				return err
			}
			imgs[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return imgs, nil
}

func (c *cli) runMerge(ctx context.Context, out string, ins []string, overwrite bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	imgs, err := c.loadAll(ctx, ins)
	if err != nil {
		return err
	}
	merged := &format.Image{}
	for i, img := range imgs {
		if err := merged.Data.Add(&img.Data, overwrite); err != nil {
			return err
		}
		if img.HasEntry && !merged.HasEntry {
			merged.Entry, merged.HasEntry = img.Entry, true
		}
		if merged.Header == nil {
			merged.Header = img.Header
		}
		c.log.Debug("merged", "path", ins[i], "parts", merged.Data.Len())
	}
	c.log.Info("merge complete", "inputs", len(ins), "parts", merged.Data.Len(), "bytes", merged.Data.UsedSize())
	return c.writeImage(out, merged)
}
