package main

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	offset   string
	crop     string
	fillGaps string
	unfill   string
	minGap   uint64
}

func newConvertCmd(c *cli) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert an image from one format to another",
		Long: `The convert command reads an image, applies the requested transforms
and writes it in the output format. Transforms run in this order: --offset,
--crop, --fill-gaps, --unfill.

Patterns use the syntax 0xFF, DEADBEEF, 1,2,3 or random.

Example:
  sparsehex convert app.hex app.s19
  sparsehex convert --set base=0x8000 --unfill FF --min-gap 64 dump.bin dump.hex
  sparsehex convert --crop 0x8000:0x4000 --fill-gaps 00 fw.s37 fw.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(args[0], args[1], f)
		},
	}
	cmd.Flags().StringVar(&f.offset, "offset", "", "Move every byte by this signed amount")
	cmd.Flags().StringVar(&f.crop, "crop", "", "Keep only start:size")
	cmd.Flags().StringVar(&f.fillGaps, "fill-gaps", "", "Fill the gaps inside the image with a pattern")
	cmd.Flags().StringVar(&f.unfill, "unfill", "", "Turn runs of a pattern back into gaps")
	cmd.Flags().Uint64Var(&f.minGap, "min-gap", 16, "Shortest run removed by --unfill")
	return cmd
}

func (c *cli) runConvert(in, out string, f convertFlags) error {
	img, err := c.readImage(in)
	if err != nil {
		return err
	}
	if err := c.transform(&img.Data, f); err != nil {
		return err
	}
	return c.writeImage(out, img)
}

func (c *cli) transform(b *sparse.Buffer, f convertFlags) error {
	if f.offset != "" {
		delta, err := strconv.ParseInt(f.offset, 0, 64)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "offset %q", f.offset), sparse.ErrInvalidArgument)
		}
		if err := b.Offset(delta); err != nil {
			return err
		}
		c.log.Debug("offset", "delta", delta, "range", b.Range())
	}
	if f.crop != "" {
		s, err := parseSpan(f.crop)
		if err != nil {
			return err
		}
		b.Crop(s.Start, s.Size)
		c.log.Debug("crop", "span", s, "parts", b.Len())
	}
	if f.fillGaps != "" {
		p, err := sparse.ParsePattern(f.fillGaps)
		if err != nil {
			return err
		}
		if err := b.FillGaps(p); err != nil {
			return err
		}
		c.log.Debug("fill gaps", "pattern", p, "parts", b.Len())
	}
	if f.unfill != "" {
		p, err := sparse.ParsePattern(f.unfill)
		if err != nil {
			return err
		}
		r := b.Range()
		if err := b.Unfill(r.Start, r.Size, p, f.minGap); err != nil {
			return err
		}
		c.log.Debug("unfill", "pattern", p, "min-gap", f.minGap, "parts", b.Len())
	}
	return nil
}
