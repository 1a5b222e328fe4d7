package main

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dnesting/sparse/v2/format"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Report the layout of an image",
		Long: `The info command lists the parts and gaps of an image with an xxhash64
digest of every part. The image digest covers its whole range with gaps
padded, so it matches the digest of the same image written as binary.

Example:
  sparsehex info app.hex
  sparsehex info --set padding=0x00 app.s19`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(args[0])
		},
	}
}

func (c *cli) runInfo(path string) error {
	img, err := c.readImage(path)
	if err != nil {
		return err
	}
	b := &img.Data
	if c.opts.Padding != nil {
		b.SetPadding(*c.opts.Padding)
	}

	r := b.Range()
	c.printf("File:   %s\n", path)
	c.printf("Range:  0x%X-0x%X (%d bytes)\n", r.Start, r.End(), r.Size)
	c.printf("Used:   %d bytes in %d parts\n", b.UsedSize(), b.Len())
	if img.HasEntry {
		c.printf("Entry:  0x%X\n", img.Entry)
	}
	if len(img.Header) > 0 {
		c.printf("Header: %q\n", img.Header)
	}
	d := xxhash.New()
	if _, err := b.WriteTo(d); err != nil {
		return err
	}
	c.printf("XXH64:  %016x\n", d.Sum64())

	if b.Len() == 0 {
		return nil
	}
	c.printf("\nParts:\n")
	tbl := tablewriter.NewWriter(c.out)
	tbl.SetHeader([]string{"#", "Start", "End", "Size", "XXH64"})
	tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
	i := 0
	for p := range b.All() {
		tbl.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("0x%X", p.Start),
			fmt.Sprintf("0x%X", p.End()),
			fmt.Sprintf("%d", len(p.Data)),
			fmt.Sprintf("%016x", xxhash.Sum64(p.Data)),
		})
		i++
	}
	tbl.Render()

	if gaps := b.Gaps(); len(gaps) > 0 {
		c.printf("\nGaps:\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.SetHeader([]string{"Start", "End", "Size"})
		tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, g := range gaps {
			tbl.Append([]string{
				fmt.Sprintf("0x%X", g.Start),
				fmt.Sprintf("0x%X", g.End()),
				fmt.Sprintf("%d", g.Size),
			})
		}
		tbl.Render()
	}
	return nil
}

func newDumpCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Print an image as a hex dump",
		Long: `The dump command prints the stored bytes of an image as a hex dump.
Bytes that are not stored show as "--". The text column can use a single-byte
character set.

Example:
  sparsehex dump app.hex
  sparsehex dump --set charset=windows-1252 --set bytes-per-line=32 app.s19`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := c.readImage(args[0])
			if err != nil {
				return err
			}
			codec, err := format.Lookup(format.HexDump, c.opts)
			if err != nil {
				return err
			}
			return codec.Encode(c.out, img)
		},
	}
}

func newFormatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := tablewriter.NewWriter(c.out)
			tbl.SetHeader([]string{"Format", "Extensions"})
			for _, f := range format.Formats() {
				tbl.Append([]string{f.String(), strings.Join(format.Extensions(f), " ")})
			}
			tbl.Render()
			return nil
		},
	}
}
