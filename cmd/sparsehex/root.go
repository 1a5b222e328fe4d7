package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/dnesting/sparse/v2/format"
	"github.com/spf13/cobra"
)

// cli holds the global flags and the state derived from them. Every
// invocation builds a fresh tree so nothing leaks between runs.
type cli struct {
	verbose  bool
	quiet    bool
	from     string
	to       string
	settings []string

	out  io.Writer
	log  *slog.Logger
	opts format.Options
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "sparsehex",
		Short: "Convert and inspect sparse memory images",
		Long: `sparsehex reads and writes firmware images in raw binary, hex dump,
Intel HEX, Motorola S-record and Tektronix Extended Hex formats. The format
of each file is taken from its extension unless --from or --to name one.

Codec settings are passed with --set name=value:
  ` + strings.Join(format.Settings, ", "),
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&c.from, "from", "", "Input format (default: from the file extension)")
	cmd.PersistentFlags().StringVar(&c.to, "to", "", "Output format (default: from the file extension)")
	cmd.PersistentFlags().StringArrayVar(&c.settings, "set", nil, "Codec setting as name=value (repeatable)")

	cmd.AddCommand(
		newConvertCmd(c),
		newInfoCmd(c),
		newDumpCmd(c),
		newMergeCmd(c),
		newFormatsCmd(c),
	)
	return cmd
}

func execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup configures logging and the codec options from the global flags.
func (c *cli) setup(cmd *cobra.Command) error {
	c.out = cmd.OutOrStdout()
	level := slog.LevelInfo
	switch {
	case c.quiet:
		level = slog.LevelError
	case c.verbose:
		level = slog.LevelDebug
	}
	c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c.opts = format.Options{Logger: c.log}
	for _, s := range c.settings {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return errors.Mark(errors.Newf("setting %q is not name=value", s), sparse.ErrInvalidArgument)
		}
		if err := c.opts.Set(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) printf(msg string, args ...interface{}) {
	fmt.Fprintf(c.out, msg, args...)
}

// resolveFormat returns the named format, or the one implied by path.
func resolveFormat(name, path string) (format.Format, error) {
	if name != "" {
		return format.ParseFormat(name)
	}
	return format.Detect(path)
}

func (c *cli) readImage(path string) (*format.Image, error) {
	f, err := resolveFormat(c.from, path)
	if err != nil {
		return nil, err
	}
	c.log.Debug("reading", "path", path, "format", f)
	img, err := format.ReadFile(path, f, c.opts)
	if err != nil {
		return nil, err
	}
	c.log.Debug("read", "path", path, "parts", img.Data.Len(), "bytes", img.Data.UsedSize())
	return img, nil
}

func (c *cli) writeImage(path string, img *format.Image) error {
	f, err := resolveFormat(c.to, path)
	if err != nil {
		return err
	}
	c.log.Debug("writing", "path", path, "format", f, "range", img.Data.Range())
	return format.WriteFile(path, f, c.opts, img)
}

// parseAddr parses an address in Go integer syntax (0x prefixes allowed).
func parseAddr(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "address %q", s), sparse.ErrInvalidArgument)
	}
	return v, nil
}

// parseSpan parses "start:size".
func parseSpan(s string) (sparse.Span, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return sparse.Span{}, errors.Mark(errors.Newf("span %q is not start:size", s), sparse.ErrInvalidArgument)
	}
	start, err := parseAddr(a)
	if err != nil {
		return sparse.Span{}, err
	}
	size, err := parseAddr(b)
	if err != nil {
		return sparse.Span{}, err
	}
	return sparse.Span{Start: start, Size: size}, nil
}
