package cli

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/httputil"
	"github.com/matzehuels/schemconv/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output  string // output file path; derived from the input when empty
	from    string // input format or "auto"
	to      string // output format; derived from --output or the input when empty
	noCache bool   // bypass the cache entirely
	refresh bool   // skip the cache lookup but store the result
	force   bool   // overwrite an existing output file
}

func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a schematic between .litematic and .schem",
		Long: `Convert a schematic between the Litematica and Sponge formats.

The input format is detected from the file content. The output format comes
from --to, else from the --output extension, else it is the other format.`,
		Example: `  schemconv convert house.litematic
  schemconv convert house.schem -o out/house.litematic
  schemconv convert - --to schem -o house.schem < house.litematic
  schemconv convert https://example.com/builds/house.litematic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the target extension)")
	cmd.Flags().StringVar(&opts.from, "from", pipeline.FromAuto, "input format: auto, litematic, schem")
	cmd.Flags().StringVar(&opts.to, "to", "", "output format: litematic, schem")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and convert again")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing output file")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, opts convertOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	data, err := readInput(ctx, input)
	if err != nil {
		return err
	}

	to, err := targetFormat(opts, data)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		if input == "-" {
			return errs.New(errs.ErrCodeInvalidPath, "--output is required when reading stdin")
		}
		output = replaceExt(localName(input), to.Extension())
	}
	if !opts.force && output != "-" {
		if _, err := os.Stat(output); err == nil {
			return errs.New(errs.ErrCodeInvalidPath, "%s exists (use --force to overwrite)", output)
		}
	}

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	runOpts := c.baseOptions()
	runOpts.From = opts.from
	runOpts.To = to.String()
	runOpts.Refresh = opts.refresh
	runOpts.Logger = logger

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, "Converting "+filepath.Base(input)+"...")
	spin.Start()
	res, err := runner.Convert(ctx, data, runOpts)
	spin.Stop()
	if err != nil {
		return err
	}

	if err := writeOutput(output, res.Output); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}
	prog.done("Converted "+filepath.Base(input), "from", inputFormat(res.From), "to", to)

	printSuccess("Converted to %s", to)
	printFile(output)
	printStats(res.Stats.Regions, res.Stats.Blocks, len(res.Output), res.CacheHit)
	return nil
}

// targetFormat picks the output format from --to, the --output extension,
// or the opposite of the input format, in that order.
func targetFormat(opts convertOpts, data []byte) (formats.Format, error) {
	if opts.to != "" {
		f, err := formats.Parse(opts.to)
		if err != nil {
			return formats.Unknown, errs.Wrap(errs.ErrCodeInvalidFormat, err, "--to")
		}
		return f, nil
	}
	if f, ok := formats.FromPath(opts.output); ok {
		return f, nil
	}

	src, err := sourceFormat(opts.from, data)
	if err != nil {
		return formats.Unknown, err
	}
	if src == formats.Litematic {
		return formats.Schematic, nil
	}
	return formats.Litematic, nil
}

func sourceFormat(from string, data []byte) (formats.Format, error) {
	f, err := pipeline.ParseFrom(from)
	if err != nil || f != formats.Unknown {
		return f, err
	}
	f, err = formats.Sniff(data, 0)
	if err != nil {
		return formats.Unknown, errs.Wrap(errs.ErrCodeDecode, err, "cannot detect input format (pass --to)")
	}
	return f, nil
}

// localName maps a URL input to a file name in the working directory.
func localName(input string) string {
	if !httputil.IsURL(input) {
		return input
	}
	u, err := url.Parse(input)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "download"
	}
	return path.Base(u.Path)
}

func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// writeOutput writes data to path, or stdout for "-", creating parent
// directories as needed.
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
