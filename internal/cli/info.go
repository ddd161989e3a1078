package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/pipeline"
	"github.com/matzehuels/schemconv/pkg/render"
)

// infoOpts holds the flags for the info command.
type infoOpts struct {
	from   string
	top    int    // block rows per region; 0 shows all
	plain  bool   // print the plain summary only
	chunks string // chunk size for the chunk listing, "N" or "WxHxL"
}

func (c *CLI) infoCommand() *cobra.Command {
	var opts infoOpts

	cmd := &cobra.Command{
		Use:   "info <input>",
		Short: "Summarize a schematic",
		Long: `Print the schematic summary: metadata, regions and their sizes, followed by a
table of the most common blocks in each region.

With --chunks the non-air blocks are also listed grouped into chunks of the
given size, for example --chunks 16 or --chunks 16x32x16.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", pipeline.FromAuto, "input format: auto, litematic, schem")
	cmd.Flags().IntVar(&opts.top, "top", 10, "block types to list per region (0 for all)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print only the plain-text summary")
	cmd.Flags().StringVar(&opts.chunks, "chunks", "", "also list blocks grouped by chunk size N or WxHxL")

	return cmd
}

func (c *CLI) runInfo(cmd *cobra.Command, input string, opts infoOpts) error {
	ctx := cmd.Context()
	var w, h, l int
	if opts.chunks != "" {
		var err error
		if w, h, l, err = render.ParseChunkSize(opts.chunks); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "--chunks")
		}
	}
	data, err := readInput(ctx, input)
	if err != nil {
		return err
	}

	runOpts := c.baseOptions()
	runOpts.From = opts.from
	runOpts.Logger = loggerFromContext(ctx)

	e, res, err := pipeline.NewRunner(nil, nil, runOpts.Logger).Load(ctx, data, runOpts)
	if err != nil {
		return err
	}
	text, err := e.RenderText()
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, text)

	model, err := e.Model()
	if err != nil {
		return err
	}
	if opts.chunks != "" {
		listing, err := render.Chunks(model, w, h, l)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, listing)
	}
	if opts.plain {
		return nil
	}
	fmt.Fprintln(stdout)
	printKeyValue("Format", res.From.String())
	printKeyValue("Size", formatBytes(res.Stats.InputBytes))
	printKeyValue("Blocks", fmt.Sprintf("%d non-air of %d", res.Stats.Blocks, model.TotalVolume()))
	fmt.Fprintln(stdout, blockTable(model, opts.top))
	printNextStep("Browse layers", appName+" view "+input)
	return nil
}
