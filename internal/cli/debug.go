package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemconv/pkg/pipeline"
)

type debugOpts struct {
	from    string
	output  string // text, json or yaml
	file    string // write to a file instead of stdout
	noCache bool
}

func (c *CLI) debugCommand() *cobra.Command {
	var opts debugOpts

	cmd := &cobra.Command{
		Use:   "debug <input>",
		Short: "Dump the full structure of a schematic",
		Long: `Dump every region, palette entry, block entity and entity of a schematic.

The text output is meant for reading; json and yaml include the block
arrays and suit scripts and diffs.`,
		Example: `  schemconv debug house.litematic
  schemconv debug house.schem --output json -o house.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDebug(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", pipeline.FromAuto, "input format: auto, litematic, schem")
	cmd.Flags().StringVar(&opts.output, "output", pipeline.OutputText, "dump format: text, json, yaml")
	cmd.Flags().StringVarP(&opts.file, "out", "o", "-", "output file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runDebug(cmd *cobra.Command, input string, opts debugOpts) error {
	ctx := cmd.Context()
	if opts.output == pipeline.OutputSummary {
		opts.output = pipeline.OutputText
	}
	if err := pipeline.ValidateOutput(opts.output); err != nil {
		return err
	}
	data, err := readInput(ctx, input)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	runOpts := c.baseOptions()
	runOpts.From = opts.from
	runOpts.Output = opts.output
	runOpts.Logger = loggerFromContext(ctx)

	res, err := runner.Render(ctx, data, runOpts)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.file, res.Output); err != nil {
		return err
	}
	if opts.file != "-" {
		printSuccess("Wrote %s dump", opts.output)
		printFile(opts.file)
	}
	return nil
}
