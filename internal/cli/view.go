package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemconv/pkg/pipeline"
)

func (c *CLI) viewCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "view <input>",
		Short: "Browse a schematic layer by layer",
		Long: `Open an interactive terminal view of a schematic. Each screen shows one
horizontal layer of one region, with a legend of the blocks on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readInput(ctx, args[0])
			if err != nil {
				return err
			}

			opts := c.baseOptions()
			opts.From = from
			opts.Logger = loggerFromContext(ctx)
			e, _, err := pipeline.NewRunner(nil, nil, opts.Logger).Load(ctx, data, opts)
			if err != nil {
				return err
			}
			model, err := e.Model()
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewLayerModel(model), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&from, "from", pipeline.FromAuto, "input format: auto, litematic, schem")
	return cmd
}
