package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemconv/internal/server"
	"github.com/matzehuels/schemconv/pkg/session"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Serve the conversion engine over HTTP until interrupted.

Stateless conversions share the configured cache. Engine sessions live in
memory and expire after server.session_ttl without use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner := c.newRunner(ctx, noCache)
			defer runner.Close()

			opts := c.baseOptions()
			srv, err := server.New(server.Config{
				Runner:   runner,
				Sessions: session.NewMemoryStore(cfg.Server.SessionTTL.Duration, 0),
				Options:  opts,
				Engine:   opts.EngineOptions(),
				Logger:   c.Logger,
				MaxBody:  cfg.Server.MaxBody,
			})
			if err != nil {
				return err
			}
			printInfo("Serving on %s (cache: %s)", addr, cacheLabel(cfg.Cache.Backend, noCache))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func cacheLabel(backend string, disabled bool) string {
	if disabled {
		return "disabled"
	}
	return backend
}
