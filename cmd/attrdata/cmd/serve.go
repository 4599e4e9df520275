package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/attrdata/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Serve the data model and the record archive over HTTP.

Examples:
  attrdata serve --port=8080
  attrdata serve --bind=0.0.0.0 --api-key=mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				a.cfg.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("bind") {
				a.cfg.Bind, _ = flags.GetString("bind")
			}
			if flags.Changed("api-key") {
				a.cfg.APIKey, _ = flags.GetString("api-key")
			}

			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(a.model, a.codec, arc, api.ServerConfig{
				Bind:   a.cfg.Bind,
				Port:   a.cfg.Port,
				APIKey: a.cfg.APIKey,
			}, api.NewMetrics(nil), a.logger)
			cmd.Printf("Metrics available at: http://%s/metrics\n", server.Addr())
			return server.ListenAndServe(ctx)
		},
	}
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key required in X-API-Key (empty disables authentication)")
	return serveCmd
}
