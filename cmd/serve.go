package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"teraplay/downloader"
	"teraplay/internal"
	"teraplay/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolve API",
	Long: `Serve POST /api/resolve, GET /healthz and GET /metrics.

Example:
  curl -X POST localhost:3000/api/resolve -d '{"url":"https://terabox.com/s/1AbC123"}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		metrics, err := downloader.NewMetrics(reg)
		if err != nil {
			return err
		}
		resolver, err := downloader.NewEndpointResolver(config, downloader.WithMetrics(metrics))
		if err != nil {
			return err
		}

		srv, err := server.New(config, resolver, reg, reg)
		if err != nil {
			return err
		}

		internal.LogInfo("Resolving through %d endpoints, %v each", len(resolver.Endpoints()), config.EndpointTimeout)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", internal.DefaultConfig().ListenAddr, "Listen address (env: TERAPLAY_LISTEN)")
}
