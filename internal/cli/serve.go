package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vigor-app/vigor/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose Prometheus /metrics")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost    string
	servePort    int
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Vigor API server",
	Long:  `Start the Vigor HTTP API server at localhost:8420.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if serveMetrics {
		cfg.Telemetry.Prometheus = true
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Serve(context.Background())
}
