package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/adapters/driving/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over HTTP with Prometheus metrics",
	Long: `Start an HTTP server exposing the MCP endpoint at /mcp and Prometheus
metrics at /metrics.

Examples:
  localrag serve
  localrag serve --addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	var routes []mcp.Route
	if metricsHandler != nil {
		routes = append(routes, mcp.Route{Pattern: "/metrics", Handler: metricsHandler})
	}

	cmd.Printf("MCP server listening on http://%s/mcp\n", displayAddr(serveAddr))
	if metricsHandler != nil {
		cmd.Printf("Metrics on http://%s/metrics\n", displayAddr(serveAddr))
	}
	return server.RunHTTP(cmd.Context(), serveAddr, routes...)
}

// displayAddr fills in localhost for addresses without a host.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
