package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server communicates over stdio using JSON-RPC and exposes the
list_documents, search and ask tools plus document resources.
Use "localrag serve" for HTTP.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "localrag": {
        "command": "/path/to/localrag",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Query:    queryService,
		Document: documentService,
	})
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
