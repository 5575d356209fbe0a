package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Serves swarmwatch tools to MCP clients over stdin/stdout: list_tasks,
get_task, file_changes, git_status, and commit_diff. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	e.logger.Debug("mcp server starting", "store", e.paths.TaskStore)
	return server.ServeStdio(mcp.NewServer(e.pipeline, e.viewer, version))
}
