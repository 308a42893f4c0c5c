package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows Claude Code to log and query study sessions natively.
Configure in Claude Code with:

  {
    "mcpServers": {
      "study": { "command": "study", "args": ["mcp"] }
    }
  }

Available tools: study_log_session, study_list_sessions,
study_get_session, study_weekly_report, study_stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		mgr, err := getManager()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s, mgr, reportConfig())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
