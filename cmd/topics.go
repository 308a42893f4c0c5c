package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/store"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Show all-time statistics per topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		return topicsRun()
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

func topicsRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	list, err := s.ListSessions(context.Background(), store.SessionFilter{})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.Info("No study sessions logged yet. Use 'study log' to get started.")
		return nil
	}

	table := ui.Table([]string{"Topic", "Time", "Sessions", "Relevance", "Understanding", "Issues"})
	for _, t := range report.Topics(reportConfig(), list) {
		issues := "-"
		if t.Issues > 0 {
			issues = fmt.Sprintf("%d", t.Issues)
		}
		table.Append([]string{
			output.Cyan(t.Topic),
			fmt.Sprintf("%.0fm", t.Minutes),
			fmt.Sprintf("%d", t.Sessions),
			output.ScoreColor(t.AvgRelevance),
			output.UnderstandingColor(string(t.Understanding)),
			issues,
		})
	}
	table.Render()
	return nil
}
