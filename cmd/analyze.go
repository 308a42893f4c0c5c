package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a session without saving it",
	Long: `Run the full analysis pipeline on a session and print the verdicts
without persisting anything. Takes the same flags as 'study log'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeRun()
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&logTopic, "topic", "t", "", "Topic the session was meant to cover (required)")
	analyzeCmd.Flags().Float64VarP(&logPlanned, "planned", "p", 0, "Planned duration in minutes (required)")
	analyzeCmd.Flags().Float64VarP(&logActual, "actual", "a", 0, "Actual duration in minutes (required)")
	analyzeCmd.Flags().StringVar(&logStart, "start", "", "Start time, RFC3339 or '2006-01-02 15:04' (default: actual minutes ago)")
	analyzeCmd.Flags().StringArrayVar(&logNotes, "note", nil, "Free-text note on what was learned (repeatable, max 5)")
	analyzeCmd.Flags().IntVarP(&logRating, "rating", "r", 0, "Self-assessed understanding from 1 to 5")
	analyzeCmd.Flags().StringArrayVar(&logBreaks, "break", nil, "Break taken during the session as HH:MM-HH:MM (repeatable)")
	_ = analyzeCmd.MarkFlagRequired("topic")
	_ = analyzeCmd.MarkFlagRequired("planned")
	_ = analyzeCmd.MarkFlagRequired("actual")
	rootCmd.AddCommand(analyzeCmd)
}

func analyzeRun() error {
	mgr, err := getManager()
	if err != nil {
		return err
	}

	in, err := buildInput()
	if err != nil {
		return err
	}

	session, err := mgr.Preview(context.Background(), in)
	if err != nil {
		return err
	}

	printAnalysis(session)
	fmt.Fprintln(ui.Out)
	ui.Info("Preview only; nothing was saved")
	return nil
}
