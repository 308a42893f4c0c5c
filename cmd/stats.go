package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show all-time study statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun() error {
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

	now := time.Now().UTC()
	stats := report.BuildStats(list, now)

	fmt.Fprintln(ui.Out, "Study statistics")
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Sessions", stats.TotalSessions)
	fmt.Fprintf(ui.Out, "  %-14s %.1fh (%.0f min)\n", "Time", stats.TotalHours, stats.TotalMinutes)
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Topics", stats.UniqueTopics)
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Avg relevance", output.ScoreColor(stats.AvgRelevance))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Avg focus", output.ScoreColor(stats.AvgFocus))
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Issues", stats.IssuesFound)
	if stats.StreakDays > 0 {
		fmt.Fprintf(ui.Out, "  %-14s %d days\n", "Streak", stats.StreakDays)
	}
	if stats.FirstSession != "" {
		fmt.Fprintf(ui.Out, "  %-14s %s to %s\n", "Range", stats.FirstSession, stats.LastSession)
	}
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  Last 14 days   %s\n", report.Sparkline(dailyMinutes(list, now, 14)))

	return nil
}

// dailyMinutes sums study minutes per day for the n days ending at
// reference, oldest first.
func dailyMinutes(sessions []*models.Session, reference time.Time, n int) []float64 {
	byDay := make(map[string]float64)
	for _, s := range sessions {
		byDay[s.StartTime.UTC().Format("2006-01-02")] += s.ActualMinutes
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		day := reference.AddDate(0, 0, i-n+1).Format("2006-01-02")
		vals[i] = byDay[day]
	}
	return vals
}
