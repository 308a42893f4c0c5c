package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/store"
)

var (
	reportDate   string
	reportExport string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the weekly study report",
	Long: `Generate the weekly report for the Monday-to-Sunday week containing
the reference date: totals and week-over-week changes, a daily
breakdown, per-topic analysis, time-vs-retention buckets, problem
areas, recommendations, and a score with a letter grade.`,
	Example: `  study report
  study report --date 2026-08-17
  study report --export markdown --output week.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun()
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Reference date YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportExport, "export", "", "Export format: json, csv, markdown")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write export to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}

func reportRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	reference := time.Now().UTC()
	if reportDate != "" {
		t, err := time.Parse("2006-01-02", reportDate)
		if err != nil {
			return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", reportDate)
		}
		reference = t
	}

	list, err := s.ListSessions(context.Background(), store.SessionFilter{})
	if err != nil {
		return err
	}

	rep := report.Build(reportConfig(), list, reference)

	if reportExport != "" {
		return exportReport(rep)
	}

	renderReport(rep)
	return nil
}

// renderReport prints the report to the terminal with bars and colors.
func renderReport(rep *models.WeeklyReport) {
	cfg := reportConfig()

	fmt.Fprintf(ui.Out, "Weekly Report  %s to %s\n", rep.PeriodStart, rep.PeriodEnd)
	fmt.Fprintln(ui.Out)

	timeArrow := report.TrendArrow(rep.ThisWeek.TotalMinutes, rep.LastWeek.TotalMinutes)
	sessArrow := report.TrendArrow(float64(rep.ThisWeek.Sessions), float64(rep.LastWeek.Sessions))
	fmt.Fprintf(ui.Out, "  %-14s %.0f min %s (%+.0f vs last week)\n", "Time",
		rep.ThisWeek.TotalMinutes, timeArrow, rep.TimeChange)
	fmt.Fprintf(ui.Out, "  %-14s %d %s (%+d)\n", "Sessions",
		rep.ThisWeek.Sessions, sessArrow, rep.SessionsChange)
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Avg relevance", output.ScoreColor(rep.ThisWeek.AvgRelevance))
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Issues", rep.ThisWeek.Issues)
	fmt.Fprintf(ui.Out, "  %-14s %s  grade %s\n", "Score",
		output.ScoreColor(rep.Score), output.GradeColor(rep.Grade))
	if rep.Streak > 0 {
		fmt.Fprintf(ui.Out, "  %-14s %d days\n", "Streak", rep.Streak)
	}
	fmt.Fprintln(ui.Out)

	fmt.Fprintln(ui.Out, "Daily breakdown")
	var maxMinutes float64
	for _, d := range rep.Daily {
		if d.Minutes > maxMinutes {
			maxMinutes = d.Minutes
		}
	}
	for _, d := range rep.Daily {
		bar := report.HorizontalBar(d.Minutes, maxMinutes, 16)
		fmt.Fprintf(ui.Out, "  %s  %s %4.0fm (%d)\n", d.Day, bar, d.Minutes, d.Sessions)
	}
	vals := make([]float64, len(rep.Daily))
	for i, d := range rep.Daily {
		vals[i] = d.AvgRelevance
	}
	fmt.Fprintf(ui.Out, "       %s relevance by day\n", report.Sparkline(vals))
	fmt.Fprintln(ui.Out)

	if len(rep.Topics) > 0 {
		fmt.Fprintln(ui.Out, "Topics")
		table := ui.Table([]string{"Topic", "Time", "Sessions", "Relevance", "Understanding", "Issues"})
		for _, t := range rep.Topics {
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
		fmt.Fprintln(ui.Out)
	}

	fmt.Fprintln(ui.Out, "Time vs retention")
	for _, b := range rep.Buckets {
		fmt.Fprintf(ui.Out, "  %-18s %d sessions, avg relevance %s\n",
			report.BucketPhrase(cfg, b.Label), b.Sessions, output.ScoreColor(b.AvgRelevance))
	}
	if rep.OptimalDuration != "" {
		fmt.Fprintf(ui.Out, "  Best length: %s\n", report.BucketPhrase(cfg, rep.OptimalDuration))
	}
	fmt.Fprintln(ui.Out)

	if len(rep.ProblemAreas) > 0 {
		fmt.Fprintln(ui.Out, "Problem areas")
		for _, p := range rep.ProblemAreas {
			fmt.Fprintf(ui.Out, "  %s: %d issues (%s priority)\n",
				output.Cyan(p.Topic), p.Issues, string(p.Priority))
		}
		fmt.Fprintln(ui.Out)
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(ui.Out, "Recommendations")
		for i, rec := range rep.Recommendations {
			fmt.Fprintf(ui.Out, "  %d. %s\n", i+1, rec)
		}
	}
}

func exportReport(rep *models.WeeklyReport) error {
	out := io.Writer(ui.Out)
	if reportOutput != "" {
		f, err := os.Create(reportOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var err error
	switch reportExport {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	case "csv":
		err = exportReportCSV(out, rep)
	case "markdown":
		err = exportReportMarkdown(out, rep)
	default:
		return fmt.Errorf("unknown format: %s (use: json, csv, markdown)", reportExport)
	}
	if err != nil {
		return err
	}

	if reportOutput != "" {
		ui.Success("Report exported to %s", reportOutput)
	}
	return nil
}

// exportReportCSV writes the per-topic analysis, the most tabular slice of
// the report.
func exportReportCSV(out io.Writer, rep *models.WeeklyReport) error {
	w := csv.NewWriter(out)
	w.Write([]string{"Topic", "Minutes", "Sessions", "AvgRelevance", "Issues", "Understanding"})
	for _, t := range rep.Topics {
		w.Write([]string{
			t.Topic,
			fmt.Sprintf("%.1f", t.Minutes),
			fmt.Sprintf("%d", t.Sessions),
			fmt.Sprintf("%.1f", t.AvgRelevance),
			fmt.Sprintf("%d", t.Issues),
			string(t.Understanding),
		})
	}
	w.Flush()
	return w.Error()
}

func exportReportMarkdown(out io.Writer, rep *models.WeeklyReport) error {
	cfg := reportConfig()

	fmt.Fprintf(out, "# Weekly Report: %s to %s\n\n", rep.PeriodStart, rep.PeriodEnd)
	fmt.Fprintf(out, "- Time: %.0f min (%+.0f vs last week)\n", rep.ThisWeek.TotalMinutes, rep.TimeChange)
	fmt.Fprintf(out, "- Sessions: %d (%+d)\n", rep.ThisWeek.Sessions, rep.SessionsChange)
	fmt.Fprintf(out, "- Avg relevance: %.1f\n", rep.ThisWeek.AvgRelevance)
	fmt.Fprintf(out, "- Issues: %d\n", rep.ThisWeek.Issues)
	fmt.Fprintf(out, "- Score: %.1f (%s)\n", rep.Score, rep.Grade)
	if rep.Streak > 0 {
		fmt.Fprintf(out, "- Streak: %d days\n", rep.Streak)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Daily Breakdown")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Day | Date | Minutes | Sessions | Avg Relevance |")
	fmt.Fprintln(out, "|-----|------|---------|----------|---------------|")
	for _, d := range rep.Daily {
		fmt.Fprintf(out, "| %s | %s | %.0f | %d | %.1f |\n",
			d.Day, d.Date, d.Minutes, d.Sessions, d.AvgRelevance)
	}
	fmt.Fprintln(out)

	if len(rep.Topics) > 0 {
		fmt.Fprintln(out, "## Topics")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "| Topic | Minutes | Sessions | Avg Relevance | Understanding | Issues |")
		fmt.Fprintln(out, "|-------|---------|----------|---------------|---------------|--------|")
		for _, t := range rep.Topics {
			fmt.Fprintf(out, "| %s | %.0f | %d | %.1f | %s | %d |\n",
				t.Topic, t.Minutes, t.Sessions, t.AvgRelevance, t.Understanding, t.Issues)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "## Time vs Retention")
	fmt.Fprintln(out)
	for _, b := range rep.Buckets {
		fmt.Fprintf(out, "- %s: %d sessions, avg relevance %.1f\n",
			report.BucketPhrase(cfg, b.Label), b.Sessions, b.AvgRelevance)
	}
	if rep.OptimalDuration != "" {
		fmt.Fprintf(out, "\nBest length: %s\n", report.BucketPhrase(cfg, rep.OptimalDuration))
	}
	fmt.Fprintln(out)

	if len(rep.ProblemAreas) > 0 {
		fmt.Fprintln(out, "## Problem Areas")
		fmt.Fprintln(out)
		for _, p := range rep.ProblemAreas {
			fmt.Fprintf(out, "- %s: %d issues (%s priority)\n", p.Topic, p.Issues, p.Priority)
		}
		fmt.Fprintln(out)
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(out, "## Recommendations")
		fmt.Fprintln(out)
		for i, rec := range rep.Recommendations {
			fmt.Fprintf(out, "%d. %s\n", i+1, rec)
		}
	}
	return nil
}
