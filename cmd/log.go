package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/output"
)

var (
	logTopic   string
	logPlanned float64
	logActual  float64
	logStart   string
	logNotes   []string
	logRating  int
	logBreaks  []string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a completed study session and analyze it",
	Long: `Log a completed study session. The session is analyzed immediately:
notes are checked against the topic for drift, passive wording is
checked for overconfidence, and a weighted focus score is computed.
The analysis, revision tasks, and next-session plan are printed and
the session is saved.`,
	Example: `  study log -t "Binary Search" -p 25 -a 24 \
    --note "Learned that binary search requires a sorted array" \
    --note "Time complexity is O(log n)" -r 4

  study log -t "SQL Joins" -p 30 -a 45 --start "2026-08-24 09:00" \
    --break "09:20-09:25" --note "Practiced inner and left joins"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return logRun()
	},
}

func init() {
	logCmd.Flags().StringVarP(&logTopic, "topic", "t", "", "Topic the session was meant to cover (required)")
	logCmd.Flags().Float64VarP(&logPlanned, "planned", "p", 0, "Planned duration in minutes (required)")
	logCmd.Flags().Float64VarP(&logActual, "actual", "a", 0, "Actual duration in minutes (required)")
	logCmd.Flags().StringVar(&logStart, "start", "", "Start time, RFC3339 or '2006-01-02 15:04' (default: actual minutes ago)")
	logCmd.Flags().StringArrayVar(&logNotes, "note", nil, "Free-text note on what was learned (repeatable, max 5)")
	logCmd.Flags().IntVarP(&logRating, "rating", "r", 0, "Self-assessed understanding from 1 to 5")
	logCmd.Flags().StringArrayVar(&logBreaks, "break", nil, "Break taken during the session as HH:MM-HH:MM (repeatable)")
	_ = logCmd.MarkFlagRequired("topic")
	_ = logCmd.MarkFlagRequired("planned")
	_ = logCmd.MarkFlagRequired("actual")
	rootCmd.AddCommand(logCmd)
}

func logRun() error {
	mgr, err := getManager()
	if err != nil {
		return err
	}

	in, err := buildInput()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if dryRun {
		session, err := mgr.Preview(ctx, in)
		if err != nil {
			return err
		}
		ui.DryRunMsg("Session analyzed but not saved")
		fmt.Fprintln(ui.Out)
		printAnalysis(session)
		return nil
	}

	session, err := mgr.Log(ctx, in)
	if err != nil {
		return err
	}

	ui.Success("Session logged: %s", output.Cyan(shortID(session.ID)))
	fmt.Fprintln(ui.Out)
	printAnalysis(session)
	return nil
}

// buildInput assembles an analysis input from the log/analyze flag values.
func buildInput() (engine.Input, error) {
	start := time.Now().UTC().Add(-time.Duration(logActual * float64(time.Minute)))
	if logStart != "" {
		t, err := parseTimeFlag(logStart)
		if err != nil {
			return engine.Input{}, err
		}
		start = t
	}
	end := start.Add(time.Duration(logActual * float64(time.Minute)))

	breaks := make([]models.Break, 0, len(logBreaks))
	for _, spec := range logBreaks {
		b, err := parseBreak(spec, start)
		if err != nil {
			return engine.Input{}, err
		}
		breaks = append(breaks, b)
	}

	in := engine.Input{
		Topic:          logTopic,
		PlannedMinutes: logPlanned,
		ActualMinutes:  logActual,
		StartTime:      start,
		EndTime:        end,
		Breaks:         breaks,
		Notes:          logNotes,
	}
	if logRating != 0 {
		r := logRating
		in.SelfRating = &r
	}
	return in, nil
}

// parseTimeFlag accepts RFC3339 or a local wall-clock '2006-01-02 15:04'.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (use RFC3339 or '2006-01-02 15:04')", s)
	}
	return t, nil
}

// parseBreak parses an HH:MM-HH:MM span anchored to the session's start date.
func parseBreak(spec string, day time.Time) (models.Break, error) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return models.Break{}, fmt.Errorf("invalid break %q (use HH:MM-HH:MM)", spec)
	}

	from, err := parseClock(parts[0], day)
	if err != nil {
		return models.Break{}, fmt.Errorf("invalid break %q: %w", spec, err)
	}
	to, err := parseClock(parts[1], day)
	if err != nil {
		return models.Break{}, fmt.Errorf("invalid break %q: %w", spec, err)
	}
	if to.Before(from) {
		return models.Break{}, fmt.Errorf("invalid break %q: end is before start", spec)
	}

	return models.Break{StartTime: from, EndTime: to}, nil
}

// parseClock turns an HH:MM string into a time on the given day.
func parseClock(s string, day time.Time) (time.Time, error) {
	clock, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock time %q", s)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

// printAnalysis renders a session's analysis verdicts and plans.
func printAnalysis(s *models.Session) {
	fmt.Fprintf(ui.Out, "%s\n", s.AISummary)
	fmt.Fprintln(ui.Out)

	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Relevance", output.ScoreColor(s.TopicRelevanceScore))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Focus", output.ScoreColor(s.FocusScore))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Feedback", s.FocusFeedback)
	fmt.Fprintln(ui.Out)

	if s.TopicDriftDetected {
		ui.Warning("Topic drift [%s]: %s", output.SeverityColor(string(s.DriftSeverity)), s.DriftDetails)
	}
	if s.OverconfidenceDetected {
		ui.Warning("Overconfidence: %s", s.OverconfidenceDetails)
	}
	if !s.TopicDriftDetected && !s.OverconfidenceDetected {
		ui.Success("No issues detected")
	}
	fmt.Fprintln(ui.Out)

	fmt.Fprintln(ui.Out, "Revision tasks:")
	for i, task := range s.RevisionTasks {
		fmt.Fprintf(ui.Out, "  %d. %s\n", i+1, task)
	}
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "Next session: %s\n", s.NextSessionPlan)
}
