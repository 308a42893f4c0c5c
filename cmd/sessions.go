package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/store"
)

var (
	sessionsTopic string
	sessionsLimit int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect logged sessions",
	Long: `List, show, and delete logged study sessions.

Running bare 'study sessions' is the same as 'study sessions list'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsListRun()
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsListRun()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the full analysis for one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsShowRun(args[0])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsDeleteRun(args[0])
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&sessionsTopic, "topic", "", "Filter by exact topic")
	sessionsCmd.PersistentFlags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list (0 for all)")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func sessionsListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	list, err := s.ListSessions(context.Background(), store.SessionFilter{
		Topic: sessionsTopic,
		Limit: sessionsLimit,
	})
	if err != nil {
		return err
	}

	if len(list) == 0 {
		ui.Info("No sessions logged. Use 'study log' to get started.")
		return nil
	}

	table := ui.Table([]string{"ID", "Date", "Topic", "Planned", "Actual", "Relevance", "Focus", "Issues"})
	for _, sess := range list {
		issues := "-"
		if n := sess.IssueCount(); n > 0 {
			issues = output.Red(fmt.Sprintf("%d", n))
		}
		table.Append([]string{
			output.Cyan(shortID(sess.ID)),
			sess.StartTime.UTC().Format("2006-01-02"),
			sess.Topic,
			fmt.Sprintf("%.0fm", sess.PlannedMinutes),
			fmt.Sprintf("%.0fm", sess.ActualMinutes),
			output.ScoreColor(sess.TopicRelevanceScore),
			output.ScoreColor(sess.FocusScore),
			issues,
		})
	}
	table.Render()
	return nil
}

func sessionsShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := findSession(ctx, s, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(sess.ID)), sess.Topic)
	fmt.Fprintf(ui.Out, "  %-12s %s to %s\n", "When",
		sess.StartTime.UTC().Format("2006-01-02 15:04"),
		sess.EndTime.UTC().Format("15:04"))
	fmt.Fprintf(ui.Out, "  %-12s %.0f min planned, %.0f min actual\n", "Duration",
		sess.PlannedMinutes, sess.ActualMinutes)
	if len(sess.Breaks) > 0 {
		var spans []string
		for _, b := range sess.Breaks {
			spans = append(spans, fmt.Sprintf("%s-%s",
				b.StartTime.UTC().Format("15:04"), b.EndTime.UTC().Format("15:04")))
		}
		fmt.Fprintf(ui.Out, "  %-12s %s\n", "Breaks", strings.Join(spans, ", "))
	}
	if sess.SelfRating != nil {
		fmt.Fprintf(ui.Out, "  %-12s %d/5\n", "Self-rating", *sess.SelfRating)
	}
	if len(sess.Notes) > 0 {
		fmt.Fprintf(ui.Out, "  %-12s\n", "Notes")
		for _, n := range sess.Notes {
			fmt.Fprintf(ui.Out, "    - %s\n", n)
		}
	}
	fmt.Fprintln(ui.Out)

	printAnalysis(sess)
	return nil
}

func sessionsDeleteRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := findSession(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete session %s (%s)", shortID(sess.ID), sess.Topic)
		return nil
	}

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	ui.Success("Session deleted: %s", output.Cyan(shortID(sess.ID)))
	return nil
}

// findSession finds a session by full ID or unique prefix.
func findSession(ctx context.Context, s store.Store, id string) (*models.Session, error) {
	// Try exact match first
	if sess, err := s.GetSession(ctx, id); err == nil {
		return sess, nil
	}

	// Try prefix match - list all and filter
	upper := strings.ToUpper(id)
	list, err := s.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return nil, err
	}

	var matches []*models.Session
	for _, sess := range list {
		if strings.HasPrefix(sess.ID, upper) {
			matches = append(matches, sess)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("session not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous session ID %s: matches %d sessions", id, len(matches))
	}
}

// shortID shortens a ULID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
