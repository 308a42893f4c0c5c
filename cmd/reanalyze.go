package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/output"
	"github.com/mbecker/study/internal/reanalyze"
	"github.com/mbecker/study/internal/store"
)

var reanalyzeAllFlag bool

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze [id]",
	Short: "Re-run analysis on stored sessions",
	Long: `Re-run the analysis pipeline on one stored session, or on every
session with --all. Inputs are kept as logged; every analysis output
is recomputed. Useful after tuning analysis settings or enabling LLM
enhancement.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reanalyzeAllFlag {
			return reanalyzeAllRun()
		}
		if len(args) != 1 {
			return fmt.Errorf("provide a session ID or --all")
		}
		return reanalyzeOneRun(args[0])
	},
}

func init() {
	reanalyzeCmd.Flags().BoolVar(&reanalyzeAllFlag, "all", false, "Reanalyze every stored session")
	rootCmd.AddCommand(reanalyzeCmd)
}

func reanalyzeOneRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	mgr, err := getManager()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := findSession(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would reanalyze session %s (%s)", shortID(sess.ID), sess.Topic)
		return nil
	}

	updated, err := mgr.Reanalyze(ctx, sess.ID)
	if err != nil {
		return err
	}

	ui.Success("Session reanalyzed: %s", output.Cyan(shortID(updated.ID)))
	fmt.Fprintln(ui.Out)
	printAnalysis(updated)
	return nil
}

func reanalyzeAllRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	mgr, err := getManager()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if dryRun {
		list, err := s.ListSessions(ctx, store.SessionFilter{})
		if err != nil {
			return err
		}
		ui.DryRunMsg("Would reanalyze %d sessions", len(list))
		return nil
	}

	result, err := reanalyze.All(ctx, s, mgr)
	if err != nil {
		return err
	}

	for _, r := range result.Results {
		switch {
		case r.Error != "":
			ui.Error("%s %s: %s", shortID(r.ID), r.Topic, r.Error)
		case r.Changed:
			ui.Success("%s %s", shortID(r.ID), r.Topic)
		default:
			ui.VerboseLog("%s %s unchanged", shortID(r.ID), r.Topic)
		}
	}

	if result.Failed > 0 {
		ui.Warning("Reanalyzed %d of %d sessions (%d changed, %d failed)",
			result.Total-result.Failed, result.Total, result.Reanalyzed, result.Failed)
	} else {
		ui.Info("Reanalyzed %d sessions (%d changed)", result.Total, result.Reanalyzed)
	}
	return nil
}
