package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/output"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import sessions from a JSON export",
	Long: `Import study sessions from a JSON file containing an array of session
records (topic, planned_minutes, actual_minutes, start_time, and
optionally end_time, notes, self_rating, breaks).

Each imported session is analyzed on the way in, so scores and
feedback reflect the current analysis rules.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return importRun(args[0])
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview sessions without importing them")
	rootCmd.AddCommand(importCmd)
}

// importRecord matches the JSON export format of earlier trackers.
// Timestamps may be RFC3339 or zoneless ISO; zoneless is read as UTC.
type importRecord struct {
	Topic          string        `json:"topic"`
	PlannedMinutes float64       `json:"planned_minutes"`
	ActualMinutes  float64       `json:"actual_minutes"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	Breaks         []importBreak `json:"breaks"`
	Notes          []string      `json:"notes"`
	SelfRating     *int          `json:"self_rating"`
}

type importBreak struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func importRun(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	if len(records) == 0 {
		ui.Info("No sessions found in file.")
		return nil
	}

	inputs := make([]engine.Input, 0, len(records))
	for i, r := range records {
		in, err := recordToInput(r)
		if err != nil {
			return fmt.Errorf("record %d (%s): %w", i+1, r.Topic, err)
		}
		inputs = append(inputs, in)
	}

	table := ui.Table([]string{"#", "Date", "Topic", "Planned", "Actual"})
	for i, in := range inputs {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			in.StartTime.UTC().Format("2006-01-02"),
			output.Cyan(in.Topic),
			fmt.Sprintf("%.0fm", in.PlannedMinutes),
			fmt.Sprintf("%.0fm", in.ActualMinutes),
		})
	}
	table.Render()

	if importDryRun || dryRun {
		ui.DryRunMsg("Would import %d sessions", len(inputs))
		return nil
	}

	mgr, err := getManager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	imported := 0
	skipped := 0
	for i, in := range inputs {
		if _, err := mgr.Log(ctx, in); err != nil {
			ui.Warning("Skipping session %d (%s): %v", i+1, in.Topic, err)
			skipped++
			continue
		}
		imported++
	}

	ui.Success("Imported %d sessions", imported)
	if skipped > 0 {
		ui.Warning("Skipped %d sessions", skipped)
	}
	return nil
}

func recordToInput(r importRecord) (engine.Input, error) {
	start, err := parseImportTime(r.StartTime)
	if err != nil {
		return engine.Input{}, fmt.Errorf("start_time: %w", err)
	}

	end := start.Add(time.Duration(r.ActualMinutes * float64(time.Minute)))
	if r.EndTime != "" {
		end, err = parseImportTime(r.EndTime)
		if err != nil {
			return engine.Input{}, fmt.Errorf("end_time: %w", err)
		}
	}

	in := engine.Input{
		Topic:          r.Topic,
		PlannedMinutes: r.PlannedMinutes,
		ActualMinutes:  r.ActualMinutes,
		StartTime:      start,
		EndTime:        end,
		Notes:          r.Notes,
		SelfRating:     r.SelfRating,
	}

	for _, b := range r.Breaks {
		from, err := parseImportTime(b.StartTime)
		if err != nil {
			return engine.Input{}, fmt.Errorf("break start_time: %w", err)
		}
		to, err := parseImportTime(b.EndTime)
		if err != nil {
			return engine.Input{}, fmt.Errorf("break end_time: %w", err)
		}
		in.Breaks = append(in.Breaks, models.Break{StartTime: from, EndTime: to})
	}

	return in, nil
}

var importTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseImportTime(s string) (time.Time, error) {
	for _, layout := range importTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
