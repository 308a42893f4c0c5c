// Package engine implements the deterministic session analysis heuristics:
// topic drift detection, overconfidence detection, the multi-factor focus
// score, and revision/next-session planning. Analysis is a pure function of
// its input plus the Config constants; an optional Enhancer may rewrite the
// narrative strings but never changes the structure of the result.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mbecker/study/internal/models"
)

// Input is the raw session data a collaborator supplies for analysis.
type Input struct {
	Topic          string
	PlannedMinutes float64
	ActualMinutes  float64
	StartTime      time.Time
	EndTime        time.Time
	Breaks         []models.Break
	Notes          []string
	SelfRating     *int

	// Cross-session context, computed by the caller (typically from the
	// store). Zero values are valid for a first session.
	TimesStudied     int // prior sessions on the same topic
	RecentActiveDays int // distinct days with sessions in the 7 days before StartTime
}

// EnhanceRequest carries the analysis context an external text service may
// use to improve the narrative strings.
type EnhanceRequest struct {
	Topic                  string   `json:"topic"`
	Notes                  []string `json:"notes"`
	PlannedMinutes         float64  `json:"planned_minutes"`
	ActualMinutes          float64  `json:"actual_minutes"`
	FocusScore             float64  `json:"focus_score"`
	RelevanceScore         float64  `json:"relevance_score"`
	DriftDetected          bool     `json:"drift_detected"`
	OverconfidenceDetected bool     `json:"overconfidence_detected"`
}

// Enhancement is the narrative produced by an Enhancer. Empty fields fall
// back to the local templates.
type Enhancement struct {
	Summary  string `json:"summary"`
	Feedback string `json:"feedback"`
}

// Enhancer produces summary and feedback prose from an external text
// service. Implementations must be safe for concurrent use. Any error is
// recovered by falling back to the local templates.
type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*Enhancement, error)
}

// Engine analyzes study sessions. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	cfg      Config
	enhancer Enhancer
}

// New creates an engine. A nil enhancer selects the local narrative
// templates; the analysis control flow is identical either way.
func New(cfg Config, enh Enhancer) *Engine {
	return &Engine{cfg: cfg, enhancer: enh}
}

// Config returns the constants the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze validates the input and runs every heuristic over it. The result
// is deterministic for a given input and config; only the optional
// enhancer introduces external text, and its failures are silently
// recovered with the local templates.
func (e *Engine) Analyze(ctx context.Context, in Input) (*models.Session, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(in.Topic)
	notes := usableNotes(in.Notes)
	noteTokens := Tokenize(strings.Join(notes, " "))

	drift := e.detectDrift(topic, noteTokens)
	over := e.detectOverconfidence(in.ActualMinutes, noteTokens)
	focus := e.scoreFocus(in, len(notes), len(noteTokens), over.ActiveCount)

	s := &models.Session{
		Topic:          topic,
		PlannedMinutes: in.PlannedMinutes,
		ActualMinutes:  in.ActualMinutes,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Breaks:         normalizeBreaks(in.Breaks),
		Notes:          notes,
		SelfRating:     in.SelfRating,

		TopicRelevanceScore:    drift.Relevance,
		FocusScore:             focus.Total,
		Completed:              in.ActualMinutes >= in.PlannedMinutes,
		TopicDriftDetected:     drift.Detected,
		DriftDetails:           drift.Details,
		DriftSeverity:          drift.Severity,
		OverconfidenceDetected: over.Detected,
		OverconfidenceDetails:  over.Details,
		ConfidenceGap:          over.ConfidenceGap,
		RevisionTasks:          e.revisionTasks(topic, drift, over, notes),
		NextSessionPlan:        e.nextSessionPlan(topic, drift, over, in.ActualMinutes, in.TimesStudied),
	}

	s.AISummary = localSummary(notes)
	s.FocusFeedback = focusFeedback(focus.Total)
	if e.enhancer != nil {
		req := EnhanceRequest{
			Topic:                  topic,
			Notes:                  notes,
			PlannedMinutes:         in.PlannedMinutes,
			ActualMinutes:          in.ActualMinutes,
			FocusScore:             focus.Total,
			RelevanceScore:         drift.Relevance,
			DriftDetected:          drift.Detected,
			OverconfidenceDetected: over.Detected,
		}
		// Enhancement failures are recovered, not surfaced: the local
		// templates above already populated both fields.
		enh, err := e.enhancer.Enhance(ctx, req)
		if err != nil {
			slog.Warn("enhancement failed, keeping local narrative", "topic", topic, "error", err)
		}
		if err == nil && enh != nil {
			if v := strings.TrimSpace(enh.Summary); v != "" {
				s.AISummary = v
			}
			if v := strings.TrimSpace(enh.Feedback); v != "" {
				s.FocusFeedback = v
			}
		}
	}

	return s, nil
}

// normalizeBreaks copies the breaks with DurationSeconds recomputed from
// the timestamps.
func normalizeBreaks(breaks []models.Break) []models.Break {
	if len(breaks) == 0 {
		return nil
	}
	out := make([]models.Break, len(breaks))
	for i, b := range breaks {
		b.DurationSeconds = b.EndTime.Sub(b.StartTime).Seconds()
		out[i] = b
	}
	return out
}
