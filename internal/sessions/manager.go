package sessions

import (
	"context"
	"fmt"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/store"
)

// historyWindowDays is how far back ActiveDays looks when scoring consistency.
const historyWindowDays = 7

// Manager orchestrates the analysis engine with the session store.
type Manager struct {
	store  store.Store
	engine *engine.Engine
}

// NewManager creates a new sessions manager.
func NewManager(s store.Store, eng *engine.Engine) *Manager {
	return &Manager{store: s, engine: eng}
}

// enrich fills in the history-derived fields of an input from the store.
// Store errors are not fatal here; analysis degrades to zero history.
func (m *Manager) enrich(ctx context.Context, in *engine.Input) {
	if n, err := m.store.CountSessionsForTopic(ctx, in.Topic, in.StartTime); err == nil {
		in.TimesStudied = n
	}
	from := in.StartTime.AddDate(0, 0, -historyWindowDays)
	if n, err := m.store.ActiveDays(ctx, from, in.StartTime); err == nil {
		in.RecentActiveDays = n
	}
}

// Log analyzes a session and persists the result.
func (m *Manager) Log(ctx context.Context, in engine.Input) (*models.Session, error) {
	m.enrich(ctx, &in)

	session, err := m.engine.Analyze(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Preview analyzes a session without persisting anything.
func (m *Manager) Preview(ctx context.Context, in engine.Input) (*models.Session, error) {
	m.enrich(ctx, &in)
	return m.engine.Analyze(ctx, in)
}

// Reanalyze re-runs analysis for a stored session and updates it in place.
// The session keeps its ID and creation time; every analysis field is
// recomputed from the stored inputs.
func (m *Manager) Reanalyze(ctx context.Context, id string) (*models.Session, error) {
	existing, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	in := InputFromSession(existing)
	m.enrich(ctx, &in)

	updated, err := m.engine.Analyze(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("analyze session %s: %w", id, err)
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := m.store.UpdateSession(ctx, updated); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return updated, nil
}

// InputFromSession rebuilds an analysis input from a stored session.
func InputFromSession(s *models.Session) engine.Input {
	return engine.Input{
		Topic:          s.Topic,
		PlannedMinutes: s.PlannedMinutes,
		ActualMinutes:  s.ActualMinutes,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Breaks:         s.Breaks,
		Notes:          s.Notes,
		SelfRating:     s.SelfRating,
	}
}

// Changed reports whether reanalysis moved any analysis output for a session.
func Changed(before, after *models.Session) bool {
	if before.TopicRelevanceScore != after.TopicRelevanceScore ||
		before.FocusScore != after.FocusScore ||
		before.TopicDriftDetected != after.TopicDriftDetected ||
		before.OverconfidenceDetected != after.OverconfidenceDetected {
		return true
	}
	if before.AISummary != after.AISummary || before.NextSessionPlan != after.NextSessionPlan {
		return true
	}
	if len(before.RevisionTasks) != len(after.RevisionTasks) {
		return true
	}
	for i := range before.RevisionTasks {
		if before.RevisionTasks[i] != after.RevisionTasks[i] {
			return true
		}
	}
	return false
}
