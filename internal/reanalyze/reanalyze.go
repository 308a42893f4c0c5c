package reanalyze

import (
	"context"

	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/sessions"
	"github.com/mbecker/study/internal/store"
)

// Result holds the outcome of reanalyzing a single session.
type Result struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// AllResult holds the outcome of reanalyzing all sessions.
type AllResult struct {
	Reanalyzed int      `json:"reanalyzed"`
	Total      int      `json:"total"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Session re-runs analysis for one stored session and reports whether any
// analysis output moved.
func Session(ctx context.Context, m *sessions.Manager, before *models.Session) (bool, error) {
	after, err := m.Reanalyze(ctx, before.ID)
	if err != nil {
		return false, err
	}
	return sessions.Changed(before, after), nil
}

// All re-runs analysis for every stored session. Useful after tuning the
// analysis configuration or enabling LLM enhancement.
func All(ctx context.Context, s store.Store, m *sessions.Manager) (*AllResult, error) {
	list, err := s.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return nil, err
	}

	result := &AllResult{Total: len(list)}
	for _, sess := range list {
		r := Result{ID: sess.ID, Topic: sess.Topic}
		changed, err := Session(ctx, m, sess)
		if err != nil {
			r.Error = err.Error()
			result.Failed++
		} else {
			r.Changed = changed
			if changed {
				result.Reanalyzed++
			}
		}
		result.Results = append(result.Results, r)
	}

	return result, nil
}
