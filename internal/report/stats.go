package report

import (
	"time"

	"github.com/mbecker/study/internal/models"
)

// Stats summarizes the entire session history.
type Stats struct {
	TotalSessions int     `json:"total_sessions"`
	TotalMinutes  float64 `json:"total_minutes"`
	TotalHours    float64 `json:"total_hours"`
	UniqueTopics  int     `json:"unique_topics"`
	AvgRelevance  float64 `json:"avg_relevance"`
	AvgFocus      float64 `json:"avg_focus"`
	IssuesFound   int     `json:"issues_found"`
	StreakDays    int     `json:"streak_days"`
	FirstSession  string  `json:"first_session,omitempty"`
	LastSession   string  `json:"last_session,omitempty"`
}

// BuildStats computes all-time statistics over every stored session.
// The reference time anchors the streak calculation.
func BuildStats(sessions []*models.Session, reference time.Time) *Stats {
	stats := &Stats{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return stats
	}

	topics := make(map[string]struct{})
	var relevance, focus float64
	first, last := sessions[0].StartTime, sessions[0].StartTime
	for _, s := range sessions {
		stats.TotalMinutes += s.ActualMinutes
		topics[s.Topic] = struct{}{}
		relevance += s.TopicRelevanceScore
		focus += s.FocusScore
		stats.IssuesFound += s.IssueCount()
		if s.StartTime.Before(first) {
			first = s.StartTime
		}
		if s.StartTime.After(last) {
			last = s.StartTime
		}
	}

	n := float64(len(sessions))
	stats.TotalMinutes = round1(stats.TotalMinutes)
	stats.TotalHours = round1(stats.TotalMinutes / 60)
	stats.UniqueTopics = len(topics)
	stats.AvgRelevance = round1(relevance / n)
	stats.AvgFocus = round1(focus / n)
	stats.StreakDays = currentStreak(sessions, reference)
	stats.FirstSession = first.UTC().Format("2006-01-02")
	stats.LastSession = last.UTC().Format("2006-01-02")
	return stats
}
