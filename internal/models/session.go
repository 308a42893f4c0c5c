package models

import "time"

// Severity ranks how strongly the drift detector fired.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Break is a pause taken during a session. DurationSeconds is derived
// from the timestamps when the session is analyzed.
type Break struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Session represents one analyzed study attempt. The analysis fields are
// set by the engine in a single pass and only change on full re-analysis.
type Session struct {
	ID             string    `json:"id"`
	Topic          string    `json:"topic"`
	PlannedMinutes float64   `json:"planned_minutes"`
	ActualMinutes  float64   `json:"actual_minutes"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Breaks         []Break   `json:"breaks,omitempty"`
	Notes          []string  `json:"notes"`
	SelfRating     *int      `json:"self_rating,omitempty"`

	AISummary              string   `json:"ai_summary"`
	TopicRelevanceScore    float64  `json:"topic_relevance_score"`
	FocusScore             float64  `json:"focus_score"`
	FocusFeedback          string   `json:"focus_feedback"`
	Completed              bool     `json:"completed"`
	TopicDriftDetected     bool     `json:"topic_drift_detected"`
	DriftDetails           string   `json:"drift_details,omitempty"`
	DriftSeverity          Severity `json:"drift_severity,omitempty"`
	OverconfidenceDetected bool     `json:"overconfidence_detected"`
	OverconfidenceDetails  string   `json:"overconfidence_details,omitempty"`
	ConfidenceGap          float64  `json:"confidence_gap,omitempty"`
	RevisionTasks          []string `json:"revision_tasks"`
	NextSessionPlan        string   `json:"next_session_plan"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IssueCount returns how many detector verdicts fired for this session.
func (s *Session) IssueCount() int {
	n := 0
	if s.TopicDriftDetected {
		n++
	}
	if s.OverconfidenceDetected {
		n++
	}
	return n
}
