package models

// Understanding classifies a topic's average relevance over a week.
type Understanding string

const (
	UnderstandingGood   Understanding = "good"
	UnderstandingMedium Understanding = "medium"
	UnderstandingLow    Understanding = "low"
)

// Priority ranks a problem area.
type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// WeekOverview sums one 7-day window.
type WeekOverview struct {
	TotalMinutes float64 `json:"total_minutes"`
	Sessions     int     `json:"sessions"`
	AvgRelevance float64 `json:"avg_relevance"`
	Issues       int     `json:"issues"`
}

// DayStat aggregates the sessions of a single day.
type DayStat struct {
	Day          string  `json:"day"`  // Mon..Sun
	Date         string  `json:"date"` // YYYY-MM-DD
	Minutes      float64 `json:"minutes"`
	Sessions     int     `json:"sessions"`
	AvgRelevance float64 `json:"avg_relevance"`
}

// TopicStat aggregates the week's sessions for one topic.
type TopicStat struct {
	Topic         string        `json:"topic"`
	Minutes       float64       `json:"minutes"`
	Sessions      int           `json:"sessions"`
	AvgRelevance  float64       `json:"avg_relevance"`
	Issues        int           `json:"issues"`
	Understanding Understanding `json:"understanding"`
}

// DurationBucket groups sessions of similar length for the
// time-vs-retention analysis.
type DurationBucket struct {
	Label        string  `json:"label"` // short, medium, long
	Sessions     int     `json:"sessions"`
	AvgRelevance float64 `json:"avg_relevance"`
}

// ProblemArea flags a topic accumulating detector verdicts.
type ProblemArea struct {
	Topic    string   `json:"topic"`
	Issues   int      `json:"issues"`
	Priority Priority `json:"priority"`
}

// WeeklyReport is a derived view over a Monday-anchored 7-day window of
// analyzed sessions. It is recomputed on demand and never persisted.
type WeeklyReport struct {
	PeriodStart     string           `json:"period_start"` // Monday, YYYY-MM-DD
	PeriodEnd       string           `json:"period_end"`   // Sunday, YYYY-MM-DD
	ThisWeek        WeekOverview     `json:"this_week"`
	LastWeek        WeekOverview     `json:"last_week"`
	TimeChange      float64          `json:"time_change"`
	SessionsChange  int              `json:"sessions_change"`
	Daily           []DayStat        `json:"daily_breakdown"` // always 7 entries, Mon..Sun
	Topics          []TopicStat      `json:"topic_analysis"`
	Buckets         []DurationBucket `json:"time_vs_retention"` // short, medium, long
	OptimalDuration string           `json:"optimal_duration"`
	ProblemAreas    []ProblemArea    `json:"problem_areas"`
	Recommendations []string         `json:"recommendations"`
	Score           float64          `json:"score"`
	Grade           string           `json:"grade"`
	Streak          int              `json:"streak"`
}
