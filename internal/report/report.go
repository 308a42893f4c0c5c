// Package report folds analyzed sessions into a Monday-anchored weekly
// view: daily and per-topic breakdowns, time-vs-retention buckets, ranked
// problem areas, a numeric score, and a letter grade. Building a report is
// a pure read; the reference date is always passed in explicitly.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mbecker/study/internal/models"
)

// GradeCutoffs maps a weekly score to a letter grade. Scores at or above a
// cutoff earn that grade.
type GradeCutoffs struct {
	APlus float64
	A     float64
	B     float64
	C     float64
	D     float64
}

// Config carries the aggregation constants.
type Config struct {
	UnderstandingGoodMin   float64 // avg relevance at or above this is "good"
	UnderstandingMediumMin float64 // ... at or above this is "medium", below is "low"

	ShortMaxMinutes  float64 // sessions up to this are "short"
	MediumMaxMinutes float64 // ... up to this are "medium", beyond is "long"

	ProblemMinIssues  int // topics with at least this many issues are problem areas
	ProblemHighIssues int // ... at least this many are high priority

	TargetWeeklyMinutes float64 // minutes/week that max the time component
	Grades              GradeCutoffs
}

// DefaultConfig returns the canonical aggregation constants.
func DefaultConfig() Config {
	return Config{
		UnderstandingGoodMin:   70,
		UnderstandingMediumMin: 40,
		ShortMaxMinutes:        20,
		MediumMaxMinutes:       35,
		ProblemMinIssues:       1,
		ProblemHighIssues:      3,
		TargetWeeklyMinutes:    300,
		Grades:                 GradeCutoffs{APlus: 90, A: 80, B: 70, C: 60, D: 50},
	}
}

// Build computes the weekly report for the week containing reference.
// Sessions outside the two-week window only contribute to the streak.
// An empty session set yields a zeroed report, never an error.
func Build(cfg Config, sessions []*models.Session, reference time.Time) *models.WeeklyReport {
	weekStart := mondayOf(reference)
	weekEnd := weekStart.AddDate(0, 0, 7)
	lastStart := weekStart.AddDate(0, 0, -7)

	var thisWeek, lastWeek []*models.Session
	for _, s := range sessions {
		t := s.StartTime.UTC()
		switch {
		case !t.Before(weekStart) && t.Before(weekEnd):
			thisWeek = append(thisWeek, s)
		case !t.Before(lastStart) && t.Before(weekStart):
			lastWeek = append(lastWeek, s)
		}
	}

	cur := overview(thisWeek)
	prev := overview(lastWeek)

	topics := topicStats(cfg, thisWeek)
	buckets := durationBuckets(cfg, thisWeek)
	optimal := optimalBucket(buckets)
	problems := problemAreas(cfg, topics)
	streak := currentStreak(sessions, reference)

	r := &models.WeeklyReport{
		PeriodStart:     weekStart.Format("2006-01-02"),
		PeriodEnd:       weekStart.AddDate(0, 0, 6).Format("2006-01-02"),
		ThisWeek:        cur,
		LastWeek:        prev,
		TimeChange:      round1(cur.TotalMinutes - prev.TotalMinutes),
		SessionsChange:  cur.Sessions - prev.Sessions,
		Daily:           dailyBreakdown(weekStart, thisWeek),
		Topics:          topics,
		Buckets:         buckets,
		OptimalDuration: optimal,
		ProblemAreas:    problems,
		Streak:          streak,
	}
	r.Score = weeklyScore(cfg, cur)
	r.Grade = grade(cfg.Grades, r.Score)
	r.Recommendations = recommendations(cfg, problems, optimal, streak, cur.Sessions)
	return r
}

// mondayOf returns midnight UTC of the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

func overview(sessions []*models.Session) models.WeekOverview {
	o := models.WeekOverview{Sessions: len(sessions)}
	var relSum float64
	for _, s := range sessions {
		o.TotalMinutes += s.ActualMinutes
		o.Issues += s.IssueCount()
		relSum += s.TopicRelevanceScore
	}
	o.TotalMinutes = round1(o.TotalMinutes)
	if len(sessions) > 0 {
		o.AvgRelevance = round1(relSum / float64(len(sessions)))
	}
	return o
}

// dailyBreakdown returns exactly seven entries, Monday through Sunday,
// zero-filled for days without sessions.
func dailyBreakdown(weekStart time.Time, sessions []*models.Session) []models.DayStat {
	days := make([]models.DayStat, 7)
	relSums := make([]float64, 7)
	for i := range days {
		d := weekStart.AddDate(0, 0, i)
		days[i] = models.DayStat{
			Day:  d.Format("Mon"),
			Date: d.Format("2006-01-02"),
		}
	}
	for _, s := range sessions {
		i := int(s.StartTime.UTC().Sub(weekStart).Hours() / 24)
		if i < 0 || i > 6 {
			continue
		}
		days[i].Minutes += s.ActualMinutes
		days[i].Sessions++
		relSums[i] += s.TopicRelevanceScore
	}
	for i := range days {
		days[i].Minutes = round1(days[i].Minutes)
		if days[i].Sessions > 0 {
			days[i].AvgRelevance = round1(relSums[i] / float64(days[i].Sessions))
		}
	}
	return days
}

// Topics aggregates any session slice per topic, sorted by minutes
// descending. Callers use it for all-time views; Build uses the same
// aggregation for the week.
func Topics(cfg Config, sessions []*models.Session) []models.TopicStat {
	return topicStats(cfg, sessions)
}

// topicStats aggregates per topic, sorted by minutes descending with
// alphabetical tie-breaks for deterministic output.
func topicStats(cfg Config, sessions []*models.Session) []models.TopicStat {
	type acc struct {
		minutes float64
		count   int
		relSum  float64
		issues  int
	}
	byTopic := make(map[string]*acc)
	for _, s := range sessions {
		a := byTopic[s.Topic]
		if a == nil {
			a = &acc{}
			byTopic[s.Topic] = a
		}
		a.minutes += s.ActualMinutes
		a.count++
		a.relSum += s.TopicRelevanceScore
		a.issues += s.IssueCount()
	}

	stats := make([]models.TopicStat, 0, len(byTopic))
	for topic, a := range byTopic {
		avg := round1(a.relSum / float64(a.count))
		stats = append(stats, models.TopicStat{
			Topic:         topic,
			Minutes:       round1(a.minutes),
			Sessions:      a.count,
			AvgRelevance:  avg,
			Issues:        a.issues,
			Understanding: understanding(cfg, avg),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Minutes != stats[j].Minutes {
			return stats[i].Minutes > stats[j].Minutes
		}
		return stats[i].Topic < stats[j].Topic
	})
	return stats
}

func understanding(cfg Config, avgRelevance float64) models.Understanding {
	switch {
	case avgRelevance >= cfg.UnderstandingGoodMin:
		return models.UnderstandingGood
	case avgRelevance >= cfg.UnderstandingMediumMin:
		return models.UnderstandingMedium
	default:
		return models.UnderstandingLow
	}
}

// durationBuckets always returns the three buckets in short/medium/long
// order, zero-filled when empty.
func durationBuckets(cfg Config, sessions []*models.Session) []models.DurationBucket {
	buckets := []models.DurationBucket{
		{Label: "short"},
		{Label: "medium"},
		{Label: "long"},
	}
	relSums := make([]float64, 3)
	for _, s := range sessions {
		i := 2
		switch {
		case s.ActualMinutes <= cfg.ShortMaxMinutes:
			i = 0
		case s.ActualMinutes <= cfg.MediumMaxMinutes:
			i = 1
		}
		buckets[i].Sessions++
		relSums[i] += s.TopicRelevanceScore
	}
	for i := range buckets {
		if buckets[i].Sessions > 0 {
			buckets[i].AvgRelevance = round1(relSums[i] / float64(buckets[i].Sessions))
		}
	}
	return buckets
}

// optimalBucket picks the bucket with the highest average relevance.
// Ties go to the bucket with more sessions, then to the shorter one.
func optimalBucket(buckets []models.DurationBucket) string {
	best := -1
	for i, b := range buckets {
		if b.Sessions == 0 {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		bb := buckets[best]
		if b.AvgRelevance > bb.AvgRelevance ||
			(b.AvgRelevance == bb.AvgRelevance && b.Sessions > bb.Sessions) {
			best = i
		}
	}
	if best == -1 {
		return ""
	}
	return buckets[best].Label
}

// problemAreas ranks topics by issue count descending, alphabetical on
// ties.
func problemAreas(cfg Config, topics []models.TopicStat) []models.ProblemArea {
	var areas []models.ProblemArea
	for _, t := range topics {
		if t.Issues < cfg.ProblemMinIssues {
			continue
		}
		priority := models.PriorityMedium
		if t.Issues >= cfg.ProblemHighIssues {
			priority = models.PriorityHigh
		}
		areas = append(areas, models.ProblemArea{
			Topic:    t.Topic,
			Issues:   t.Issues,
			Priority: priority,
		})
	}
	sort.Slice(areas, func(i, j int) bool {
		if areas[i].Issues != areas[j].Issues {
			return areas[i].Issues > areas[j].Issues
		}
		return areas[i].Topic < areas[j].Topic
	})
	return areas
}

// weeklyScore combines time invested, relevance, and session count, minus
// an issue penalty, clamped to 0-100.
func weeklyScore(cfg Config, o models.WeekOverview) float64 {
	timeComponent := math.Min(40, o.TotalMinutes/cfg.TargetWeeklyMinutes*40)
	relComponent := o.AvgRelevance / 100 * 40
	countComponent := math.Min(20, float64(o.Sessions)*4)
	score := timeComponent + relComponent + countComponent - float64(o.Issues)*5
	return round1(math.Max(0, math.Min(100, score)))
}

func grade(g GradeCutoffs, score float64) string {
	switch {
	case score >= g.APlus:
		return "A+"
	case score >= g.A:
		return "A"
	case score >= g.B:
		return "B"
	case score >= g.C:
		return "C"
	case score >= g.D:
		return "D"
	default:
		return "F"
	}
}

// currentStreak counts consecutive days with at least one session, walking
// backward from the reference date inclusive. The first gap day stops the
// count.
func currentStreak(sessions []*models.Session, reference time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.StartTime.UTC().Format("2006-01-02")] = true
	}

	ref := reference.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// recommendations emits up to three deterministic suggestions, most
// actionable first.
func recommendations(cfg Config, problems []models.ProblemArea, optimal string, streak, sessions int) []string {
	var recs []string
	if len(problems) > 0 {
		recs = append(recs, fmt.Sprintf("Revisit '%s' with a short, focused session", problems[0].Topic))
	}
	if optimal != "" {
		recs = append(recs, fmt.Sprintf("Your best sessions run %s; plan around that length", BucketPhrase(cfg, optimal)))
	}
	if streak >= 3 {
		recs = append(recs, fmt.Sprintf("%d-day streak. Keep it alive with even a short session", streak))
	}
	if sessions < 3 {
		recs = append(recs, "Log more sessions to sharpen this report")
	}
	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

// BucketPhrase renders a bucket label with its minute range.
func BucketPhrase(cfg Config, label string) string {
	switch label {
	case "short":
		return fmt.Sprintf("under %.0f minutes", cfg.ShortMaxMinutes)
	case "medium":
		return fmt.Sprintf("%.0f-%.0f minutes", cfg.ShortMaxMinutes, cfg.MediumMaxMinutes)
	default:
		return fmt.Sprintf("over %.0f minutes", cfg.MediumMaxMinutes)
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
