package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbecker/study/internal/models"
)

// mkSession builds an analyzed session with the fields the aggregations
// read. issues marks drift at 1 and both detectors at 2.
func mkSession(topic string, start time.Time, minutes, relevance float64, issues int) *models.Session {
	return &models.Session{
		Topic:                  topic,
		PlannedMinutes:         minutes,
		ActualMinutes:          minutes,
		StartTime:              start,
		EndTime:                start.Add(time.Duration(minutes) * time.Minute),
		TopicRelevanceScore:    relevance,
		FocusScore:             70,
		TopicDriftDetected:     issues >= 1,
		OverconfidenceDetected: issues >= 2,
	}
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
}

func TestMondayOf(t *testing.T) {
	// 2026-08-20 is a Thursday.
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), mondayOf(day(20, 14)))
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), mondayOf(day(17, 0)))
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), mondayOf(day(23, 23)))
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), mondayOf(day(24, 0)))
}

func TestGrade(t *testing.T) {
	g := DefaultConfig().Grades

	tests := []struct {
		score float64
		want  string
	}{
		{90, "A+"},
		{89.99, "A"},
		{80, "A"},
		{79.99, "B"},
		{70, "B"},
		{60, "C"},
		{50, "D"},
		{49.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grade(g, tt.score), "score %.2f", tt.score)
	}
}

func TestCurrentStreak(t *testing.T) {
	// 2026-08-21 is a Friday.
	friday := day(21, 18)

	consecutive := []*models.Session{
		mkSession("a", day(21, 9), 25, 80, 0),
		mkSession("a", day(20, 9), 25, 80, 0),
		mkSession("a", day(19, 9), 25, 80, 0),
	}
	assert.Equal(t, 3, currentStreak(consecutive, friday))

	gapped := []*models.Session{
		mkSession("a", day(21, 9), 25, 80, 0),
		mkSession("a", day(19, 9), 25, 80, 0),
	}
	assert.Equal(t, 1, currentStreak(gapped, friday))

	assert.Equal(t, 0, currentStreak(nil, friday))

	noneToday := []*models.Session{mkSession("a", day(19, 9), 25, 80, 0)}
	assert.Equal(t, 0, currentStreak(noneToday, friday))
}

func TestBuild_Empty(t *testing.T) {
	r := Build(DefaultConfig(), nil, day(20, 12))

	assert.Equal(t, "2026-08-17", r.PeriodStart)
	assert.Equal(t, "2026-08-23", r.PeriodEnd)
	assert.Zero(t, r.ThisWeek.Sessions)
	assert.Zero(t, r.ThisWeek.TotalMinutes)
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, "F", r.Grade)
	assert.Empty(t, r.Topics)
	assert.Empty(t, r.ProblemAreas)
	assert.Equal(t, "", r.OptimalDuration)
	assert.Zero(t, r.Streak)

	require.Len(t, r.Daily, 7)
	assert.Equal(t, "Mon", r.Daily[0].Day)
	assert.Equal(t, "Sun", r.Daily[6].Day)
	assert.Equal(t, "2026-08-17", r.Daily[0].Date)
	for _, d := range r.Daily {
		assert.Zero(t, d.Sessions)
		assert.Zero(t, d.Minutes)
	}

	require.Len(t, r.Buckets, 3)
	assert.Equal(t, []string{"short", "medium", "long"},
		[]string{r.Buckets[0].Label, r.Buckets[1].Label, r.Buckets[2].Label})

	assert.Equal(t, []string{"Log more sessions to sharpen this report"}, r.Recommendations)
}

func TestBuild_SplitsWeeks(t *testing.T) {
	sessions := []*models.Session{
		mkSession("algebra", day(20, 9), 30, 80, 0),  // this week (Thu)
		mkSession("algebra", day(13, 9), 20, 60, 0),  // last week
		mkSession("algebra", day(1, 9), 45, 90, 0),   // older, streak-only
		mkSession("algebra", day(24, 0), 25, 100, 0), // next Monday, outside
	}

	r := Build(DefaultConfig(), sessions, day(20, 12))

	assert.Equal(t, 1, r.ThisWeek.Sessions)
	assert.Equal(t, 30.0, r.ThisWeek.TotalMinutes)
	assert.Equal(t, 80.0, r.ThisWeek.AvgRelevance)
	assert.Equal(t, 1, r.LastWeek.Sessions)
	assert.Equal(t, 20.0, r.LastWeek.TotalMinutes)
	assert.Equal(t, 10.0, r.TimeChange)
	assert.Equal(t, 0, r.SessionsChange)

	// Only this week's sessions feed the topic table.
	require.Len(t, r.Topics, 1)
	assert.Equal(t, 30.0, r.Topics[0].Minutes)
}

func TestBuild_DailyBreakdown(t *testing.T) {
	sessions := []*models.Session{
		mkSession("algebra", day(17, 9), 25, 80, 0),  // Monday
		mkSession("algebra", day(17, 15), 35, 60, 0), // Monday again
		mkSession("chem", day(19, 9), 40, 90, 0),     // Wednesday
	}

	r := Build(DefaultConfig(), sessions, day(20, 12))
	require.Len(t, r.Daily, 7)

	mon := r.Daily[0]
	assert.Equal(t, 60.0, mon.Minutes)
	assert.Equal(t, 2, mon.Sessions)
	assert.Equal(t, 70.0, mon.AvgRelevance)

	wed := r.Daily[2]
	assert.Equal(t, 40.0, wed.Minutes)
	assert.Equal(t, 1, wed.Sessions)

	assert.Zero(t, r.Daily[1].Sessions)
	assert.Zero(t, r.Daily[6].Sessions)
}

func TestTopics_SortedByMinutes(t *testing.T) {
	sessions := []*models.Session{
		mkSession("chem", day(17, 9), 30, 85, 0),
		mkSession("algebra", day(18, 9), 50, 55, 1),
		mkSession("biology", day(19, 9), 30, 20, 2),
	}

	topics := Topics(DefaultConfig(), sessions)
	require.Len(t, topics, 3)

	// Minutes descending, alphabetical on ties.
	assert.Equal(t, "algebra", topics[0].Topic)
	assert.Equal(t, "biology", topics[1].Topic)
	assert.Equal(t, "chem", topics[2].Topic)

	assert.Equal(t, models.UnderstandingMedium, topics[0].Understanding)
	assert.Equal(t, models.UnderstandingLow, topics[1].Understanding)
	assert.Equal(t, models.UnderstandingGood, topics[2].Understanding)

	assert.Equal(t, 1, topics[0].Issues)
	assert.Equal(t, 2, topics[1].Issues)
	assert.Equal(t, 0, topics[2].Issues)
}

func TestDurationBuckets(t *testing.T) {
	cfg := DefaultConfig()
	sessions := []*models.Session{
		mkSession("a", day(17, 9), 20, 40, 0), // short boundary
		mkSession("a", day(17, 10), 21, 80, 0),
		mkSession("a", day(17, 11), 35, 60, 0), // medium boundary
		mkSession("a", day(17, 12), 36, 90, 0),
	}

	buckets := durationBuckets(cfg, sessions)
	require.Len(t, buckets, 3)

	assert.Equal(t, 1, buckets[0].Sessions)
	assert.Equal(t, 40.0, buckets[0].AvgRelevance)
	assert.Equal(t, 2, buckets[1].Sessions)
	assert.Equal(t, 70.0, buckets[1].AvgRelevance)
	assert.Equal(t, 1, buckets[2].Sessions)
	assert.Equal(t, 90.0, buckets[2].AvgRelevance)
}

func TestOptimalBucket(t *testing.T) {
	assert.Equal(t, "", optimalBucket([]models.DurationBucket{
		{Label: "short"}, {Label: "medium"}, {Label: "long"},
	}))

	assert.Equal(t, "long", optimalBucket([]models.DurationBucket{
		{Label: "short", Sessions: 2, AvgRelevance: 50},
		{Label: "medium", Sessions: 1, AvgRelevance: 60},
		{Label: "long", Sessions: 1, AvgRelevance: 90},
	}))

	// Relevance tie goes to the busier bucket.
	assert.Equal(t, "medium", optimalBucket([]models.DurationBucket{
		{Label: "short", Sessions: 1, AvgRelevance: 70},
		{Label: "medium", Sessions: 3, AvgRelevance: 70},
		{Label: "long"},
	}))

	// Full tie keeps the earlier, shorter bucket.
	assert.Equal(t, "short", optimalBucket([]models.DurationBucket{
		{Label: "short", Sessions: 2, AvgRelevance: 70},
		{Label: "medium", Sessions: 2, AvgRelevance: 70},
		{Label: "long"},
	}))
}

func TestProblemAreas(t *testing.T) {
	cfg := DefaultConfig()
	topics := []models.TopicStat{
		{Topic: "clean", Issues: 0},
		{Topic: "beta", Issues: 2},
		{Topic: "alpha", Issues: 2},
		{Topic: "gamma", Issues: 4},
	}

	areas := problemAreas(cfg, topics)
	require.Len(t, areas, 3)

	assert.Equal(t, "gamma", areas[0].Topic)
	assert.Equal(t, models.PriorityHigh, areas[0].Priority)
	assert.Equal(t, "alpha", areas[1].Topic)
	assert.Equal(t, models.PriorityMedium, areas[1].Priority)
	assert.Equal(t, "beta", areas[2].Topic)
}

func TestWeeklyScore(t *testing.T) {
	cfg := DefaultConfig()

	perfect := models.WeekOverview{TotalMinutes: 300, AvgRelevance: 100, Sessions: 5}
	assert.Equal(t, 100.0, weeklyScore(cfg, perfect))

	mid := models.WeekOverview{TotalMinutes: 150, AvgRelevance: 50, Sessions: 2, Issues: 1}
	assert.Equal(t, 43.0, weeklyScore(cfg, mid))

	// Time and count components are capped.
	overshoot := models.WeekOverview{TotalMinutes: 900, AvgRelevance: 100, Sessions: 12}
	assert.Equal(t, 100.0, weeklyScore(cfg, overshoot))

	// Issue penalties cannot push the score below zero.
	sunk := models.WeekOverview{TotalMinutes: 30, AvgRelevance: 10, Sessions: 1, Issues: 10}
	assert.Equal(t, 0.0, weeklyScore(cfg, sunk))
}

func TestRecommendations(t *testing.T) {
	cfg := DefaultConfig()

	recs := recommendations(cfg, []models.ProblemArea{{Topic: "algebra", Issues: 2}}, "medium", 4, 2)
	require.Len(t, recs, 3)
	assert.Contains(t, recs[0], "Revisit 'algebra'")
	assert.Contains(t, recs[1], "20-35 minutes")
	assert.Contains(t, recs[2], "4-day streak")

	recs = recommendations(cfg, nil, "", 0, 1)
	assert.Equal(t, []string{"Log more sessions to sharpen this report"}, recs)
}

func TestBucketPhrase(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "under 20 minutes", BucketPhrase(cfg, "short"))
	assert.Equal(t, "20-35 minutes", BucketPhrase(cfg, "medium"))
	assert.Equal(t, "over 35 minutes", BucketPhrase(cfg, "long"))
}
