package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbecker/study/internal/models"
)

// stubEnhancer records the request it was given and returns a canned result.
type stubEnhancer struct {
	enh     *Enhancement
	err     error
	calls   int
	lastReq EnhanceRequest
}

func (s *stubEnhancer) Enhance(_ context.Context, req EnhanceRequest) (*Enhancement, error) {
	s.calls++
	s.lastReq = req
	return s.enh, s.err
}

func baseInput() Input {
	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	return Input{
		Topic:          "Binary Search",
		PlannedMinutes: 25,
		ActualMinutes:  25,
		StartTime:      start,
		EndTime:        start.Add(25 * time.Minute),
		Notes:          []string{"solved three binary search problems on sorted arrays"},
	}
}

func TestAnalyze_DriftAndOverconfidence(t *testing.T) {
	e := New(DefaultConfig(), nil)

	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	in := Input{
		Topic:          "Binary Search Trees",
		PlannedMinutes: 25,
		ActualMinutes:  24.5,
		StartTime:      start,
		EndTime:        start.Add(24*time.Minute + 30*time.Second),
		Notes:          []string{"Watched video about loops and functions"},
	}

	s, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, s.TopicDriftDetected)
	assert.Equal(t, 0.0, s.TopicRelevanceScore)
	assert.Equal(t, models.SeverityHigh, s.DriftSeverity)
	assert.Contains(t, s.DriftDetails, "low relevance")

	assert.True(t, s.OverconfidenceDetected)
	assert.Equal(t, "Notes describe content, not understanding", s.OverconfidenceDetails)
	assert.Equal(t, 0.7, s.ConfidenceGap)

	assert.False(t, s.Completed)
	assert.Equal(t, 67.1, s.FocusScore)
	assert.Len(t, s.RevisionTasks, 3)
	assert.Contains(t, s.NextSessionPlan, "Restart Binary Search Trees")
	assert.Equal(t, "Covered: Watched video about loops and functions.", s.AISummary)
	assert.Contains(t, s.FocusFeedback, "Room to improve")
}

func TestAnalyze_FocusedSession(t *testing.T) {
	e := New(DefaultConfig(), nil)

	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	in := Input{
		Topic:          "Binary Search",
		PlannedMinutes: 25,
		ActualMinutes:  25,
		StartTime:      start,
		EndTime:        start.Add(25 * time.Minute),
		Notes: []string{
			"Learned that binary search requires a sorted array because it halves the space each step",
			"Therefore the time complexity is O(log n)",
		},
	}

	s, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, s.TopicDriftDetected)
	assert.Equal(t, 100.0, s.TopicRelevanceScore)
	assert.Empty(t, s.DriftDetails)

	assert.False(t, s.OverconfidenceDetected)
	assert.Zero(t, s.ConfidenceGap)

	assert.True(t, s.Completed)
	assert.Greater(t, s.FocusScore, 60.0)
	assert.LessOrEqual(t, s.FocusScore, 100.0)
	assert.NotEmpty(t, s.RevisionTasks)
	assert.NotEmpty(t, s.NextSessionPlan)
}

func TestAnalyze_BlankNotesDropped(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in := baseInput()
	in.Notes = []string{"", "   ", "\t"}

	s, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, s.Notes)
	assert.True(t, s.TopicDriftDetected)
	assert.Equal(t, 0.0, s.TopicRelevanceScore)
	assert.Equal(t, models.SeverityHigh, s.DriftSeverity)
	assert.Contains(t, s.DriftDetails, "No notes were recorded")
	assert.Equal(t, "No notes recorded.", s.AISummary)
	assert.NotEmpty(t, s.RevisionTasks)
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in := baseInput()
	in.SelfRating = intp(4)
	in.Breaks = []models.Break{{
		StartTime: in.StartTime.Add(10 * time.Minute),
		EndTime:   in.StartTime.Add(12 * time.Minute),
	}}

	first, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyze_TrimsTopicAndNotes(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in := baseInput()
	in.Topic = "  Binary Search  "
	in.Notes = []string{"  solved three practice problems  ", ""}

	s, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Binary Search", s.Topic)
	assert.Equal(t, []string{"solved three practice problems"}, s.Notes)
}

func TestAnalyze_NormalizesBreakDurations(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in := baseInput()
	in.Breaks = []models.Break{{
		StartTime: in.StartTime.Add(5 * time.Minute),
		EndTime:   in.StartTime.Add(7 * time.Minute),
	}}

	s, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, s.Breaks, 1)
	assert.Equal(t, 120.0, s.Breaks[0].DurationSeconds)
}

func TestAnalyze_EnhancerSuccess(t *testing.T) {
	stub := &stubEnhancer{enh: &Enhancement{
		Summary:  "Worked through binary search fundamentals.",
		Feedback: "Strong pacing; keep sessions at this length.",
	}}
	e := New(DefaultConfig(), stub)

	s, err := e.Analyze(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "Worked through binary search fundamentals.", s.AISummary)
	assert.Equal(t, "Strong pacing; keep sessions at this length.", s.FocusFeedback)

	assert.Equal(t, "Binary Search", stub.lastReq.Topic)
	assert.Equal(t, 25.0, stub.lastReq.PlannedMinutes)
	assert.Equal(t, s.FocusScore, stub.lastReq.FocusScore)
	assert.Equal(t, s.TopicRelevanceScore, stub.lastReq.RelevanceScore)
}

func TestAnalyze_EnhancerFailureFallsBack(t *testing.T) {
	stub := &stubEnhancer{err: errors.New("api unavailable")}
	e := New(DefaultConfig(), stub)

	s, err := e.Analyze(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "Covered: solved three binary search problems on sorted arrays.", s.AISummary)
	assert.NotEmpty(t, s.FocusFeedback)
}

func TestAnalyze_EnhancerPartialResult(t *testing.T) {
	stub := &stubEnhancer{enh: &Enhancement{Feedback: "Try a recall test first."}}
	e := New(DefaultConfig(), stub)

	s, err := e.Analyze(context.Background(), baseInput())
	require.NoError(t, err)

	// Only the provided field is replaced; the summary keeps the template.
	assert.Equal(t, "Covered: solved three binary search problems on sorted arrays.", s.AISummary)
	assert.Equal(t, "Try a recall test first.", s.FocusFeedback)
}

func TestAnalyze_EnhancerNilResult(t *testing.T) {
	stub := &stubEnhancer{}
	e := New(DefaultConfig(), stub)

	s, err := e.Analyze(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, "Covered: solved three binary search problems on sorted arrays.", s.AISummary)
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	valid := func() Input {
		return Input{
			Topic:          "Graphs",
			PlannedMinutes: 30,
			ActualMinutes:  30,
			StartTime:      start,
			EndTime:        end,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"valid input", func(in *Input) {}, ""},
		{"valid rating low", func(in *Input) { in.SelfRating = intp(1) }, ""},
		{"valid rating high", func(in *Input) { in.SelfRating = intp(5) }, ""},
		{"empty topic", func(in *Input) { in.Topic = "   " }, "topic"},
		{"zero planned", func(in *Input) { in.PlannedMinutes = 0 }, "planned_minutes"},
		{"negative actual", func(in *Input) { in.ActualMinutes = -1 }, "actual_minutes"},
		{"zero start", func(in *Input) { in.StartTime = time.Time{} }, "start_time"},
		{"zero end", func(in *Input) { in.EndTime = time.Time{} }, "end_time"},
		{"end before start", func(in *Input) { in.EndTime = start.Add(-time.Minute) }, "end_time"},
		{"too many notes", func(in *Input) {
			in.Notes = []string{"a", "b", "c", "d", "e", "f"}
		}, "notes"},
		{"rating too low", func(in *Input) { in.SelfRating = intp(0) }, "self_rating"},
		{"rating too high", func(in *Input) { in.SelfRating = intp(6) }, "self_rating"},
		{"break ends before it starts", func(in *Input) {
			in.Breaks = []models.Break{{StartTime: start.Add(10 * time.Minute), EndTime: start.Add(5 * time.Minute)}}
		}, "breaks"},
		{"break outside session", func(in *Input) {
			in.Breaks = []models.Break{{StartTime: start.Add(-5 * time.Minute), EndTime: start.Add(5 * time.Minute)}}
		}, "breaks"},
		{"breaks overlap", func(in *Input) {
			in.Breaks = []models.Break{
				{StartTime: start.Add(5 * time.Minute), EndTime: start.Add(10 * time.Minute)},
				{StartTime: start.Add(8 * time.Minute), EndTime: start.Add(12 * time.Minute)},
			}
		}, "breaks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			err := Validate(in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestAnalyze_RejectsInvalidInput(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in := baseInput()
	in.Topic = ""

	s, err := e.Analyze(context.Background(), in)
	assert.Nil(t, s)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "topic", verr.Field)
	assert.Equal(t, "invalid topic: must not be empty", verr.Error())
}
