package engine

import (
	"math"

	"github.com/mbecker/study/internal/models"
)

// Internal targets for the consistency and retention factors. These shape
// the curve inside a factor rather than its weight, so they stay fixed.
const (
	consistencyFullDays = 5  // studying 5 of the last 7 days maxes the factor
	retentionNoteTarget = 3  // notes per session
	retentionWordTarget = 12 // average words per note
)

// focusBreakdown holds each normalized factor (0-1) and the weighted total.
type focusBreakdown struct {
	Completion  float64
	Distraction float64
	SelfRating  float64
	TimeOfDay   float64
	Consistency float64
	Retention   float64
	Total       float64 // 0-100
}

// scoreFocus combines the six factors into a 0-100 score using the
// configured weights.
func (e *Engine) scoreFocus(in Input, noteCount, noteTokenCount, activeHits int) *focusBreakdown {
	f := &focusBreakdown{}

	f.Completion = math.Min(1, in.ActualMinutes/in.PlannedMinutes)
	f.Distraction = scoreDistraction(in.Breaks, in.ActualMinutes)

	f.SelfRating = e.cfg.NeutralSelfRating
	if in.SelfRating != nil {
		f.SelfRating = float64(*in.SelfRating-1) / 4
	}

	f.TimeOfDay = scoreTimeOfDay(in.StartTime.Hour())
	f.Consistency = math.Min(1, float64(in.RecentActiveDays)/consistencyFullDays)
	f.Retention = scoreRetention(noteCount, noteTokenCount, activeHits)

	w := e.cfg.Weights
	total := 100 * (w.Completion*f.Completion +
		w.Distraction*f.Distraction +
		w.SelfRating*f.SelfRating +
		w.TimeOfDay*f.TimeOfDay +
		w.Consistency*f.Consistency +
		w.Retention*f.Retention)
	f.Total = round1(clamp(total, 0, 100))
	return f
}

// scoreDistraction converts break count and total break time into a 0-1
// factor. More breaks lower the base; time lost on break scales it down.
func scoreDistraction(breaks []models.Break, actualMinutes float64) float64 {
	var base float64
	switch n := len(breaks); {
	case n == 0:
		base = 1.0
	case n <= 2:
		base = 0.8
	case n <= 4:
		base = 0.5
	default:
		base = 0.3
	}

	if actualMinutes <= 0 {
		return base
	}
	var breakSecs float64
	for _, b := range breaks {
		breakSecs += b.EndTime.Sub(b.StartTime).Seconds()
	}
	return base * (1 - math.Min(1, breakSecs/(actualMinutes*60)))
}

// scoreTimeOfDay maps the start hour to a bucket score. Mornings score
// highest; late-night sessions lowest.
func scoreTimeOfDay(hour int) float64 {
	switch {
	case hour >= 5 && hour <= 11:
		return 1.0
	case hour >= 12 && hour <= 16:
		return 0.8
	case hour >= 17 && hour <= 21:
		return 0.9
	default:
		return 0.6
	}
}

// scoreRetention rewards note count, note length, and the presence of
// active-processing language.
func scoreRetention(noteCount, tokenCount, activeHits int) float64 {
	if noteCount == 0 {
		return 0
	}
	avgWords := float64(tokenCount) / float64(noteCount)
	score := 0.4*math.Min(1, float64(noteCount)/retentionNoteTarget) +
		0.4*math.Min(1, avgWords/retentionWordTarget)
	if activeHits > 0 {
		score += 0.2
	}
	return math.Min(1, score)
}

// Feedback brackets for the focus score.
const (
	feedbackGreatMin = 80
	feedbackRoomMin  = 50
)

func focusFeedback(score float64) string {
	switch {
	case score >= feedbackGreatMin:
		return "Great time management and focus. Keep this rhythm going."
	case score >= feedbackRoomMin:
		return "Room to improve: tighten up breaks and recap what you learned at the end."
	default:
		return "Consider shorter, more active sessions with one clear goal."
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
