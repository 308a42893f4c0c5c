package engine

import (
	"fmt"
	"strings"
)

const maxNotes = 5

// ValidationError reports malformed session input. Bad input is always
// surfaced, never coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks a session input against the data-model invariants.
func Validate(in Input) error {
	if strings.TrimSpace(in.Topic) == "" {
		return &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if in.PlannedMinutes <= 0 {
		return &ValidationError{Field: "planned_minutes", Reason: "must be positive"}
	}
	if in.ActualMinutes <= 0 {
		return &ValidationError{Field: "actual_minutes", Reason: "must be positive"}
	}
	if in.StartTime.IsZero() {
		return &ValidationError{Field: "start_time", Reason: "must be set"}
	}
	if in.EndTime.IsZero() {
		return &ValidationError{Field: "end_time", Reason: "must be set"}
	}
	if in.EndTime.Before(in.StartTime) {
		return &ValidationError{Field: "end_time", Reason: "must not be before start_time"}
	}
	if len(in.Notes) > maxNotes {
		return &ValidationError{Field: "notes", Reason: fmt.Sprintf("at most %d notes allowed", maxNotes)}
	}
	if in.SelfRating != nil && (*in.SelfRating < 1 || *in.SelfRating > 5) {
		return &ValidationError{Field: "self_rating", Reason: "must be between 1 and 5"}
	}

	for i, b := range in.Breaks {
		if b.EndTime.Before(b.StartTime) {
			return &ValidationError{Field: "breaks", Reason: fmt.Sprintf("break %d ends before it starts", i+1)}
		}
		if b.StartTime.Before(in.StartTime) || b.EndTime.After(in.EndTime) {
			return &ValidationError{Field: "breaks", Reason: fmt.Sprintf("break %d falls outside the session", i+1)}
		}
		if i > 0 && b.StartTime.Before(in.Breaks[i-1].EndTime) {
			return &ValidationError{Field: "breaks", Reason: fmt.Sprintf("break %d overlaps the previous break", i+1)}
		}
	}
	return nil
}
