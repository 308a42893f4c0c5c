package engine

// FactorWeights holds the relative weight of each focus-score factor.
// The defaults sum to 1.0; callers who override them are responsible for
// keeping the sum sensible since the final score is clamped anyway.
type FactorWeights struct {
	Completion  float64
	Distraction float64
	SelfRating  float64
	TimeOfDay   float64
	Consistency float64
	Retention   float64
}

// Config carries every tunable constant of the analysis heuristics.
// Tests vary these without touching engine logic.
type Config struct {
	// Topic drift. A relevance score at or below the threshold counts as
	// drift, as does a vague-marker count at or above its threshold.
	DriftRelevanceThreshold float64
	VagueCountThreshold     int
	SeverityHighBelow       float64 // relevance below this is high severity
	SeverityMediumBelow     float64

	// Overconfidence. The sparse-notes signal only fires on sessions
	// longer than LongSessionMinutes.
	LongSessionMinutes  float64
	SparseNoteTokenMin  int
	MarkerConfidenceGap float64
	SparseConfidenceGap float64

	// Focus score.
	Weights           FactorWeights
	NeutralSelfRating float64 // used when no self-rating was given

	// Revision tasks: notes shorter than this many words prompt an
	// expansion task.
	ShortNoteWords int
}

// DefaultConfig returns the canonical constants.
func DefaultConfig() Config {
	return Config{
		DriftRelevanceThreshold: 50,
		VagueCountThreshold:     2,
		SeverityHighBelow:       40,
		SeverityMediumBelow:     60,

		LongSessionMinutes:  30,
		SparseNoteTokenMin:  20,
		MarkerConfidenceGap: 0.7,
		SparseConfidenceGap: 0.6,

		Weights: FactorWeights{
			Completion:  0.20,
			Distraction: 0.25,
			SelfRating:  0.15,
			TimeOfDay:   0.10,
			Consistency: 0.15,
			Retention:   0.15,
		},
		NeutralSelfRating: 0.5,

		ShortNoteWords: 8,
	}
}
