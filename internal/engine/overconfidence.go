package engine

import "fmt"

// Passive markers describe consuming content; active markers describe
// processing it. The split is intentionally permissive: a false positive
// only costs the student a recall exercise.
var (
	passiveWords = []string{
		"watched", "saw", "video", "lecture", "tutorial",
		"read", "reading", "article", "chapter", "book",
	}
	activeWords = []string{
		"learned", "understood", "understand", "realized", "discovered",
		"practiced", "solved", "implemented", "applied",
		"because", "therefore", "example", "specifically",
	}
	activePhrases = []string{"means that", "so that", "such as"}
)

type overconfidenceResult struct {
	PassiveCount  int
	ActiveCount   int
	Detected      bool
	Details       string
	ConfidenceGap float64
}

// detectOverconfidence flags sessions whose notes describe content without
// evidence of processing it, or whose notes are too thin for the time
// spent. The marker signal wins when both fire.
func (e *Engine) detectOverconfidence(actualMinutes float64, noteTokens []string) overconfidenceResult {
	r := overconfidenceResult{
		PassiveCount: countTokenHits(noteTokens, passiveWords),
		ActiveCount:  countTokenHits(noteTokens, activeWords) + countPhraseHits(noteTokens, activePhrases),
	}

	switch {
	case r.PassiveCount > 0 && r.ActiveCount == 0:
		r.Detected = true
		r.Details = "Notes describe content, not understanding"
		r.ConfidenceGap = e.cfg.MarkerConfidenceGap
	case actualMinutes > e.cfg.LongSessionMinutes && len(noteTokens) < e.cfg.SparseNoteTokenMin:
		r.Detected = true
		r.Details = fmt.Sprintf("%.0f minutes studied but notes capture only %d words", actualMinutes, len(noteTokens))
		r.ConfidenceGap = e.cfg.SparseConfidenceGap
	}
	return r
}
