package engine

import (
	"fmt"
	"math"

	"github.com/mbecker/study/internal/models"
)

// Vague wording that lowers confidence in the notes regardless of topic
// overlap. Single words are matched per token, phrases per word sequence.
var (
	vagueWords   = []string{"stuff", "things", "something", "whatever", "etc", "basically"}
	vaguePhrases = []string{"and more", "pretty much", "kind of"}
)

type driftResult struct {
	Relevance  float64
	VagueCount int
	Detected   bool
	Details    string
	Severity   models.Severity
}

// detectDrift compares topic vocabulary against note vocabulary. The
// relevance score is the share of distinct topic words that appear in the
// notes, scaled to 0-100. A score at the threshold counts as drift.
func (e *Engine) detectDrift(topic string, noteTokens []string) driftResult {
	if len(noteTokens) == 0 {
		return driftResult{
			Relevance: 0,
			Detected:  true,
			Details:   "No notes were recorded for this session",
			Severity:  models.SeverityHigh,
		}
	}

	topicSet := TokenSet(topic)
	relevance := 0.0
	if len(topicSet) > 0 {
		hits := 0
		noteSet := make(map[string]struct{}, len(noteTokens))
		for _, tok := range noteTokens {
			noteSet[tok] = struct{}{}
		}
		for word := range topicSet {
			if _, ok := noteSet[word]; ok {
				hits++
			}
		}
		relevance = round1(float64(hits) / float64(len(topicSet)) * 100)
	}

	vague := countTokenHits(noteTokens, vagueWords) + countPhraseHits(noteTokens, vaguePhrases)

	r := driftResult{
		Relevance:  relevance,
		VagueCount: vague,
	}

	lowRelevance := relevance <= e.cfg.DriftRelevanceThreshold
	tooVague := vague >= e.cfg.VagueCountThreshold
	if !lowRelevance && !tooVague {
		return r
	}

	r.Detected = true
	switch {
	case relevance < e.cfg.SeverityHighBelow:
		r.Severity = models.SeverityHigh
	case relevance < e.cfg.SeverityMediumBelow:
		r.Severity = models.SeverityMedium
	default:
		r.Severity = models.SeverityLow
	}

	if lowRelevance {
		r.Details = fmt.Sprintf("Notes show low relevance (%.0f%%) to stated topic '%s'", relevance, topic)
	} else {
		r.Details = fmt.Sprintf("Notes lean on vague wording (%d vague phrases)", vague)
	}
	return r
}

// round1 rounds to one decimal place so scores are stable across runs.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
