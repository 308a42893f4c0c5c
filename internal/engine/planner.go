package engine

import (
	"fmt"
	"strings"
)

const maxRevisionTasks = 3

// revisionTasks derives 1-3 concrete follow-up tasks from the detector
// verdicts. Templates are checked in priority order; the drift and
// overconfidence tasks displace the lighter-touch ones.
func (e *Engine) revisionTasks(topic string, drift driftResult, over overconfidenceResult, notes []string) []string {
	var tasks []string

	if drift.Detected {
		tasks = append(tasks,
			fmt.Sprintf("Re-study %s with one specific question in mind", topic),
			fmt.Sprintf("Write a one-paragraph summary of %s in your own words", topic),
		)
	}
	if over.Detected && len(tasks) < maxRevisionTasks {
		tasks = append(tasks,
			fmt.Sprintf("Close your materials and write down everything you remember about %s", topic),
			fmt.Sprintf("Explain %s out loud without looking at notes", topic),
		)
	}
	if !drift.Detected && !over.Detected {
		tasks = append(tasks, fmt.Sprintf("Review your notes on %s once more", topic))
	}

	if len(tasks) < maxRevisionTasks && shortestNoteWords(notes) < e.cfg.ShortNoteWords {
		tasks = append(tasks, "Expand your shortest note with a concrete example")
	}
	if len(tasks) < maxRevisionTasks && drift.Relevance >= 60 {
		tasks = append(tasks, fmt.Sprintf("Quiz yourself on %s tomorrow", topic))
	}
	if len(tasks) < maxRevisionTasks && len(notes) >= 3 {
		tasks = append(tasks, "Draw a diagram connecting the concepts from this session")
	}

	if len(tasks) == 0 {
		tasks = append(tasks, fmt.Sprintf("Review your notes on %s and add one new insight", topic))
	}
	if len(tasks) > maxRevisionTasks {
		tasks = tasks[:maxRevisionTasks]
	}
	return tasks
}

// shortestNoteWords returns the word count of the shortest note, or a
// large value when there are no notes so the expansion task stays quiet.
func shortestNoteWords(notes []string) int {
	if len(notes) == 0 {
		return 1 << 30
	}
	shortest := 1 << 30
	for _, n := range notes {
		if w := len(strings.Fields(n)); w < shortest {
			shortest = w
		}
	}
	return shortest
}

// nextSessionPlan picks one recommendation from a fixed decision ladder.
// Earlier branches address the most urgent problem first.
func (e *Engine) nextSessionPlan(topic string, drift driftResult, over overconfidenceResult, actualMinutes float64, timesStudied int) string {
	switch {
	case drift.Detected || drift.Relevance < 50:
		return fmt.Sprintf("Restart %s with a 15-minute focused session. Write down one specific question you want answered", topic)
	case over.Detected:
		return fmt.Sprintf("Begin with a 5-minute recall test on %s before opening any materials", topic)
	case timesStudied >= 3 && drift.Relevance >= 70:
		return fmt.Sprintf("Move from reviewing %s to practicing it. Solve problems or teach it to someone", topic)
	case actualMinutes < 20 && drift.Relevance >= 60:
		return fmt.Sprintf("Extend your next %s session to 25-30 minutes to build depth", topic)
	case drift.Relevance >= 80:
		return fmt.Sprintf("Connect %s to an adjacent concept and study how they interact", topic)
	default:
		return fmt.Sprintf("Focus on why %s works the way it does. Collect concrete examples", topic)
	}
}

// localSummary builds the deterministic session summary: the first words
// of up to three notes.
func localSummary(notes []string) string {
	if len(notes) == 0 {
		return "No notes recorded."
	}
	const (
		maxParts = 3
		maxWords = 12
	)
	parts := make([]string, 0, maxParts)
	for _, n := range notes {
		if len(parts) == maxParts {
			break
		}
		words := strings.Fields(n)
		if len(words) > maxWords {
			words = words[:maxWords]
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return "Covered: " + strings.Join(parts, "; ") + "."
}
