package report

import (
	"math"
	"strings"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// HorizontalBar renders value against maxVal as a fixed-width text bar.
func HorizontalBar(value, maxVal float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxVal > 0 {
		filled = int(math.Round(value / maxVal * float64(width)))
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline maps values onto eight block heights. Zero or negative values
// render as the lowest block.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if maxVal > 0 && v > 0 {
			i = int(math.Round(v / maxVal * float64(len(sparkLevels)-1)))
			if i < 0 {
				i = 0
			}
			if i >= len(sparkLevels) {
				i = len(sparkLevels) - 1
			}
		}
		b.WriteRune(sparkLevels[i])
	}
	return b.String()
}

// TrendArrow compares current against previous with a 5% stable band.
// A zero previous value has no meaningful trend and renders as stable.
func TrendArrow(current, previous float64) string {
	if previous == 0 {
		return "→"
	}
	change := (current - previous) / previous * 100
	switch {
	case change > 5:
		return "↑"
	case change < -5:
		return "↓"
	default:
		return "→"
	}
}
