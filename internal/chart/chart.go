// Package chart renders the ASCII bar charts, sparklines, and trend arrows
// used by the generated dashboards.
package chart

import (
	"math"
	"strings"
)

const (
	barFull  = "█"
	barEmpty = "░"
)

var sparkBlocks = []rune(" ▁▂▃▄▅▆▇█")

// Bar renders a filled progress bar of the given width.
func Bar(value, maxValue float64, width int) string {
	if maxValue <= 0 {
		return strings.Repeat(barEmpty, width)
	}
	ratio := value / maxValue
	if ratio > 1.0 {
		ratio = 1.0
	}
	filled := int(math.Round(ratio * float64(width)))
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
}

// Sparkline renders a compact unicode sparkline for a series of values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return "—"
	}
	maxV := 0.0
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v / maxV) * float64(len(sparkBlocks)-1)))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// TrendArrow returns ↑, ↓, or → based on the last two values in the series.
func TrendArrow(values []float64) string {
	if len(values) < 2 {
		return "→"
	}
	delta := values[len(values)-1] - values[len(values)-2]
	switch {
	case delta > 0.001:
		return "↑"
	case delta < -0.001:
		return "↓"
	default:
		return "→"
	}
}
