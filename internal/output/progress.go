package output

import (
	"fmt"
	"strings"
)

// Gauge renders a bar for a value in [0,1].
// Example: "████████░░ 0.80"
// When higherIsBetter is false the colors are inverted, so a full stress
// gauge shows red.
func Gauge(v float64, width int, higherIsBetter bool) string {
	if width <= 0 {
		width = 20
	}
	filled := min(max(int(v*float64(width)+0.5), 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	score := v
	if !higherIsBetter {
		score = 1 - v
	}
	style := StyleError
	switch {
	case score >= 0.7:
		style = StyleSuccess
	case score >= 0.4:
		style = StyleWarning
	}
	return fmt.Sprintf("%s %s", style.Render(bar), StyleMuted.Render(fmt.Sprintf("%.2f", v)))
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// The higherIsBetter parameter decides which direction is styled as good.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := isPositive == higherIsBetter

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
