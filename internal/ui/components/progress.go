package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int

	// Suffix replaces the percentage on the right, e.g. a countdown.
	Suffix string

	// Warning switches the fill to the accent color.
	Warning bool
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result = theme.Body.Render(p.Label) + "  "
	}

	suffix := p.Suffix
	if suffix == "" {
		suffix = fmt.Sprintf("%d%%", int(p.Percent*100))
	}
	suffix = "  " + suffix

	barWidth := max(p.Width-lipgloss.Width(result)-lipgloss.Width(suffix), 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	fill := theme.ProgressFilled
	if p.Warning {
		fill = theme.ProgressWarning
	}
	result += fill.Render(strings.Repeat(" ", filled))
	result += theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	suffixStyle := theme.Hint
	if p.Warning {
		suffixStyle = theme.Warning
	}
	return result + suffixStyle.Render(suffix)
}
