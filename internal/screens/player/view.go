package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/progression"
	"github.com/abhisek/remediz/internal/ui/components"
	"github.com/abhisek/remediz/internal/ui/layout"
	"github.com/abhisek/remediz/internal/ui/theme"
)

func (p *PlayerScreen) View(width, height int) string {
	if p.machine == nil {
		return renderError(width, height, p.errMsg)
	}

	s := p.machine.Snapshot()
	if layout.IsCompactWidth(width) {
		return p.renderMain(s, width, height)
	}

	mainWidth := width - layout.SidebarWidth - 2
	sidebar := theme.Sidebar.
		Width(layout.SidebarWidth).
		Height(height).
		Render(p.renderQueue(s, layout.SidebarWidth-1, height))
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", p.renderMain(s, mainWidth, height))
}

// sidebarRow is one sidebar line: a heading, or a video at queue index idx.
type sidebarRow struct {
	heading string
	video   *catalog.Video
	idx     int
}

// sidebarRows lists lower-level catch-up videos first, then target-level
// videos grouped under the notion they teach.
func (p *PlayerScreen) sidebarRows() []sidebarRow {
	var rows []sidebarRow
	for i, v := range p.queue.Videos() {
		if p.queue.AtLevel(v) {
			continue
		}
		if len(rows) == 0 {
			rows = append(rows, sidebarRow{heading: "Catch-up"})
		}
		rows = append(rows, sidebarRow{video: v, idx: i})
	}
	for _, g := range p.queue.NotionGroups() {
		rows = append(rows, sidebarRow{heading: g.Skill})
		for _, v := range g.Videos {
			rows = append(rows, sidebarRow{video: v, idx: p.queue.Index(v.ID)})
		}
	}
	return rows
}

// renderQueue lists the queue by notion around the cursor with completion
// marks.
func (p *PlayerScreen) renderQueue(s progression.Snapshot, width, height int) string {
	all := p.sidebarRows()
	focus := 0
	for i, r := range all {
		if r.video != nil && r.idx == s.Index {
			focus = i
			break
		}
	}
	rows := max(height-2, 1)
	start := 0
	if len(all) > rows {
		start = min(max(focus-rows/2, 0), len(all)-rows)
	}
	end := min(start+rows, len(all))

	month := gate.MonthName(p.deps.Now())
	completed := p.machine.Completed()

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render("Queue"))
	b.WriteString("\n\n")
	for _, r := range all[start:end] {
		if r.video == nil {
			b.WriteString(theme.Hint.Render(truncate(r.heading, width)))
			b.WriteString("\n")
			continue
		}
		v := r.video
		label := truncate(videoLabel(v), width-4)
		if !p.queue.AtLevel(v) {
			label += " (" + v.Level + ")"
		}
		switch {
		case r.idx == s.Index:
			b.WriteString(theme.Selected.Render("▸ " + label))
		case completed.Has(v.ID):
			b.WriteString(theme.Done.Render("✓ " + label))
		case !p.gate.IsUnlocked(v, completed, month):
			b.WriteString(theme.Unavailable.Render("⊘ " + label))
		default:
			b.WriteString(theme.Unselected.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *PlayerScreen) renderMain(s progression.Snapshot, width, height int) string {
	switch s.Phase {
	case progression.PhaseNoContent:
		return renderMessage(width, height, theme.Subtitle,
			"No videos for "+p.deps.Learner.String()+" in this subject.")
	case progression.PhaseCompleted:
		return renderMessage(width, height, theme.Correct,
			"Subject complete! Press Enter for the summary.")
	case progression.PhaseClosed:
		return ""
	}

	var b strings.Builder
	b.WriteString(p.renderVideoHeader(s, width))
	b.WriteString("\n\n")

	switch s.Phase {
	case progression.PhaseLocked:
		b.WriteString(layout.Centered(width, theme.Unavailable, "Locked"))
		b.WriteString("\n\n")
		hint := "This video is not released yet."
		if s.UnlockHint != "" {
			hint = "Available in " + s.UnlockHint + "."
		}
		b.WriteString(layout.Centered(width, theme.Body, hint))
		b.WriteString("\n")
		b.WriteString(layout.Centered(width, theme.Hint, "Press R to check again, N to skip ahead."))
	case progression.PhaseIdle:
		b.WriteString(layout.Centered(width, theme.Body, "Press Enter to play."))
	case progression.PhasePlaying:
		b.WriteString(layout.Centered(width, theme.Body, p.spinner.View()+" Playing"))
		b.WriteString("\n\n")
		if s.Video != nil && !s.Video.Playable() {
			b.WriteString(layout.Centered(width, theme.Incorrect, "This video cannot be played: its link is invalid."))
			b.WriteString("\n")
		} else if s.Video != nil {
			b.WriteString(layout.Centered(width, theme.Hint, s.Video.URL))
			b.WriteString("\n")
		}
		b.WriteString(layout.Centered(width, theme.Hint, "Press Enter when the video has finished."))
	case progression.PhaseQuiz, progression.PhaseEvaluation:
		b.WriteString(p.renderQuestion(s, width))
	case progression.PhaseAnswerCorrect:
		if s.Question != nil {
			b.WriteString(p.renderChoices(width))
			b.WriteString("\n\n")
		}
		b.WriteString(layout.Centered(width, theme.Correct, "Correct!"))
	case progression.PhaseAnswerWrong:
		if s.Question != nil {
			b.WriteString(p.renderChoices(width))
			b.WriteString("\n\n")
		}
		msg := "Not quite. The video will play again."
		if s.Remaining == 0 {
			msg = "Time's up. The video will play again."
		}
		if s.EvaluationSkill != "" {
			msg = "Not quite. Back to the video that teaches " + s.EvaluationSkill + "."
		}
		b.WriteString(layout.Centered(width, theme.Incorrect, msg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

func (p *PlayerScreen) renderVideoHeader(s progression.Snapshot, width int) string {
	if s.Video == nil {
		return ""
	}
	title := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render("  " + videoLabel(s.Video))
	pos := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Video %d/%d", s.Index+1, s.Total))

	line := title
	if pad := width - lipgloss.Width(title) - lipgloss.Width(pos) - 2; pad > 0 {
		line += strings.Repeat(" ", pad) + pos
	}

	var b strings.Builder
	b.WriteString(line)
	b.WriteString("\n")
	if len(s.Video.Skills) > 0 {
		b.WriteString(theme.Hint.Render("  " + s.Video.Level + " · " + strings.Join(s.Video.Skills, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	return b.String()
}

func (p *PlayerScreen) renderQuestion(s progression.Snapshot, width int) string {
	var b strings.Builder
	heading := fmt.Sprintf("Question %d/%d", s.QuestionNumber, s.QuestionCount)
	if s.EvaluationSkill != "" {
		heading = fmt.Sprintf("Evaluation · %s · %d/%d", s.EvaluationSkill, s.QuestionNumber, s.QuestionCount)
	}
	b.WriteString(layout.Centered(width, theme.Warning, heading))
	b.WriteString("\n\n")

	bar := components.ProgressBar{
		Label:   "Time",
		Width:   min(width-8, 50),
		Suffix:  fmt.Sprintf("%ds", s.Remaining),
		Warning: s.Warning,
	}
	if s.Duration > 0 {
		bar.Percent = float64(s.Remaining) / float64(s.Duration)
	}
	b.WriteString(layout.Centered(width, lipgloss.NewStyle(), bar.View()))
	b.WriteString("\n\n")
	b.WriteString(p.renderChoices(width))
	return b.String()
}

func (p *PlayerScreen) renderChoices(width int) string {
	return lipgloss.NewStyle().PaddingLeft(max((width-50)/2, 2)).Render(p.choice.View())
}

func renderMessage(width, height int, style lipgloss.Style, msg string) string {
	return lipgloss.NewStyle().Width(width).Height(height).Render("\n\n" + layout.Centered(width, style, msg))
}

func renderError(width, height int, msg string) string {
	return lipgloss.NewStyle().Width(width).Height(height).Render(
		"\n\n" + layout.Centered(width, theme.Incorrect, "Cannot build the learning queue") +
			"\n\n" + layout.Centered(width, theme.Body, msg) +
			"\n\n" + layout.Centered(width, theme.Hint, "Press any key to go back."))
}

func videoLabel(v *catalog.Video) string {
	if v.Title != "" {
		return v.Title
	}
	return v.ID
}

func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
