package timer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/timeutil"
)

type styles struct {
	Base      lipgloss.Style
	Main      lipgloss.Style
	Secondary lipgloss.Style
	Hint      lipgloss.Style
	Work      lipgloss.Style
	Break     lipgloss.Style
	Exam      lipgloss.Style
	Free      lipgloss.Style
	Error     lipgloss.Style
}

func defaultStyles() styles {
	badge := lipgloss.NewStyle().
		Padding(0, 1).
		MarginRight(1).
		Bold(true).
		Foreground(lipgloss.Color("#1F1F1F"))

	return styles{
		Base:      lipgloss.NewStyle().Padding(1, padding),
		Main:      lipgloss.NewStyle().Bold(true),
		Secondary: lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
		Hint:      lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Work:      badge.Background(lipgloss.Color("#B0DB43")),
		Break:     badge.Background(lipgloss.Color("#12EAEA")),
		Exam:      badge.Background(lipgloss.Color("#C492B1")),
		Free:      badge.Background(lipgloss.Color("#F2C14E")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
	}
}

// badge names the current mode, phase or section.
func (m *Model) badge() string {
	s := m.snap

	switch s.Mode.Kind() {
	case mode.KindWorkBreak:
		if s.Phase == mode.PhaseBreak {
			return m.styles.Break.Render("BREAK")
		}

		return m.styles.Work.Render("WORK")
	case mode.KindExam:
		name := mode.SectionName(s.Mode, s.SectionIndex)

		return m.styles.Exam.Render(fmt.Sprintf(
			"%s %d/%d",
			strings.ToUpper(name),
			s.SectionIndex+1,
			mode.SectionCount(s.Mode),
		))
	case mode.KindCountdown:
		return m.styles.Work.Render("COUNTDOWN")
	}

	return m.styles.Free.Render("FREE")
}

func (m *Model) statusLine() string {
	s := m.snap

	switch {
	case s.InExamBreak():
		return m.styles.Secondary.Render("[Section break]")
	case s.Status == StatusPaused:
		return m.styles.Secondary.Render("[Paused]")
	case s.Status == StatusIdle:
		return m.styles.Secondary.Render("[Ready]")
	}

	if s.Mode.Kind() == mode.KindWorkBreak {
		return m.styles.Hint.Render(fmt.Sprintf("cycle %d today", s.CycleIndex+1))
	}

	return ""
}

func (m *Model) timerView() string {
	var b strings.Builder

	s := m.snap

	b.WriteString(m.badge())
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if !s.Timed {
		b.WriteString(m.styles.Main.Render(timeutil.Clock(s.Elapsed)))
		b.WriteString("\n\n")
		b.WriteString(m.helpView())

		return b.String()
	}

	b.WriteString(m.styles.Main.Render(timeutil.Clock(s.Remaining)))
	b.WriteString("\n\n")

	var percent float64
	if s.Planned > 0 {
		percent = float64(s.Elapsed) / float64(s.Planned)
	}

	b.WriteString(m.progress.ViewAs(min(1, percent)))
	b.WriteString("\n\n")
	b.WriteString(m.helpView())

	return b.String()
}

func (m *Model) helpView() string {
	bindings := []key.Binding{m.keys.togglePlay}

	if m.snap.InExamBreak() {
		bindings = []key.Binding{m.keys.next}
	}

	if m.snap.Status == StatusIdle {
		bindings = []key.Binding{m.keys.enter}
	}

	bindings = append(bindings, m.keys.finish, m.keys.reset)

	if len(m.modes) > 1 {
		bindings = append(bindings, m.keys.switchMode)
	}

	bindings = append(bindings, m.keys.quit)

	return m.help.ShortHelpView(bindings)
}

func (m *Model) doneView() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Saving failed: " + m.err.Error()))
	case m.saved == nil:
		b.WriteString(m.styles.Secondary.Render("Session discarded"))
	default:
		b.WriteString(m.styles.Main.Render(fmt.Sprintf(
			"Saved %s of study · %d points",
			timeutil.Clock(m.snap.TotalElapsed()),
			m.score.Total,
		)))

		b.WriteString("\n\n")
		b.WriteString(m.styles.Hint.Render(fmt.Sprintf(
			"base %d · pauses -%.0f%% · completion +%.0f%% · cycles +%.0f%% · streak +%.0f%%",
			m.score.Base,
			m.score.PausePenalty*100,
			m.score.CompletionBonus*100,
			m.score.CycleBonus*100,
			m.score.StreakBonus*100,
		)))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.enter,
		m.keys.quit,
	}))

	return b.String()
}

func (m *Model) View() string {
	switch m.stage {
	case stageForm:
		if m.form == nil {
			return ""
		}

		title := m.styles.Main.Render(fmt.Sprintf(
			"Session finished: %s",
			timeutil.Clock(m.snap.TotalElapsed()),
		))

		return m.styles.Base.Render(title + "\n\n" + m.form.View())
	case stageSaving:
		return m.styles.Base.Render(m.styles.Secondary.Render("Saving..."))
	case stageDone:
		return m.styles.Base.Render(m.doneView())
	}

	return m.styles.Base.Render(m.timerView())
}
