package exportsvc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/studyplanner/core/plan"
)

const barWidth = 20

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF7CCB")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FDFF8C"))

	remarkStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#F59E0B")).
			MarginTop(1)

	quoteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#888")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4F46E5")).
			Padding(1, 2)
)

// Terminal renders the plan, its report and a quote for a terminal.
func Terminal(p plan.Plan, rep plan.Report, quote string) string {
	title := "Study Report"
	if p.StudentName != "" {
		title += " - " + p.StudentName
	}

	field := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}

	sched := p.Schedule
	lines := []string{
		titleStyle.Render(title),
		field("Progress", fmt.Sprintf("%s %.1f%%", bar(rep.TotalProgress), rep.TotalProgress)),
		field("Pending lectures", fmt.Sprintf("%d", rep.TotalPendingLectures)),
		field("Pending hours", fmt.Sprintf("%.1f", rep.TotalPendingHours)),
	}
	if sched.StartDate.IsSet() && sched.TargetDate.IsSet() {
		lines = append(lines,
			field("Schedule", fmt.Sprintf("%s -> %s, %d days/week", sched.StartDate, sched.TargetDate, sched.WorkingDaysPerWeek)),
			field("Working days", fmt.Sprintf("%d", rep.WorkingDays)),
			field("Hours/day needed", fmt.Sprintf("%.1f", rep.RequiredHoursPerDay)),
		)
	}

	if len(p.Subjects) > 0 {
		lines = append(lines, "")
		for _, s := range p.Subjects {
			var progress float64
			if s.TotalLectures > 0 {
				progress = 100 * float64(s.LecturesCompleted) / float64(s.TotalLectures)
			}
			lines = append(lines, field(
				truncate(s.Name, 17),
				fmt.Sprintf("%s %d/%d", bar(progress), s.LecturesCompleted, s.TotalLectures),
			))
		}
	}

	if rep.Remarks != "" {
		lines = append(lines, remarkStyle.Render(rep.Remarks))
	}
	if quote != "" {
		lines = append(lines, quoteStyle.Render(fmt.Sprintf("%q", quote)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// bar draws a progress bar for a percentage.
func bar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
