package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kanri/internal/model"
	"kanri/internal/toast"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrBlue      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	clrCyan      = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1).
			Width(28)

	columnActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(clrHighlight).
				Padding(0, 1).
				Width(28)

	cardSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(64)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

func priorityStyle(p int) lipgloss.Style {
	switch p {
	case model.PriorityUrgent:
		return lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(clrYellow)
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(clrBlue)
	default:
		return dimStyle
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.currentScreen {
	case screenBoard:
		content = m.viewBoard()
	case screenDetail:
		content = m.viewDetail()
	case screenJobs:
		content = m.viewJobs()
	}

	if m.popup == popupCapture {
		content = m.overlayCapture(content)
	}

	return content
}

// --- Board screen ---

func (m Model) viewBoard() string {
	var b strings.Builder

	project := m.currentProject()
	header := titleStyle.Render("kanri")
	if project != nil {
		header += dimStyle.Render(fmt.Sprintf("  %s (%d/%d)", project.Name, m.projectIdx+1, len(m.projects)))
	}
	if m.app.Tasks.Loading() {
		header += dimStyle.Render("  syncing…")
	}
	b.WriteString(header + "\n\n")

	if project == nil {
		b.WriteString(dimStyle.Render("  No projects yet. Run kanri project add, or press ") +
			footerKeyStyle.Render("c") + dimStyle.Render(" to capture an inbox task.\n"))
		b.WriteString("\n" + m.toastLine() + "\n" + m.boardFooter())
		return b.String()
	}

	rows := m.visibleRows()
	var cols []string
	for i, st := range m.statuses {
		cols = append(cols, m.renderColumn(i, st, rows))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(clrGreen).Render("  "+m.statusMsg) + "\n")
	}
	b.WriteString(m.toastLine() + "\n")
	b.WriteString(m.boardFooter())
	return b.String()
}

func (m Model) visibleRows() int {
	rows := m.height - 10
	if rows < 4 {
		rows = 4
	}
	return rows
}

func (m Model) renderColumn(idx int, st model.Status, rows int) string {
	tasks := m.columns[st.ID]
	var b strings.Builder

	cat := categoryStyle(st.Category)
	b.WriteString(cat.Render(strings.ToUpper(st.Name)) + dimStyle.Render(fmt.Sprintf(" %d", len(tasks))) + "\n")

	shown := tasks
	if len(shown) > rows {
		shown = shown[:rows]
	}
	for i, t := range shown {
		line := m.renderCard(t, idx == m.cursorCol && i == m.cursorRow)
		b.WriteString(line + "\n")
	}
	if len(tasks) > rows {
		b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(tasks)-rows)) + "\n")
	}
	if len(tasks) == 0 {
		b.WriteString(dimStyle.Render("empty") + "\n")
	}

	style := columnStyle
	if idx == m.cursorCol {
		style = columnActiveStyle
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderCard(t model.Task, selected bool) string {
	dot := priorityStyle(t.Priority).Render("●")
	title := truncate(t.Title, 20)
	if selected {
		title = cardSelectedStyle.Render(title)
	}
	line := dot + " " + title
	if m.blocked[t.ID] {
		line += lipgloss.NewStyle().Foreground(clrRed).Render(" !")
	}
	if t.DueDate != nil {
		line += "\n  " + dimStyle.Render("due "+*t.DueDate)
	}
	if t.RecurrenceRule != nil {
		line += dimStyle.Render(" ↻")
	}
	return line
}

func categoryStyle(c model.StatusCategory) lipgloss.Style {
	switch c {
	case model.CategoryDone:
		return lipgloss.NewStyle().Bold(true).Foreground(clrGreen)
	case model.CategoryActive:
		return lipgloss.NewStyle().Bold(true).Foreground(clrBlue)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(clrSubtle)
	}
}

func (m Model) boardFooter() string {
	keys := []struct{ key, desc string }{
		{"↑↓←→", "navigate"},
		{"H/L", "move task"},
		{"enter", "open"},
		{"c", "capture"},
		{"d", "done"},
		{"x", "archive"},
		{"u", "undo"},
		{"tab", "project"},
		{"J", "jobs"},
		{"q", "quit"},
	}
	return renderFooter(keys)
}

// --- Detail screen ---

func (m Model) viewDetail() string {
	t, ok := m.app.Tasks.Task(m.detailID)
	if !ok {
		return dimStyle.Render("Task gone.") + "\n" + renderFooter([]struct{ key, desc string }{{"esc", "back"}})
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("  " + dimStyle.Render(string(t.Type)) + "\n\n")

	b.WriteString("  " + priorityStyle(t.Priority).Render(priorityLabel(t.Priority)))
	if t.DueDate != nil {
		b.WriteString(subtleStyle.Render("   due " + *t.DueDate))
	}
	if t.RecurrenceRule != nil {
		b.WriteString(subtleStyle.Render("   repeats " + string(*t.RecurrenceRule)))
	}
	if m.blocked[t.ID] {
		b.WriteString(lipgloss.NewStyle().Foreground(clrRed).Render("   blocked"))
	}
	b.WriteString("\n")

	if t.Description != nil && *t.Description != "" {
		b.WriteString("\n  " + *t.Description + "\n")
	}

	if items := m.app.Tasks.Checklist(t.ID); len(items) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("  Checklist:") + "\n")
		for _, it := range items {
			box := dimStyle.Render("[ ]")
			if it.Checked {
				box = lipgloss.NewStyle().Foreground(clrGreen).Render("[x]")
			}
			b.WriteString(fmt.Sprintf("    %s %s\n", box, it.Title))
		}
	}

	if notes := m.app.Tasks.Notes(t.ID); len(notes) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("  Notes:") + "\n")
		for _, n := range notes {
			b.WriteString("    " + truncate(n.Content, 70) + "\n")
		}
	}

	if acts := m.app.Tasks.Activity(t.ID); len(acts) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("  History:") + "\n")
		shown := acts
		if len(shown) > 8 {
			shown = shown[:8]
		}
		for _, a := range shown {
			line := a.Action
			if a.Field != nil {
				line += " " + *a.Field
			}
			b.WriteString("    " + dimStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + m.toastLine() + "\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{
		{"x", "archive"},
		{"esc", "back"},
	}))
	return b.String()
}

// --- Jobs screen ---

func (m Model) viewJobs() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("job hunt") + "\n\n")

	var cols []string
	for i, stage := range model.JobStages {
		cols = append(cols, m.renderStageColumn(i, stage))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(clrGreen).Render("  "+m.statusMsg) + "\n")
	}
	b.WriteString(m.toastLine() + "\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{
		{"↑↓←→", "navigate"},
		{"H/L", "move stage"},
		{"P", "pin"},
		{"x", "archive"},
		{"u", "undo"},
		{"esc", "board"},
	}))
	return b.String()
}

func (m Model) renderStageColumn(idx int, stage model.JobStage) string {
	apps := m.jobStages[stage]
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(strings.ToUpper(string(stage))) +
		dimStyle.Render(fmt.Sprintf(" %d", len(apps))) + "\n")

	for i, a := range apps {
		name := truncate(a.StudioName, 18)
		if idx == m.jobStage && i == m.jobRow {
			name = cardSelectedStyle.Render(name)
		}
		pin := ""
		if a.Pinned {
			pin = lipgloss.NewStyle().Foreground(clrYellow).Render("★ ")
		}
		b.WriteString(pin + name + "\n")
		if a.Position != nil {
			b.WriteString("  " + dimStyle.Render(truncate(*a.Position, 18)) + "\n")
		}
	}
	if len(apps) == 0 {
		b.WriteString(dimStyle.Render("empty") + "\n")
	}

	style := columnStyle.Width(24)
	if idx == m.jobStage {
		style = columnActiveStyle.Width(24)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

// --- Capture popup ---

func (m Model) overlayCapture(bg string) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Render("Quick Capture") + "\n\n")
	b.WriteString(dimStyle.Render("#project @tag !1-4 ~discipline due:friday") + "\n\n")
	b.WriteString(m.captureInput.View() + "\n\n")
	b.WriteString(footerDescStyle.Render("enter create  esc cancel"))
	popup := popupStyle.Render(b.String())

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			popup,
			lipgloss.WithWhitespaceChars(" "),
		)
	}
	return popup
}

// --- Shared helpers ---

func (m Model) toastLine() string {
	active := m.app.Toasts.Active()
	if len(active) == 0 {
		return ""
	}
	var parts []string
	for _, t := range active {
		style := dimStyle
		switch t.Type {
		case toast.TypeWarning:
			style = lipgloss.NewStyle().Foreground(clrYellow)
		case toast.TypeSuccess:
			style = lipgloss.NewStyle().Foreground(clrGreen)
		case toast.TypeUndo:
			style = lipgloss.NewStyle().Foreground(clrCyan)
		}
		msg := t.Message
		if t.Type == toast.TypeUndo {
			msg += " (u to undo)"
		}
		parts = append(parts, style.Render(msg))
	}
	return "  " + strings.Join(parts, dimStyle.Render("  |  "))
}

func renderFooter(keys []struct{ key, desc string }) string {
	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+" "+footerDescStyle.Render(k.desc))
	}
	return "  " + strings.Join(parts, "  ")
}

func priorityLabel(p int) string {
	switch p {
	case model.PriorityUrgent:
		return "urgent"
	case model.PriorityHigh:
		return "high"
	case model.PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

func truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
