package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kanri/internal/capture"
	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/toast"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.popup != popupNone {
			return m.handlePopupKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.setStatus("Failed to load task: " + msg.err.Error())
			return m, nil
		}
		m.detailID = msg.taskID
		m.currentScreen = screenDetail
		return m, nil

	case tickMsg:
		if m.statusMsg != "" && time.Since(m.statusTime) > 5*time.Second {
			m.statusMsg = ""
		}
		m.rebuild()
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.currentScreen == screenBoard {
			m.quitting = true
			return m, tea.Quit
		}
		m.currentScreen = screenBoard
		return m, nil

	case "esc":
		if m.currentScreen != screenBoard {
			m.currentScreen = screenBoard
		}
		return m, nil
	}

	switch m.currentScreen {
	case screenBoard:
		return m.handleBoardKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenJobs:
		return m.handleJobsKey(msg)
	}

	return m, nil
}

// --- Board keys ---

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.cursorCol--
		m.cursorRow = 0
		m.clampCursor()
	case "l", "right":
		m.cursorCol++
		m.cursorRow = 0
		m.clampCursor()
	case "j", "down":
		m.cursorRow++
		m.clampCursor()
	case "k", "up":
		m.cursorRow--
		m.clampCursor()

	// Cycle projects.
	case "tab", "p":
		if len(m.projects) > 0 {
			m.projectIdx = (m.projectIdx + 1) % len(m.projects)
			m.cursorCol, m.cursorRow = 0, 0
			m.rebuild()
		}

	// Move the selected task one column left/right.
	case "H", "shift+left":
		return m.moveSelected(-1)
	case "L", "shift+right":
		return m.moveSelected(1)

	// Jump the selected task straight to the first done column.
	case "d":
		if t := m.selectedTask(); t != nil {
			for _, st := range m.statuses {
				if st.Category == model.CategoryDone {
					m.app.Tasks.Update(t.ID, remote.Row{"status_id": st.ID})
					m.setStatus("Done: " + t.Title)
					m.rebuild()
					break
				}
			}
		}

	// Archive with undo.
	case "x", "backspace":
		if t := m.selectedTask(); t != nil {
			m.app.Tasks.Archive(t.ID)
			m.rebuild()
		}

	// Undo the newest undo toast.
	case "u":
		for _, t := range m.app.Toasts.Active() {
			if t.Type == toast.TypeUndo {
				m.app.Toasts.Undo(t.ID)
				m.rebuild()
				break
			}
		}

	case "enter", " ":
		if t := m.selectedTask(); t != nil {
			return m, m.loadDetail(t.ID)
		}

	// Quick capture.
	case "c":
		m.popup = popupCapture
		m.captureInput.Reset()
		m.captureInput.Focus()
		return m, textinput.Blink

	// Job-hunt pipeline.
	case "J":
		m.currentScreen = screenJobs
		m.clampJobCursor()
	}

	return m, nil
}

func (m Model) moveSelected(dir int) (tea.Model, tea.Cmd) {
	t := m.selectedTask()
	if t == nil {
		return m, nil
	}
	target := m.cursorCol + dir
	if target < 0 || target >= len(m.statuses) {
		return m, nil
	}
	m.app.Tasks.Update(t.ID, remote.Row{"status_id": m.statuses[target].ID})
	m.cursorCol = target
	m.rebuild()
	// Follow the task into its new column.
	col := m.columns[m.statuses[target].ID]
	for i, ct := range col {
		if ct.ID == t.ID {
			m.cursorRow = i
			break
		}
	}
	return m, nil
}

// --- Detail keys ---

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x":
		m.app.Tasks.Archive(m.detailID)
		m.currentScreen = screenBoard
		m.rebuild()
	}
	return m, nil
}

// --- Jobs keys ---

func (m Model) handleJobsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.jobStage--
		m.jobRow = 0
		m.clampJobCursor()
	case "l", "right":
		m.jobStage++
		m.jobRow = 0
		m.clampJobCursor()
	case "j", "down":
		m.jobRow++
		m.clampJobCursor()
	case "k", "up":
		m.jobRow--
		m.clampJobCursor()

	// Advance or retreat the application along the funnel.
	case "L", "shift+right":
		if a := m.selectedApp(); a != nil && m.jobStage+1 < len(model.JobStages) {
			m.app.Jobs.MoveToStage(a.ID, model.JobStages[m.jobStage+1], nil)
			m.rebuild()
		}
	case "H", "shift+left":
		if a := m.selectedApp(); a != nil && m.jobStage > 0 {
			m.app.Jobs.MoveToStage(a.ID, model.JobStages[m.jobStage-1], nil)
			m.rebuild()
		}

	case "P":
		if a := m.selectedApp(); a != nil {
			m.app.Jobs.TogglePin(a.ID)
			m.rebuild()
		}

	case "x":
		if a := m.selectedApp(); a != nil {
			m.app.Jobs.Archive(a.ID)
			m.rebuild()
		}

	case "u":
		for _, t := range m.app.Toasts.Active() {
			if t.Type == toast.TypeUndo {
				m.app.Toasts.Undo(t.ID)
				m.rebuild()
				break
			}
		}
	}

	return m, nil
}

// --- Capture popup ---

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.popup = popupNone
		return m, nil
	case "enter":
		return m.submitCapture()
	}

	var cmd tea.Cmd
	m.captureInput, cmd = m.captureInput.Update(msg)
	return m, cmd
}

func (m Model) submitCapture() (tea.Model, tea.Cmd) {
	parsed := capture.Parse(m.captureInput.Value())
	if parsed.Title == "" {
		m.setStatus("Task needs a title")
		return m, nil
	}

	task := model.Task{Title: parsed.Title, Type: model.TypeTask}
	if parsed.Priority != 0 {
		task.Priority = parsed.Priority
	}
	if parsed.DueDate != "" {
		task.DueDate = &parsed.DueDate
	}
	if parsed.Discipline != "" {
		task.Discipline = model.Ptr(parsed.Discipline)
	}

	// A #project marker wins; otherwise the task lands on the visible board,
	// or in the inbox when no project exists.
	project := m.currentProject()
	if parsed.ProjectName != "" {
		for i, p := range m.projects {
			if p.Name == parsed.ProjectName {
				project = &m.projects[i]
				break
			}
		}
	}
	if project != nil {
		task.ProjectID = &project.ID
		if def, ok := m.app.Projects.DefaultStatus(project.ID); ok {
			task.StatusID = &def.ID
		}
	}

	ctx := context.Background()
	created, err := m.app.Tasks.Create(ctx, task)
	if err != nil {
		m.setStatus("Create failed: " + err.Error())
		m.popup = popupNone
		return m, nil
	}

	for _, tagName := range parsed.TagNames {
		tag, ok := m.app.Projects.TagByName(tagName)
		if !ok {
			t, err := m.app.Projects.CreateTag(ctx, tagName, "")
			if err != nil {
				continue
			}
			tag = *t
		}
		m.app.Tasks.AddTag(ctx, created.ID, tag.ID)
	}

	m.popup = popupNone
	m.setStatus("Captured: " + created.Title)
	m.rebuild()
	return m, nil
}
