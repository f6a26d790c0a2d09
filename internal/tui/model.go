// Package tui is the interactive kanban board: per-project status columns,
// a job-hunt pipeline screen, quick capture, and undoable archive, all
// driven by the shared stores.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kanri/internal/app"
	"kanri/internal/model"
	"kanri/internal/view"
)

// screen represents which view the TUI is showing.
type screen int

const (
	screenBoard  screen = iota // Kanban board (main)
	screenDetail               // Task detail panel
	screenJobs                 // Job-hunt pipeline
)

// popup overlays the current screen.
type popup int

const (
	popupNone popup = iota
	popupCapture
)

// Model is the top-level bubbletea model.
type Model struct {
	app *app.App

	width  int
	height int

	currentScreen screen
	popup         popup

	// Board state, rebuilt from the stores each tick.
	projects   []model.Project
	projectIdx int
	statuses   []model.Status
	columns    map[string][]model.Task
	blocked    map[string]bool
	cursorCol  int
	cursorRow  int

	// Detail state.
	detailID string

	// Jobs state.
	jobStages map[model.JobStage][]model.JobApplication
	jobStage  int
	jobRow    int

	// Quick capture input.
	captureInput textinput.Model

	statusMsg  string
	statusTime time.Time
	quitting   bool
}

// New creates the TUI model over an already-fetched app.
func New(a *app.App) Model {
	ci := textinput.New()
	ci.Placeholder = "Fix lighting #game @art !2 due:friday"
	ci.CharLimit = 200
	ci.Width = 56

	m := Model{
		app:           a,
		currentScreen: screenBoard,
		captureInput:  ci,
	}
	m.rebuild()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type detailLoadedMsg struct {
	taskID string
	err    error
}

func (m Model) loadDetail(id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.app.Tasks.FetchTaskDetails(ctx, id); err != nil {
			return detailLoadedMsg{taskID: id, err: err}
		}
		err := m.app.Tasks.FetchActivity(ctx, id)
		return detailLoadedMsg{taskID: id, err: err}
	}
}

// rebuild recomputes the derived board state from the stores.
func (m *Model) rebuild() {
	m.projects = m.app.Projects.AllProjects()
	if m.projectIdx >= len(m.projects) {
		m.projectIdx = 0
	}

	allStatuses := []model.Status{}
	for _, p := range m.projects {
		allStatuses = append(allStatuses, m.app.Projects.Statuses(p.ID)...)
	}
	m.blocked = view.BlockedIDs(m.app.Tasks.AllDependencies(), m.app.Tasks.Tasks(), allStatuses)

	if len(m.projects) == 0 {
		m.statuses = nil
		m.columns = map[string][]model.Task{}
	} else {
		p := m.projects[m.projectIdx]
		m.statuses = m.app.Projects.Statuses(p.ID)
		m.columns = view.TasksByStatus(m.app.Tasks.ProjectTasks(p.ID), m.statuses)
	}

	m.jobStages = view.ApplicationsByStage(m.app.Jobs.Applications())

	m.clampCursor()
	m.clampJobCursor()
}

func (m *Model) clampCursor() {
	if len(m.statuses) == 0 {
		m.cursorCol, m.cursorRow = 0, 0
		return
	}
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.cursorCol >= len(m.statuses) {
		m.cursorCol = len(m.statuses) - 1
	}
	col := m.columns[m.statuses[m.cursorCol].ID]
	if m.cursorRow >= len(col) {
		m.cursorRow = len(col) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
}

func (m *Model) clampJobCursor() {
	if m.jobStage < 0 {
		m.jobStage = 0
	}
	if m.jobStage >= len(model.JobStages) {
		m.jobStage = len(model.JobStages) - 1
	}
	apps := m.jobStages[model.JobStages[m.jobStage]]
	if m.jobRow >= len(apps) {
		m.jobRow = len(apps) - 1
	}
	if m.jobRow < 0 {
		m.jobRow = 0
	}
}

// selectedTask returns the task under the board cursor, or nil.
func (m *Model) selectedTask() *model.Task {
	if len(m.statuses) == 0 {
		return nil
	}
	col := m.columns[m.statuses[m.cursorCol].ID]
	if m.cursorRow < len(col) {
		t := col[m.cursorRow]
		return &t
	}
	return nil
}

// selectedApp returns the application under the jobs cursor, or nil.
func (m *Model) selectedApp() *model.JobApplication {
	apps := m.jobStages[model.JobStages[m.jobStage]]
	if m.jobRow < len(apps) {
		a := apps[m.jobRow]
		return &a
	}
	return nil
}

func (m *Model) currentProject() *model.Project {
	if len(m.projects) == 0 {
		return nil
	}
	p := m.projects[m.projectIdx]
	return &p
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTime = time.Now()
}
