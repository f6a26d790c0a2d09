package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kanri/internal/app"
	"kanri/internal/config"
	"kanri/internal/model"
	"kanri/internal/toast"
)

const kanriDirName = ".kanri"

// kanriPath returns the path to a file inside .kanri/.
func kanriPath(parts ...string) string {
	elems := append([]string{kanriDirName}, parts...)
	return filepath.Join(elems...)
}

// mustApp loads the session, returning an error if kanri is not
// initialized. Callers defer a.Close(); that flushes pending undo windows
// so one-shot archives always persist.
func mustApp(ctx context.Context) (*app.App, error) {
	cfgPath := kanriPath("config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("kanri not initialized. Run: kanri init")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.FetchAll(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// printToasts renders any queued messages to stdout. One-shot commands
// call it before exit so store warnings are not lost.
func printToasts(a *app.App) {
	for _, t := range a.Toasts.Active() {
		switch t.Type {
		case toast.TypeWarning:
			fmt.Printf("%swarning:%s %s\n", colorYellow, colorReset, t.Message)
		case toast.TypeSuccess:
			fmt.Printf("%s%s%s\n", colorGreen, t.Message, colorReset)
		default:
			fmt.Println(t.Message)
		}
	}
}

// resolveProject finds a project by name or id prefix.
func resolveProject(a *app.App, ref string) (model.Project, error) {
	if p, ok := a.Projects.ProjectByName(ref); ok {
		return p, nil
	}
	var matches []model.Project
	for _, p := range a.Projects.AllProjects() {
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Project{}, fmt.Errorf("no project matches %q", ref)
	default:
		return model.Project{}, fmt.Errorf("%q is ambiguous (%d projects)", ref, len(matches))
	}
}

// resolveTask finds a task by id prefix.
func resolveTask(a *app.App, ref string) (model.Task, error) {
	var matches []model.Task
	for _, t := range a.Tasks.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Task{}, fmt.Errorf("no task matches %q", ref)
	default:
		return model.Task{}, fmt.Errorf("%q is ambiguous (%d tasks)", ref, len(matches))
	}
}

// resolveApplication finds a job application by studio name or id prefix.
func resolveApplication(a *app.App, ref string) (model.JobApplication, error) {
	var matches []model.JobApplication
	for _, ja := range a.Jobs.Applications() {
		if ja.StudioName == ref {
			return ja, nil
		}
		if strings.HasPrefix(ja.ID, ref) {
			matches = append(matches, ja)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.JobApplication{}, fmt.Errorf("no application matches %q", ref)
	default:
		return model.JobApplication{}, fmt.Errorf("%q is ambiguous (%d applications)", ref, len(matches))
	}
}

// allStatuses flattens every project's columns.
func allStatuses(a *app.App) []model.Status {
	var out []model.Status
	for _, p := range a.Projects.AllProjects() {
		out = append(out, a.Projects.Statuses(p.ID)...)
	}
	return out
}

func allReleases(a *app.App) []model.Release {
	var out []model.Release
	for _, p := range a.Projects.AllProjects() {
		out = append(out, a.Projects.Releases(p.ID)...)
	}
	return out
}

// statusByName finds a column on the task's project board by
// case-insensitive name.
func statusByName(a *app.App, task model.Task, name string) (model.Status, error) {
	if task.ProjectID == nil {
		return model.Status{}, fmt.Errorf("task %s has no project board", shortID(task.ID))
	}
	for _, st := range a.Projects.Statuses(*task.ProjectID) {
		if strings.EqualFold(st.Name, name) {
			return st, nil
		}
	}
	return model.Status{}, fmt.Errorf("no status %q on this board", name)
}

// shortID renders the first eight characters of an id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func priorityLabel(p int) string {
	switch p {
	case model.PriorityUrgent:
		return "urgent"
	case model.PriorityHigh:
		return "high"
	case model.PriorityMedium:
		return "medium"
	case model.PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("p%d", p)
	}
}

func priorityColor(p int) string {
	switch p {
	case model.PriorityUrgent:
		return colorRed + colorBold
	case model.PriorityHigh:
		return colorYellow
	case model.PriorityLow:
		return colorDim
	default:
		return ""
	}
}
