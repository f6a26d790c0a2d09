package backup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"kanri/internal/model"
)

// csvHeader is the fixed export schema. Joins against project, status and
// release are resolved client-side; missing references render empty.
var csvHeader = []string{
	"id", "title", "project", "status", "priority", "type", "due_date", "release", "created_at",
}

// ExportCSV renders the task list as CSV with the fixed nine-column schema.
func ExportCSV(tasks []model.Task, projects []model.Project, statuses []model.Status, releases []model.Release) ([]byte, error) {
	projectName := make(map[string]string, len(projects))
	for _, p := range projects {
		projectName[p.ID] = p.Name
	}
	statusName := make(map[string]string, len(statuses))
	for _, st := range statuses {
		statusName[st.ID] = st.Name
	}
	releaseVersion := make(map[string]string, len(releases))
	for _, r := range releases {
		releaseVersion[r.ID] = r.Version
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		record := []string{
			t.ID,
			defuse(t.Title),
			defuse(deref(t.ProjectID, projectName)),
			defuse(deref(t.StatusID, statusName)),
			fmt.Sprintf("%d", t.Priority),
			string(t.Type),
			strOrEmpty(t.DueDate),
			defuse(deref(t.ReleaseID, releaseVersion)),
			t.CreatedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// defuse neutralizes spreadsheet formula injection by prefixing a quote
// when the cell would otherwise start with a formula trigger.
func defuse(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

func deref(id *string, names map[string]string) string {
	if id == nil {
		return ""
	}
	return names[*id]
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
