package view

import (
	"fmt"
	"strings"

	"kanri/internal/model"
)

// changelogSections maps task types to changelog headings, in render order.
var changelogSections = []struct {
	heading string
	ttype   model.TaskType
}{
	{"Added", model.TypeFeature},
	{"Fixed", model.TypeBug},
	{"Changed", model.TypeTask},
}

// Changelog renders a release's markdown changelog from its tasks. Only
// tasks whose status sits in a done category are listed; empty sections are
// omitted entirely.
func Changelog(release model.Release, tasks []model.Task, statuses []model.Status) string {
	catByStatus := make(map[string]model.StatusCategory, len(statuses))
	for _, st := range statuses {
		catByStatus[st.ID] = st.Category
	}

	done := func(t model.Task) bool {
		if t.StatusID == nil {
			return false
		}
		return catByStatus[*t.StatusID] == model.CategoryDone
	}

	var b strings.Builder
	title := release.Version
	if release.Title != nil && *release.Title != "" {
		title = fmt.Sprintf("%s - %s", release.Version, *release.Title)
	}
	fmt.Fprintf(&b, "## %s\n", title)

	for _, section := range changelogSections {
		var lines []string
		for _, t := range tasks {
			if t.Type == section.ttype && done(t) {
				lines = append(lines, "- "+t.Title)
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", section.heading)
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
