package view

import (
	"fmt"
	"strings"
	"testing"

	"kanri/internal/model"
)

func statusSet() []model.Status {
	return []model.Status{
		{ID: "s-backlog", ProjectID: "p1", Name: "Backlog", Category: model.CategoryBacklog, SortOrder: 0, IsDefault: true},
		{ID: "s-active", ProjectID: "p1", Name: "In Progress", Category: model.CategoryActive, SortOrder: 1},
		{ID: "s-done", ProjectID: "p1", Name: "Done", Category: model.CategoryDone, SortOrder: 2},
	}
}

func taskIn(id, statusID string, sortOrder int) model.Task {
	return model.Task{ID: id, Title: id, StatusID: &statusID, SortOrder: sortOrder, Priority: model.PriorityMedium}
}

func TestTasksByStatus(t *testing.T) {
	statuses := statusSet()
	tasks := []model.Task{
		taskIn("b", "s-backlog", 1),
		taskIn("a", "s-backlog", 0),
		taskIn("c", "s-active", 0),
		{ID: "orphan", Title: "orphan"}, // no status
	}

	cols := TasksByStatus(tasks, statuses)
	if got := cols["s-backlog"]; len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("backlog column = %+v", got)
	}
	if got := cols["s-active"]; len(got) != 1 || got[0].ID != "c" {
		t.Errorf("active column = %+v", got)
	}
	if got := cols["s-done"]; len(got) != 0 {
		t.Errorf("done column should be empty, got %+v", got)
	}
}

func TestApplicationsByStage_PinnedFirst(t *testing.T) {
	apps := []model.JobApplication{
		{ID: "1", StudioName: "A", Stage: model.StageApplied, SortOrder: 0},
		{ID: "2", StudioName: "B", Stage: model.StageApplied, SortOrder: 1, Pinned: true},
		{ID: "3", StudioName: "C", Stage: model.StageApplied, SortOrder: 2},
	}

	stages := ApplicationsByStage(apps)
	applied := stages[model.StageApplied]
	if len(applied) != 3 {
		t.Fatalf("expected 3 applied, got %d", len(applied))
	}
	if applied[0].ID != "2" {
		t.Errorf("pinned application should sort first, got %s", applied[0].ID)
	}
	if applied[1].ID != "1" || applied[2].ID != "3" {
		t.Errorf("unpinned order wrong: %s, %s", applied[1].ID, applied[2].ID)
	}
}

func TestIsBlocked(t *testing.T) {
	statuses := statusSet()
	tasks := []model.Task{
		taskIn("t1", "s-backlog", 0),
		taskIn("dep-done", "s-done", 0),
		taskIn("dep-open", "s-active", 0),
	}

	cases := []struct {
		name    string
		deps    []model.TaskDependency
		blocked bool
	}{
		{"no dependencies", nil, false},
		{"dependency done", []model.TaskDependency{{TaskID: "t1", DependsOnTaskID: "dep-done"}}, false},
		{"dependency open", []model.TaskDependency{{TaskID: "t1", DependsOnTaskID: "dep-open"}}, true},
		{"dangling dependency", []model.TaskDependency{{TaskID: "t1", DependsOnTaskID: "ghost"}}, false},
		{"mixed", []model.TaskDependency{
			{TaskID: "t1", DependsOnTaskID: "dep-done"},
			{TaskID: "t1", DependsOnTaskID: "dep-open"},
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBlocked("t1", tc.deps, tasks, statuses); got != tc.blocked {
				t.Errorf("IsBlocked = %v, want %v", got, tc.blocked)
			}
		})
	}
}

func TestBlockedIDs(t *testing.T) {
	statuses := statusSet()
	tasks := []model.Task{
		taskIn("t1", "s-backlog", 0),
		taskIn("t2", "s-backlog", 1),
		taskIn("dep-open", "s-active", 0),
	}
	deps := []model.TaskDependency{
		{TaskID: "t1", DependsOnTaskID: "dep-open"},
		{TaskID: "t2", DependsOnTaskID: "ghost"},
	}

	blocked := BlockedIDs(deps, tasks, statuses)
	if !blocked["t1"] {
		t.Error("t1 should be blocked")
	}
	if blocked["t2"] {
		t.Error("dangling dependency must fail open")
	}
}

func TestChangelog_SectionsAndDoneFilter(t *testing.T) {
	statuses := statusSet()
	release := model.Release{Version: "v0.2.0"}
	tasks := []model.Task{
		{ID: "1", Title: "Gamepad support", Type: model.TypeFeature, StatusID: model.Ptr("s-done")},
		{ID: "2", Title: "Crash on resize", Type: model.TypeBug, StatusID: model.Ptr("s-done")},
		{ID: "3", Title: "Refactor input", Type: model.TypeTask, StatusID: model.Ptr("s-active")},
	}

	out := Changelog(release, tasks, statuses)
	if !strings.Contains(out, "## v0.2.0") {
		t.Errorf("missing heading:\n%s", out)
	}
	if !strings.Contains(out, "### Added") || !strings.Contains(out, "- Gamepad support") {
		t.Errorf("missing Added section:\n%s", out)
	}
	if !strings.Contains(out, "### Fixed") || !strings.Contains(out, "- Crash on resize") {
		t.Errorf("missing Fixed section:\n%s", out)
	}
	if strings.Contains(out, "### Changed") {
		t.Errorf("Changed section should be omitted for non-done tasks:\n%s", out)
	}
}

func TestChangelog_TitleLine(t *testing.T) {
	out := Changelog(model.Release{Version: "v1.0.0", Title: model.Ptr("First")}, nil, nil)
	if !strings.Contains(out, "## v1.0.0 - First") {
		t.Errorf("title line = %q", out)
	}
}

func TestToday_ExclusiveBuckets(t *testing.T) {
	statuses := statusSet()
	today := "2026-06-15"

	overdue := taskIn("overdue", "s-active", 0)
	overdue.DueDate = model.Ptr("2026-06-01")
	overdue.Priority = model.PriorityUrgent

	dueToday := taskIn("due-today", "s-backlog", 0)
	dueToday.DueDate = model.Ptr("2026-06-15")

	urgent := taskIn("urgent", "s-backlog", 0)
	urgent.Priority = model.PriorityUrgent

	active := taskIn("active", "s-active", 0)

	doneTask := taskIn("done", "s-done", 0)
	doneTask.DueDate = model.Ptr("2026-06-01")

	quick := taskIn("quick", "s-backlog", 0)

	tags := []model.Tag{{ID: "tag-qw", Name: "quick-win"}}
	taskTags := []model.TaskTag{{TaskID: "quick", TagID: "tag-qw"}}

	v := Today(today, []model.Task{overdue, dueToday, urgent, active, doneTask, quick}, statuses, taskTags, tags)

	if len(v.Overdue) != 1 || v.Overdue[0].ID != "overdue" {
		t.Errorf("Overdue = %+v", v.Overdue)
	}
	if len(v.DueToday) != 1 || v.DueToday[0].ID != "due-today" {
		t.Errorf("DueToday = %+v", v.DueToday)
	}
	if len(v.HighPriority) != 1 || v.HighPriority[0].ID != "urgent" {
		t.Errorf("HighPriority = %+v", v.HighPriority)
	}
	if len(v.InProgress) != 1 || v.InProgress[0].ID != "active" {
		t.Errorf("InProgress = %+v", v.InProgress)
	}
	if len(v.QuickWins) != 1 || v.QuickWins[0].ID != "quick" {
		t.Errorf("QuickWins = %+v", v.QuickWins)
	}
}

func TestToday_CapsAndPriorityOrder(t *testing.T) {
	statuses := statusSet()
	today := "2026-06-15"

	var tasks []model.Task
	for i := 0; i < 7; i++ {
		tk := taskIn(fmt.Sprintf("hp-%d", i), "s-backlog", i)
		tk.Priority = model.PriorityHigh
		tasks = append(tasks, tk)
	}
	// An overdue low-priority task must sort after an overdue urgent one.
	late := taskIn("late-low", "s-backlog", 0)
	late.DueDate = model.Ptr("2026-06-01")
	late.Priority = model.PriorityLow
	urgentLate := taskIn("late-urgent", "s-backlog", 1)
	urgentLate.DueDate = model.Ptr("2026-06-10")
	urgentLate.Priority = model.PriorityUrgent
	tasks = append(tasks, late, urgentLate)

	v := Today(today, tasks, statuses, nil, nil)

	if len(v.HighPriority) != highPriorityCap {
		t.Errorf("high-priority bucket = %d, want %d", len(v.HighPriority), highPriorityCap)
	}
	if len(v.Overdue) != 2 || v.Overdue[0].ID != "late-urgent" || v.Overdue[1].ID != "late-low" {
		t.Errorf("Overdue order = %+v", v.Overdue)
	}
	// Tasks past the high-priority cap fall through; none are active, so
	// they vanish from the view.
	if len(v.InProgress) != 0 {
		t.Errorf("InProgress = %+v", v.InProgress)
	}
}

func TestToday_CapKeepsMostUrgent(t *testing.T) {
	statuses := statusSet()
	today := "2026-06-15"

	// Five high-priority tasks fill the bucket before the urgent ones are
	// even seen; ranking must still keep both urgent tasks.
	var tasks []model.Task
	for i := 0; i < 5; i++ {
		tk := taskIn(fmt.Sprintf("high-%d", i), "s-active", i)
		tk.Priority = model.PriorityHigh
		tasks = append(tasks, tk)
	}
	for i := 0; i < 2; i++ {
		tk := taskIn(fmt.Sprintf("urgent-%d", i), "s-backlog", i)
		tk.Priority = model.PriorityUrgent
		tasks = append(tasks, tk)
	}

	v := Today(today, tasks, statuses, nil, nil)

	if len(v.HighPriority) != highPriorityCap {
		t.Fatalf("high-priority bucket = %d, want %d", len(v.HighPriority), highPriorityCap)
	}
	if v.HighPriority[0].ID != "urgent-0" || v.HighPriority[1].ID != "urgent-1" {
		t.Errorf("urgent tasks squeezed out: %s, %s", v.HighPriority[0].ID, v.HighPriority[1].ID)
	}
	for _, tk := range v.HighPriority[2:] {
		if tk.Priority != model.PriorityHigh {
			t.Errorf("unexpected filler task %s (p%d)", tk.ID, tk.Priority)
		}
	}
	// The two displaced high tasks are active, so they fall through.
	if len(v.InProgress) != 2 {
		t.Fatalf("InProgress = %+v", v.InProgress)
	}
	for _, tk := range v.InProgress {
		if tk.Priority != model.PriorityHigh {
			t.Errorf("fall-through task %s has priority %d", tk.ID, tk.Priority)
		}
	}
}

func TestToday_SkipsArchivedAndDone(t *testing.T) {
	statuses := statusSet()
	archived := taskIn("archived", "s-active", 0)
	archived.Archived = true
	done := taskIn("done", "s-done", 0)

	v := Today("2026-06-15", []model.Task{archived, done}, statuses, nil, nil)
	if !v.Empty() {
		t.Errorf("expected empty view, got %+v", v)
	}
}
