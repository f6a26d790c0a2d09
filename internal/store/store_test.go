package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"kanri/internal/bus"
	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/toast"
)

// countingClient wraps the in-memory client, counting writes per table and
// optionally failing them.
type countingClient struct {
	remote.Client

	mu         sync.Mutex
	inserts    map[string]int
	updates    map[string]int
	failInsert map[string]bool
	failUpdate map[string]bool
}

func newCountingClient() *countingClient {
	return &countingClient{
		Client:     remote.NewMemory(),
		inserts:    map[string]int{},
		updates:    map[string]int{},
		failInsert: map[string]bool{},
		failUpdate: map[string]bool{},
	}
}

func (c *countingClient) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	c.mu.Lock()
	c.inserts[table]++
	fail := c.failInsert[table]
	c.mu.Unlock()
	if fail {
		return nil, errors.New("remote unavailable")
	}
	return c.Client.Insert(ctx, table, row)
}

func (c *countingClient) Update(ctx context.Context, table, id string, changes remote.Row) error {
	c.mu.Lock()
	c.updates[table]++
	fail := c.failUpdate[table]
	c.mu.Unlock()
	if fail {
		return errors.New("remote unavailable")
	}
	return c.Client.Update(ctx, table, id, changes)
}

func (c *countingClient) updateCount(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates[table]
}

// fixture wires a full store graph over the counting client, with a short
// undo grace so tests never sleep for real.
type fixture struct {
	client   *countingClient
	toasts   *toast.Service
	undo     *UndoCoordinator
	bus      *bus.Bus
	tasks    *TaskStore
	projects *ProjectStore
	jobs     *JobHuntStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := newCountingClient()
	toasts := toast.NewService()
	undo := NewUndoCoordinator(toasts, 100*time.Millisecond, 10*time.Millisecond)
	b := bus.New()
	log := zap.NewNop()

	f := &fixture{
		client:   client,
		toasts:   toasts,
		undo:     undo,
		bus:      b,
		tasks:    NewTaskStore(client, toasts, undo, log),
		projects: NewProjectStore(client, toasts, undo, b, log),
		jobs:     NewJobHuntStore(client, toasts, undo, log),
	}
	f.tasks.SetStatusLookup(f.projects.StatusByID, f.projects.DefaultStatus)
	f.tasks.BindBus(b)
	return f
}

// seedProject creates a workspace and a dev project, returning the project
// and its columns in board order.
func (f *fixture) seedProject(t *testing.T) (model.Project, []model.Status) {
	t.Helper()
	ctx := context.Background()
	ws, err := f.projects.CreateWorkspace(ctx, "Game", "")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	project, err := f.projects.CreateProject(ctx, ws.ID, "Engine", model.ProjectDev)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	statuses := f.projects.Statuses(project.ID)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 dev columns, got %d", len(statuses))
	}
	return *project, statuses
}

func findToast(toasts []toast.Toast, substr string) *toast.Toast {
	for i := range toasts {
		if strings.Contains(toasts[i].Message, substr) {
			return &toasts[i]
		}
	}
	return nil
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)

	task, err := f.tasks.Create(context.Background(), model.Task{
		Title:     "Fix collision jitter",
		ProjectID: &project.ID,
		StatusID:  &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" || strings.HasPrefix(task.ID, "pending-") {
		t.Errorf("expected server-assigned id, got %q", task.ID)
	}
	if task.Priority != model.PriorityLow {
		t.Errorf("expected default priority %d, got %d", model.PriorityLow, task.Priority)
	}
	if task.Type != model.TypeTask {
		t.Errorf("expected default type task, got %s", task.Type)
	}
	if task.CreatedAt == "" {
		t.Error("expected created_at to be set")
	}

	f.tasks.Wait()
	if err := f.tasks.FetchActivity(context.Background(), task.ID); err != nil {
		t.Fatalf("FetchActivity: %v", err)
	}
	activity := f.tasks.Activity(task.ID)
	if len(activity) != 1 || activity[0].Action != "created" {
		t.Fatalf("expected one created entry, got %+v", activity)
	}
}

func TestCreateTask_SortOrderPerGroup(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)

	for i := 0; i < 3; i++ {
		_, err := f.tasks.Create(context.Background(), model.Task{
			Title:     fmt.Sprintf("task %d", i),
			ProjectID: &project.ID,
			StatusID:  &statuses[0].ID,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other, err := f.tasks.Create(context.Background(), model.Task{
		Title:     "other column",
		ProjectID: &project.ID,
		StatusID:  &statuses[1].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	col := f.tasks.StatusTasks(statuses[0].ID)
	for i, task := range col {
		if task.SortOrder != i {
			t.Errorf("task %d: sort_order = %d", i, task.SortOrder)
		}
	}
	if other.SortOrder != 0 {
		t.Errorf("new group should start at 0, got %d", other.SortOrder)
	}
}

func TestCreateTask_RollbackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.client.failInsert["tasks"] = true

	task, err := f.tasks.Create(context.Background(), model.Task{Title: "doomed"})
	if err == nil {
		t.Fatal("expected error")
	}
	if task != nil {
		t.Fatalf("expected nil task, got %+v", task)
	}
	if got := f.tasks.Tasks(); len(got) != 0 {
		t.Fatalf("optimistic insert not rolled back: %+v", got)
	}
	warning := findToast(f.toasts.Active(), "Failed to create")
	if warning == nil || warning.Type != toast.TypeWarning {
		t.Error("expected a warning toast")
	}
}

func TestUpdateTask_OptimisticWithAudit(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "old title", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.tasks.Update(task.ID, remote.Row{"title": "new title", "description": "details"})

	// Local state reflects the change before any persistence settles.
	got, ok := f.tasks.Task(task.ID)
	if !ok || got.Title != "new title" {
		t.Fatalf("expected optimistic title, got %+v", got)
	}
	f.tasks.Wait()

	if err := f.tasks.FetchActivity(context.Background(), task.ID); err != nil {
		t.Fatalf("FetchActivity: %v", err)
	}
	var titleDiffs int
	for _, a := range f.tasks.Activity(task.ID) {
		if a.Action == "updated" && a.Field != nil && *a.Field == "description" {
			t.Error("description is not a tracked field")
		}
		if a.Action == "updated" && a.Field != nil && *a.Field == "title" {
			titleDiffs++
			if a.OldValue == nil || *a.OldValue != "old title" {
				t.Errorf("old_value = %v", a.OldValue)
			}
			if a.NewValue == nil || *a.NewValue != "new title" {
				t.Errorf("new_value = %v", a.NewValue)
			}
		}
	}
	if titleDiffs != 1 {
		t.Errorf("expected one title diff, got %d", titleDiffs)
	}
}

func TestUpdateTask_NoRollbackOnFailure(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "keep me", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.client.mu.Lock()
	f.client.failUpdate["tasks"] = true
	f.client.mu.Unlock()

	f.tasks.Update(task.ID, remote.Row{"title": "edited offline"})
	f.tasks.Wait()

	got, _ := f.tasks.Task(task.ID)
	if got.Title != "edited offline" {
		t.Errorf("update rolled back on remote failure: %q", got.Title)
	}
}

func TestArchive_UndoRestoresWithoutPersist(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "precious", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.tasks.Wait()
	before := f.client.updateCount("tasks")

	f.tasks.Archive(task.ID)
	if _, ok := f.tasks.Task(task.ID); ok {
		t.Fatal("archived task still visible")
	}

	undoToast := findToast(f.toasts.Active(), "archived")
	if undoToast == nil {
		t.Fatal("expected an undo toast")
	}
	f.toasts.Undo(undoToast.ID)

	if _, ok := f.tasks.Task(task.ID); !ok {
		t.Fatal("undo did not restore the task")
	}
	f.undo.Wait()
	if got := f.client.updateCount("tasks"); got != before {
		t.Errorf("undo still persisted: %d extra updates", got-before)
	}
}

func TestArchive_GraceElapsesPersistsOnce(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "disposable", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.tasks.Wait()
	before := f.client.updateCount("tasks")

	f.tasks.Archive(task.ID)
	f.undo.Wait()

	if got := f.client.updateCount("tasks"); got != before+1 {
		t.Fatalf("expected exactly one archive persist, got %d", got-before)
	}
	rows, err := f.client.SelectAll(context.Background(), "task_activity", remote.Filter{"task_id": task.ID, "action": "archived"}, "")
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one archived audit entry, got %d", len(rows))
	}
}

func TestArchive_FlushCommitsPending(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "flushed", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.tasks.Wait()
	before := f.client.updateCount("tasks")

	f.tasks.Archive(task.ID)
	f.undo.Flush()
	f.undo.Wait()

	if got := f.client.updateCount("tasks"); got != before+1 {
		t.Fatalf("expected one archive persist after flush, got %d", got-before)
	}
}

func TestRecurrence_SpawnsOnDone(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	done := statuses[len(statuses)-1]
	if done.Category != model.CategoryDone {
		t.Fatalf("last dev column should be done, got %s", done.Category)
	}

	task, err := f.tasks.Create(context.Background(), model.Task{
		Title:          "water plants",
		ProjectID:      &project.ID,
		StatusID:       &statuses[0].ID,
		DueDate:        model.Ptr("2026-01-30"),
		RecurrenceRule: model.Ptr(model.RecurMonthly),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.tasks.Update(task.ID, remote.Row{"status_id": done.ID})
	f.tasks.Wait()
	f.tasks.Wait() // the spawn's own audit write is a second round

	var clone *model.Task
	for _, tk := range f.tasks.Tasks() {
		if tk.RecurrenceSourceID != nil && *tk.RecurrenceSourceID == task.ID {
			c := tk
			clone = &c
		}
	}
	if clone == nil {
		t.Fatal("expected a spawned occurrence")
	}
	if clone.DueDate == nil || *clone.DueDate != "2026-02-28" {
		t.Errorf("clamped monthly due = %v", clone.DueDate)
	}
	if clone.StatusID == nil || *clone.StatusID != statuses[0].ID {
		t.Errorf("clone should land in the default column, got %v", clone.StatusID)
	}
	if clone.RecurrenceRule == nil || *clone.RecurrenceRule != model.RecurMonthly {
		t.Errorf("clone lost its recurrence rule")
	}
}

func TestRecurrence_NoSpawnWithoutRuleOrOnNonDone(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)

	plain, err := f.tasks.Create(context.Background(), model.Task{
		Title: "one-off", ProjectID: &project.ID, StatusID: &statuses[0].ID,
		DueDate: model.Ptr("2026-03-01"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recurring, err := f.tasks.Create(context.Background(), model.Task{
		Title: "weekly sync", ProjectID: &project.ID, StatusID: &statuses[0].ID,
		DueDate: model.Ptr("2026-03-01"), RecurrenceRule: model.Ptr(model.RecurWeekly),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := statuses[len(statuses)-1]
	f.tasks.Update(plain.ID, remote.Row{"status_id": done.ID})
	f.tasks.Update(recurring.ID, remote.Row{"status_id": statuses[1].ID}) // not done
	f.tasks.Wait()

	if got := len(f.tasks.Tasks()); got != 2 {
		t.Fatalf("expected no spawns, have %d tasks", got)
	}
}

func TestDeleteStatus_ReassignsTasks(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	backlog, todo := statuses[0], statuses[1]

	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "stranded", ProjectID: &project.ID, StatusID: &todo.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.projects.DeleteStatus(context.Background(), todo.ID); err != nil {
		t.Fatalf("DeleteStatus: %v", err)
	}

	// Backlog is the default column, so it receives the strays.
	got, _ := f.tasks.Task(task.ID)
	if got.StatusID == nil || *got.StatusID != backlog.ID {
		t.Errorf("task not reassigned locally: %v", got.StatusID)
	}
	rows, err := f.client.SelectAll(context.Background(), "tasks", remote.Filter{"id": task.ID}, "")
	if err != nil || len(rows) != 1 {
		t.Fatalf("SelectAll: %v (%d rows)", err, len(rows))
	}
	if rows[0]["status_id"] != backlog.ID {
		t.Errorf("task not reassigned remotely: %v", rows[0]["status_id"])
	}
	if len(f.projects.Statuses(project.ID)) != 4 {
		t.Errorf("status not removed")
	}
}

func TestDeleteStatus_RefusesLastColumn(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)

	for _, st := range statuses[1:] {
		if err := f.projects.DeleteStatus(context.Background(), st.ID); err != nil {
			t.Fatalf("DeleteStatus: %v", err)
		}
	}
	if err := f.projects.DeleteStatus(context.Background(), statuses[0].ID); err != nil {
		t.Fatalf("DeleteStatus on last column: %v", err)
	}
	if got := f.projects.Statuses(project.ID); len(got) != 1 {
		t.Fatalf("last column must survive, have %d", len(got))
	}
}

func TestDeleteWorkspace_Cascades(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	ws := f.projects.Workspaces()[0]

	_, err := f.tasks.Create(context.Background(), model.Task{
		Title: "will vanish", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	inbox, err := f.tasks.Create(context.Background(), model.Task{Title: "survives"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.projects.DeleteWorkspace(context.Background(), ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	if got := f.projects.Workspaces(); len(got) != 0 {
		t.Errorf("workspace survived")
	}
	if got := f.projects.AllProjects(); len(got) != 0 {
		t.Errorf("projects survived")
	}
	tasks := f.tasks.Tasks()
	if len(tasks) != 1 || tasks[0].ID != inbox.ID {
		t.Fatalf("expected only the inbox task, got %+v", tasks)
	}
	n, err := f.client.Count(context.Background(), "tasks")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("remote cascade left %d tasks", n)
	}
}

func TestJobHunt_CreateLogsCreation(t *testing.T) {
	f := newFixture(t)

	app, err := f.jobs.Create(context.Background(), model.JobApplication{StudioName: "CD Projekt"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if app.Stage != model.StageStudios {
		t.Errorf("default stage = %s", app.Stage)
	}
	if app.Interest != model.InterestMedium {
		t.Errorf("default interest = %s", app.Interest)
	}
	f.jobs.Wait()

	timeline := f.jobs.Timeline(app.ID)
	if len(timeline) != 1 {
		t.Fatalf("expected one timeline entry, got %d", len(timeline))
	}
	if timeline[0].FromStage != nil {
		t.Errorf("creation from_stage should be empty, got %v", *timeline[0].FromStage)
	}
	if timeline[0].ToStage != string(model.StageStudios) {
		t.Errorf("creation to_stage = %s", timeline[0].ToStage)
	}
}

func TestJobHunt_MoveToStage(t *testing.T) {
	f := newFixture(t)
	app, err := f.jobs.Create(context.Background(), model.JobApplication{StudioName: "Techland"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.jobs.Wait()

	f.jobs.MoveToStage(app.ID, model.StageApplied, nil)
	f.jobs.MoveToStage(app.ID, model.StageApplied, nil) // no-op
	f.jobs.MoveToStage(app.ID, model.StageOffer, model.Ptr("they called!"))
	f.jobs.Wait()

	got, _ := f.jobs.Application(app.ID)
	if got.Stage != model.StageOffer {
		t.Errorf("stage = %s", got.Stage)
	}
	timeline := f.jobs.Timeline(app.ID)
	if len(timeline) != 3 {
		t.Fatalf("expected creation + two moves, got %d entries", len(timeline))
	}
	latest := timeline[0]
	if latest.FromStage == nil || *latest.FromStage != string(model.StageApplied) {
		t.Errorf("from_stage = %v", latest.FromStage)
	}
	if latest.Note == nil || *latest.Note != "they called!" {
		t.Errorf("note = %v", latest.Note)
	}
	if findToast(f.toasts.Active(), "Offer from Techland") == nil {
		t.Error("expected a celebration toast")
	}
}

func TestJobHunt_CreateAssignsStageSortOrder(t *testing.T) {
	f := newFixture(t)

	first, err := f.jobs.Create(context.Background(), model.JobApplication{StudioName: "Bloober"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := f.jobs.Create(context.Background(), model.JobApplication{StudioName: "Flying Wild Hog"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := f.jobs.Create(context.Background(), model.JobApplication{
		StudioName: "Anshar", Stage: model.StageApplied,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.jobs.Wait()

	if first.SortOrder != 0 {
		t.Errorf("first in stage: sort_order = %d", first.SortOrder)
	}
	if second.SortOrder != 1 {
		t.Errorf("second in stage: sort_order = %d", second.SortOrder)
	}
	if other.SortOrder != 0 {
		t.Errorf("new stage should start at 0, got %d", other.SortOrder)
	}
}

func TestJobHunt_ArchiveUndo(t *testing.T) {
	f := newFixture(t)
	app, err := f.jobs.Create(context.Background(), model.JobApplication{StudioName: "11 bit"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.jobs.Wait()
	before := f.client.updateCount("job_applications")

	f.jobs.Archive(app.ID)
	if _, ok := f.jobs.Application(app.ID); ok {
		t.Fatal("archived application still visible")
	}
	undoToast := findToast(f.toasts.Active(), "archived")
	if undoToast == nil {
		t.Fatal("expected an undo toast")
	}
	f.toasts.Undo(undoToast.ID)
	f.undo.Wait()

	if _, ok := f.jobs.Application(app.ID); !ok {
		t.Fatal("undo did not restore the application")
	}
	if got := f.client.updateCount("job_applications"); got != before {
		t.Errorf("undo still persisted")
	}
}

func TestChecklistLifecycle(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "ship build", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, title := range []string{"compile", "sign", "upload"} {
		if err := f.tasks.AddChecklistItem(context.Background(), task.ID, title); err != nil {
			t.Fatalf("AddChecklistItem: %v", err)
		}
	}
	items := f.tasks.Checklist(task.ID)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, item := range items {
		if item.SortOrder != i {
			t.Errorf("item %d sort_order = %d", i, item.SortOrder)
		}
	}

	f.tasks.ToggleChecklistItem(items[0].ID)
	f.tasks.DeleteChecklistItem(items[2].ID)
	f.tasks.Wait()

	items = f.tasks.Checklist(task.ID)
	if len(items) != 2 {
		t.Fatalf("expected 2 items after delete, got %d", len(items))
	}
	if !items[0].Checked {
		t.Error("toggle did not check the item")
	}
	rows, err := f.client.SelectAll(context.Background(), "checklist_items", remote.Filter{"task_id": task.ID}, "sort_order")
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("remote has %d items", len(rows))
	}
}

func TestTagsJoin(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "polish menu", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tag, err := f.projects.CreateTag(context.Background(), "quick-win", "#10b981")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := f.tasks.AddTag(context.Background(), task.ID, tag.ID); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if ids := f.tasks.TagIDs(task.ID); len(ids) != 1 || ids[0] != tag.ID {
		t.Fatalf("TagIDs = %v", ids)
	}
	if err := f.tasks.RemoveTag(context.Background(), task.ID, tag.ID); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if ids := f.tasks.TagIDs(task.ID); len(ids) != 0 {
		t.Fatalf("tag join survived removal: %v", ids)
	}
}

// memoryBlobs records blob writes and removals without touching disk.
type memoryBlobs struct {
	mu      sync.Mutex
	puts    []string
	removed []string
}

func (b *memoryBlobs) Put(ctx context.Context, path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts = append(b.puts, path)
	return nil
}

func (b *memoryBlobs) Remove(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, path)
	return nil
}

func (b *memoryBlobs) URL(path string) string { return "blob://" + path }

func TestAttachmentLifecycle(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "concept art", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	blobs := &memoryBlobs{}

	if err := f.tasks.UploadAttachment(context.Background(), blobs, task.ID, "sketch.png", "image/png", []byte("png bytes")); err != nil {
		t.Fatalf("UploadAttachment: %v", err)
	}
	attached := f.tasks.Attachments(task.ID)
	if len(attached) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attached))
	}
	if attached[0].FileName != "sketch.png" || attached[0].FileSize != 9 {
		t.Errorf("attachment metadata = %+v", attached[0])
	}
	if attached[0].FilePath == nil {
		t.Fatal("expected a stored file path")
	}
	if len(blobs.puts) != 1 || !strings.HasPrefix(blobs.puts[0], task.ID+"/") {
		t.Errorf("blob path = %v", blobs.puts)
	}

	if err := f.tasks.DeleteAttachment(context.Background(), blobs, attached[0].ID, *attached[0].FilePath); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
	if got := f.tasks.Attachments(task.ID); len(got) != 0 {
		t.Fatalf("attachment survived delete: %+v", got)
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != blobs.puts[0] {
		t.Errorf("blob not removed: put %v, removed %v", blobs.puts, blobs.removed)
	}
}

func TestUploadAttachment_RemovesBlobWhenMetadataFails(t *testing.T) {
	f := newFixture(t)
	project, statuses := f.seedProject(t)
	task, err := f.tasks.Create(context.Background(), model.Task{
		Title: "build log", ProjectID: &project.ID, StatusID: &statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	blobs := &memoryBlobs{}
	f.client.failInsert["task_attachments"] = true

	err = f.tasks.UploadAttachment(context.Background(), blobs, task.ID, "crash.txt", "text/plain", []byte("trace"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(blobs.puts) != 1 {
		t.Fatalf("expected the blob upload to happen first, puts = %v", blobs.puts)
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != blobs.puts[0] {
		t.Fatalf("orphan blob not removed: put %v, removed %v", blobs.puts, blobs.removed)
	}
	if got := f.tasks.Attachments(task.ID); len(got) != 0 {
		t.Fatalf("attachment recorded despite failure: %+v", got)
	}
	if findToast(f.toasts.Active(), "Upload failed") == nil {
		t.Error("expected a warning toast")
	}
}
