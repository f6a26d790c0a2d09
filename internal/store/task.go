package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanri/internal/bus"
	"kanri/internal/model"
	"kanri/internal/recur"
	"kanri/internal/remote"
	"kanri/internal/toast"
)

// activityLimit caps how many audit entries a per-task fetch keeps.
const activityLimit = 50

// TaskStore owns the task collection and its child records: tags, checklist
// items, notes, dependencies, attachments and the activity log. Child
// records are lazily fetched per task rather than eagerly with the list.
type TaskStore struct {
	notifier

	remote remote.Client
	toasts *toast.Service
	undo   *UndoCoordinator
	log    *zap.Logger

	// Lazy cross-references into the project store, wired at session
	// start. They avoid a static dependency between the stores.
	statusByID    func(id string) (model.Status, bool)
	defaultStatus func(projectID string) (model.Status, bool)

	mu           sync.Mutex
	tasks        []model.Task
	taskTags     []model.TaskTag
	checklist    []model.ChecklistItem
	notes        []model.TaskNote
	activity     []model.TaskActivity
	dependencies []model.TaskDependency
	attachments  []model.TaskAttachment
	loading      bool

	wg sync.WaitGroup
}

// NewTaskStore creates a task store. Cross-store lookups default to
// "unknown" until wired via SetStatusLookup.
func NewTaskStore(rc remote.Client, toasts *toast.Service, undo *UndoCoordinator, log *zap.Logger) *TaskStore {
	return &TaskStore{
		remote:        rc,
		toasts:        toasts,
		undo:          undo,
		log:           log,
		statusByID:    func(string) (model.Status, bool) { return model.Status{}, false },
		defaultStatus: func(string) (model.Status, bool) { return model.Status{}, false },
	}
}

// SetStatusLookup wires the lazy references used by the recurrence side
// effect: resolving a status by id and finding a project's default status.
func (s *TaskStore) SetStatusLookup(byID func(string) (model.Status, bool), defaultFor func(string) (model.Status, bool)) {
	s.statusByID = byID
	s.defaultStatus = defaultFor
}

// BindBus subscribes the store to corrective events from sibling stores.
func (s *TaskStore) BindBus(b *bus.Bus) {
	b.OnStatusDeleted(s.handleStatusDeleted)
	b.OnWorkspaceDeleted(s.handleWorkspaceDeleted)
}

// Wait drains in-flight background persistence. One-shot callers run it
// before exit; tests use it for determinism.
func (s *TaskStore) Wait() {
	s.wg.Wait()
}

// Loading reports whether a FetchAll is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// FetchAll replaces the in-memory collections with the remote state.
// On failure the previous state stays untouched: stale but consistent.
func (s *TaskStore) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}()

	taskRows, err := s.remote.SelectAll(ctx, "tasks", remote.Filter{"archived": false}, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}
	tagRows, err := s.remote.SelectAll(ctx, "task_tags", nil, "")
	if err != nil {
		return fmt.Errorf("fetch task tags: %w", err)
	}
	checkRows, err := s.remote.SelectAll(ctx, "checklist_items", nil, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch checklist: %w", err)
	}
	// Dependencies are best-effort: an older backend without the table
	// must not break the task list.
	depRows, err := s.remote.SelectAll(ctx, "task_dependencies", nil, "")
	if err != nil {
		s.log.Warn("fetch dependencies failed", zap.Error(err))
		depRows = nil
	}

	tasks, err := remote.Decode[model.Task](taskRows)
	if err != nil {
		return err
	}
	tags, err := remote.Decode[model.TaskTag](tagRows)
	if err != nil {
		return err
	}
	checklist, err := remote.Decode[model.ChecklistItem](checkRows)
	if err != nil {
		return err
	}
	deps, err := remote.Decode[model.TaskDependency](depRows)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.taskTags = tags
	s.checklist = checklist
	s.dependencies = deps
	s.mu.Unlock()
	return nil
}

// FetchTaskDetails loads the lazily-fetched child records for one task,
// replacing that task's segment of each collection.
func (s *TaskStore) FetchTaskDetails(ctx context.Context, taskID string) error {
	checkRows, err := s.remote.SelectAll(ctx, "checklist_items", remote.Filter{"task_id": taskID}, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch checklist: %w", err)
	}
	noteRows, err := s.remote.SelectAll(ctx, "task_notes", remote.Filter{"task_id": taskID}, "created_at")
	if err != nil {
		return fmt.Errorf("fetch notes: %w", err)
	}
	attachRows, err := s.remote.SelectAll(ctx, "task_attachments", remote.Filter{"task_id": taskID}, "created_at")
	if err != nil {
		return fmt.Errorf("fetch attachments: %w", err)
	}

	checklist, err := remote.Decode[model.ChecklistItem](checkRows)
	if err != nil {
		return err
	}
	notes, err := remote.Decode[model.TaskNote](noteRows)
	if err != nil {
		return err
	}
	attachments, err := remote.Decode[model.TaskAttachment](attachRows)
	if err != nil {
		return err
	}
	// Notes and attachments read newest-first.
	reverse(notes)
	reverse(attachments)

	s.mu.Lock()
	s.checklist = replaceByTask(s.checklist, taskID, checklist, func(c model.ChecklistItem) string { return c.TaskID })
	s.notes = replaceByTask(s.notes, taskID, notes, func(n model.TaskNote) string { return n.TaskID })
	s.attachments = replaceByTask(s.attachments, taskID, attachments, func(a model.TaskAttachment) string { return a.TaskID })
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchActivity loads the most recent audit entries for one task,
// newest first.
func (s *TaskStore) FetchActivity(ctx context.Context, taskID string) error {
	rows, err := s.remote.SelectAll(ctx, "task_activity", remote.Filter{"task_id": taskID}, "created_at")
	if err != nil {
		return fmt.Errorf("fetch activity: %w", err)
	}
	entries, err := remote.Decode[model.TaskActivity](rows)
	if err != nil {
		return err
	}
	reverse(entries)
	if len(entries) > activityLimit {
		entries = entries[:activityLimit]
	}

	s.mu.Lock()
	s.activity = replaceByTask(s.activity, taskID, entries, func(a model.TaskActivity) string { return a.TaskID })
	s.mu.Unlock()
	s.notify()
	return nil
}

// Create inserts a task optimistically, persists it, and reconciles the
// local record with the authoritative server row. On remote failure the
// optimistic record rolls back, a toast names the reason and nil is
// returned.
func (s *TaskStore) Create(ctx context.Context, t model.Task) (*model.Task, error) {
	if t.Type == "" {
		t.Type = model.TypeTask
	}
	if t.Priority == 0 {
		t.Priority = model.PriorityLow
	}

	s.mu.Lock()
	if t.SortOrder == 0 {
		t.SortOrder = s.groupCountLocked(t.ProjectID, t.StatusID)
	}
	tempID := "pending-" + uuid.NewString()
	t.ID = tempID
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	s.notify()

	row, err := remote.Encode(t)
	if err != nil {
		s.rollbackTask(tempID)
		return nil, err
	}
	// The service assigns identity.
	delete(row, "id")

	stored, err := s.remote.Insert(ctx, "tasks", row)
	if err != nil {
		s.rollbackTask(tempID)
		s.toasts.Add(fmt.Sprintf("Failed to create task: %v", err), toast.WithType(toast.TypeWarning))
		return nil, fmt.Errorf("create task: %w", err)
	}

	created, err := remote.DecodeOne[model.Task](stored)
	if err != nil {
		s.rollbackTask(tempID)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == tempID {
			s.tasks[i] = created
			break
		}
	}
	s.mu.Unlock()
	s.notify()

	s.async(func() { s.appendActivity(created.ID, "created", nil, nil, nil) })
	return &created, nil
}

// Update merges the changes into the local record synchronously and fires
// the remote update in the background. Remote failure does not roll back;
// it is logged and accepted. Tracked-field changes append audit entries,
// and a status change into a done category spawns the next occurrence of a
// recurring task.
func (s *TaskStore) Update(id string, changes remote.Row) {
	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	old := s.tasks[idx]
	merged, err := remote.Apply(old, changes)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("apply task update", zap.String("task", id), zap.Error(err))
		return
	}
	s.tasks[idx] = merged
	s.mu.Unlock()
	s.notify()

	s.async(func() {
		ctx := context.Background()
		if err := s.remote.Update(ctx, "tasks", id, changes); err != nil {
			// Accepted desync risk: local state is the UI's truth.
			s.log.Warn("persist task update failed", zap.String("task", id), zap.Error(err))
		}

		oldRow, err := remote.Encode(old)
		if err != nil {
			s.log.Warn("encode old task", zap.String("task", id), zap.Error(err))
			return
		}
		for _, field := range model.TrackedFields {
			key := string(field)
			if fieldChanged(oldRow, changes, key) {
				oldVal := stringify(oldRow[key])
				newVal := stringify(changes[key])
				s.appendActivity(id, "updated", &key, &oldVal, &newVal)
			}
		}

		if _, ok := changes["status_id"]; ok {
			s.maybeSpawnRecurrence(old, changes)
		}
	})
}

// maybeSpawnRecurrence clones a recurring task when its status moved into a
// done category. Runs after the persistence call, off the caller's path.
func (s *TaskStore) maybeSpawnRecurrence(old model.Task, changes remote.Row) {
	if old.RecurrenceRule == nil || old.DueDate == nil {
		return
	}
	newStatusID, _ := changes["status_id"].(string)
	if newStatusID == "" {
		return
	}
	status, ok := s.statusByID(newStatusID)
	if !ok || status.Category != model.CategoryDone {
		return
	}

	nextDue, err := recur.Next(*old.DueDate, *old.RecurrenceRule)
	if err != nil {
		s.log.Warn("advance recurrence", zap.String("task", old.ID), zap.Error(err))
		return
	}

	// The clone lands in the project's default status, not the completed
	// bucket; fall back to the task's previous status.
	statusID := old.StatusID
	if old.ProjectID != nil {
		if def, ok := s.defaultStatus(*old.ProjectID); ok {
			statusID = &def.ID
		}
	}

	sourceID := old.ID
	if old.RecurrenceSourceID != nil {
		sourceID = *old.RecurrenceSourceID
	}

	clone := model.Task{
		Title:              old.Title,
		Description:        old.Description,
		ProjectID:          old.ProjectID,
		StatusID:           statusID,
		Priority:           old.Priority,
		Type:               old.Type,
		DueDate:            &nextDue,
		RecurrenceRule:     old.RecurrenceRule,
		RecurrenceSourceID: &sourceID,
	}
	if _, err := s.Create(context.Background(), clone); err != nil {
		s.log.Warn("spawn recurring task", zap.String("task", old.ID), zap.Error(err))
	}
}

// Archive removes the task from the visible collection immediately and
// hands the rest to the undo coordinator: restore on undo, otherwise a
// single remote archive plus one audit entry after the grace window.
func (s *TaskStore) Archive(id string) {
	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	task := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.mu.Unlock()
	s.notify()

	s.undo.Schedule(
		fmt.Sprintf("%q archived", task.Title),
		func() { // restore: purely local, no network round-trip
			s.mu.Lock()
			s.tasks = append(s.tasks, task)
			s.mu.Unlock()
			s.notify()
		},
		func() { // commit
			ctx := context.Background()
			if err := s.remote.Update(ctx, "tasks", id, remote.Row{"archived": true}); err != nil {
				s.log.Warn("persist archive failed", zap.String("task", id), zap.Error(err))
				return
			}
			s.appendActivity(id, "archived", nil, nil, nil)
		},
	)
}

// Delete hard-deletes a task with no undo.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return s.remote.Delete(ctx, "tasks", id)
}

// --- Checklist ---

// AddChecklistItem appends a checklist item to a task.
func (s *TaskStore) AddChecklistItem(ctx context.Context, taskID, title string) error {
	s.mu.Lock()
	sortOrder := 0
	for _, c := range s.checklist {
		if c.TaskID == taskID {
			sortOrder++
		}
	}
	s.mu.Unlock()

	stored, err := s.remote.Insert(ctx, "checklist_items", remote.Row{
		"task_id": taskID, "title": title, "checked": false, "sort_order": sortOrder,
	})
	if err != nil {
		return fmt.Errorf("add checklist item: %w", err)
	}
	item, err := remote.DecodeOne[model.ChecklistItem](stored)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.checklist = append(s.checklist, item)
	s.mu.Unlock()
	s.notify()
	return nil
}

// ToggleChecklistItem flips an item's checked state optimistically.
func (s *TaskStore) ToggleChecklistItem(id string) {
	s.mu.Lock()
	checked := false
	found := false
	for i := range s.checklist {
		if s.checklist[i].ID == id {
			s.checklist[i].Checked = !s.checklist[i].Checked
			checked = s.checklist[i].Checked
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return
	}
	s.notify()

	s.async(func() {
		if err := s.remote.Update(context.Background(), "checklist_items", id, remote.Row{"checked": checked}); err != nil {
			s.log.Warn("persist checklist toggle failed", zap.String("item", id), zap.Error(err))
		}
	})
}

// DeleteChecklistItem removes an item optimistically.
func (s *TaskStore) DeleteChecklistItem(id string) {
	s.mu.Lock()
	for i := range s.checklist {
		if s.checklist[i].ID == id {
			s.checklist = append(s.checklist[:i], s.checklist[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()

	s.async(func() {
		if err := s.remote.Delete(context.Background(), "checklist_items", id); err != nil {
			s.log.Warn("persist checklist delete failed", zap.String("item", id), zap.Error(err))
		}
	})
}

// --- Notes ---

// AddNote attaches a note to a task.
func (s *TaskStore) AddNote(ctx context.Context, taskID, content string) error {
	stored, err := s.remote.Insert(ctx, "task_notes", remote.Row{"task_id": taskID, "content": content})
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	note, err := remote.DecodeOne[model.TaskNote](stored)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.notes = append([]model.TaskNote{note}, s.notes...)
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Tags ---

// AddTag joins a tag to a task.
func (s *TaskStore) AddTag(ctx context.Context, taskID, tagID string) error {
	if _, err := s.remote.Insert(ctx, "task_tags", remote.Row{"task_id": taskID, "tag_id": tagID}); err != nil {
		return fmt.Errorf("add tag: %w", err)
	}
	s.mu.Lock()
	s.taskTags = append(s.taskTags, model.TaskTag{TaskID: taskID, TagID: tagID})
	s.mu.Unlock()
	s.notify()
	return nil
}

// RemoveTag detaches a tag from a task.
func (s *TaskStore) RemoveTag(ctx context.Context, taskID, tagID string) error {
	if err := s.remote.DeleteWhere(ctx, "task_tags", remote.Filter{"task_id": taskID, "tag_id": tagID}); err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	s.mu.Lock()
	kept := s.taskTags[:0]
	for _, tt := range s.taskTags {
		if !(tt.TaskID == taskID && tt.TagID == tagID) {
			kept = append(kept, tt)
		}
	}
	s.taskTags = kept
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Dependencies ---

// AddDependency records that taskID depends on dependsOnTaskID.
func (s *TaskStore) AddDependency(ctx context.Context, taskID, dependsOnTaskID string) error {
	stored, err := s.remote.Insert(ctx, "task_dependencies", remote.Row{
		"task_id": taskID, "depends_on_task_id": dependsOnTaskID,
	})
	if err != nil {
		return fmt.Errorf("add dependency: %w", err)
	}
	dep, err := remote.DecodeOne[model.TaskDependency](stored)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dependencies = append(s.dependencies, dep)
	s.mu.Unlock()
	s.notify()
	return nil
}

// RemoveDependency deletes a dependency edge by its id.
func (s *TaskStore) RemoveDependency(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, "task_dependencies", id); err != nil {
		return fmt.Errorf("remove dependency: %w", err)
	}
	s.mu.Lock()
	for i := range s.dependencies {
		if s.dependencies[i].ID == id {
			s.dependencies = append(s.dependencies[:i], s.dependencies[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Attachments ---

// BlobStore is the external blob storage collaborator for attachments.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Remove(ctx context.Context, path string) error
	URL(path string) string
}

// UploadAttachment stores the blob, then its metadata. If the metadata
// insert fails after the blob upload succeeded, the blob is removed so
// storage never leaks an orphan.
func (s *TaskStore) UploadAttachment(ctx context.Context, blobs BlobStore, taskID, fileName, fileType string, data []byte) error {
	ext := "bin"
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		ext = fileName[i+1:]
	}
	path := taskID + "/" + uuid.NewString() + "." + ext

	if err := blobs.Put(ctx, path, data); err != nil {
		s.toasts.Add(fmt.Sprintf("Upload failed: %v", err), toast.WithType(toast.TypeWarning))
		return fmt.Errorf("upload blob: %w", err)
	}

	stored, err := s.remote.Insert(ctx, "task_attachments", remote.Row{
		"task_id":   taskID,
		"file_name": fileName,
		"file_url":  blobs.URL(path),
		"file_path": path,
		"file_type": fileType,
		"file_size": len(data),
	})
	if err != nil {
		// Orphan cleanup: the blob exists but nothing references it.
		if rmErr := blobs.Remove(ctx, path); rmErr != nil {
			s.log.Warn("orphan blob cleanup failed", zap.String("path", path), zap.Error(rmErr))
		}
		s.toasts.Add(fmt.Sprintf("Upload failed: %v", err), toast.WithType(toast.TypeWarning))
		return fmt.Errorf("store attachment: %w", err)
	}

	attachment, err := remote.DecodeOne[model.TaskAttachment](stored)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.attachments = append(s.attachments, attachment)
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteAttachment removes the metadata row and the stored blob.
func (s *TaskStore) DeleteAttachment(ctx context.Context, blobs BlobStore, id, path string) error {
	s.mu.Lock()
	for i := range s.attachments {
		if s.attachments[i].ID == id {
			s.attachments = append(s.attachments[:i], s.attachments[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()

	if err := s.remote.Delete(ctx, "task_attachments", id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if path != "" {
		if err := blobs.Remove(ctx, path); err != nil {
			s.log.Warn("remove attachment blob failed", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

// --- Audit log ---

// appendActivity writes one audit record. Best-effort: failures are logged,
// never retried, never surfaced.
func (s *TaskStore) appendActivity(taskID, action string, field, oldValue, newValue *string) {
	row := remote.Row{"task_id": taskID, "action": action}
	if field != nil {
		row["field"] = *field
	}
	if oldValue != nil {
		row["old_value"] = *oldValue
	}
	if newValue != nil {
		row["new_value"] = *newValue
	}

	stored, err := s.remote.Insert(context.Background(), "task_activity", row)
	if err != nil {
		s.log.Warn("audit write failed", zap.String("task", taskID), zap.String("action", action), zap.Error(err))
		return
	}
	entry, err := remote.DecodeOne[model.TaskActivity](stored)
	if err != nil {
		s.log.Warn("audit decode failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.activity = append([]model.TaskActivity{entry}, s.activity...)
	s.mu.Unlock()
	s.notify()
}

// --- Bus handlers ---

// handleStatusDeleted reassigns tasks from a deleted status to its
// replacement. The remote rows were already moved by the project store;
// this corrects the in-memory mirror.
func (s *TaskStore) handleStatusDeleted(ev bus.StatusDeleted) {
	s.mu.Lock()
	changed := false
	for i := range s.tasks {
		if s.tasks[i].StatusID != nil && *s.tasks[i].StatusID == ev.StatusID {
			id := ev.ReplacementID
			s.tasks[i].StatusID = &id
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// handleWorkspaceDeleted drops every task belonging to the deleted
// workspace's projects.
func (s *TaskStore) handleWorkspaceDeleted(ev bus.WorkspaceDeleted) {
	gone := make(map[string]bool, len(ev.ProjectIDs))
	for _, id := range ev.ProjectIDs {
		gone[id] = true
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ProjectID == nil || !gone[*t.ProjectID] {
			kept = append(kept, t)
		}
	}
	changed := len(kept) != len(s.tasks)
	s.tasks = kept
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// --- Accessors ---

// Tasks returns a snapshot of the visible task collection.
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task returns one task by id.
func (s *TaskStore) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// ProjectTasks returns the tasks of one project.
func (s *TaskStore) ProjectTasks(projectID string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// StatusTasks returns the tasks in one status, ordered by sort_order.
// Ties keep insertion order.
func (s *TaskStore) StatusTasks(statusID string) []model.Task {
	s.mu.Lock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.StatusID != nil && *t.StatusID == statusID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// InboxTasks returns tasks not assigned to any project.
func (s *TaskStore) InboxTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.ProjectID == nil {
			out = append(out, t)
		}
	}
	return out
}

// Checklist returns a task's checklist items ordered by sort_order.
func (s *TaskStore) Checklist(taskID string) []model.ChecklistItem {
	s.mu.Lock()
	var out []model.ChecklistItem
	for _, c := range s.checklist {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// Notes returns a task's notes, newest first.
func (s *TaskStore) Notes(taskID string) []model.TaskNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskNote
	for _, n := range s.notes {
		if n.TaskID == taskID {
			out = append(out, n)
		}
	}
	return out
}

// TagIDs returns the ids of the tags joined to a task.
func (s *TaskStore) TagIDs(taskID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, tt := range s.taskTags {
		if tt.TaskID == taskID {
			out = append(out, tt.TagID)
		}
	}
	return out
}

// TaskTags returns every task/tag join row.
func (s *TaskStore) TaskTags() []model.TaskTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TaskTag(nil), s.taskTags...)
}

// Dependencies returns the edges where taskID is the dependent.
func (s *TaskStore) Dependencies(taskID string) []model.TaskDependency {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskDependency
	for _, d := range s.dependencies {
		if d.TaskID == taskID {
			out = append(out, d)
		}
	}
	return out
}

// AllDependencies returns every dependency edge.
func (s *TaskStore) AllDependencies() []model.TaskDependency {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TaskDependency, len(s.dependencies))
	copy(out, s.dependencies)
	return out
}

// Blocking returns the edges where taskID is the dependency target.
func (s *TaskStore) Blocking(taskID string) []model.TaskDependency {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskDependency
	for _, d := range s.dependencies {
		if d.DependsOnTaskID == taskID {
			out = append(out, d)
		}
	}
	return out
}

// Attachments returns a task's attachments.
func (s *TaskStore) Attachments(taskID string) []model.TaskAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskAttachment
	for _, a := range s.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

// Activity returns a task's audit entries, newest first.
func (s *TaskStore) Activity(taskID string) []model.TaskActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskActivity
	for _, a := range s.activity {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

// --- internals ---

func (s *TaskStore) async(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *TaskStore) rollbackTask(id string) {
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// groupCountLocked counts tasks in the same (project, status) group; the
// default sort_order for a new task.
func (s *TaskStore) groupCountLocked(projectID, statusID *string) int {
	n := 0
	for _, t := range s.tasks {
		if strPtrEq(t.ProjectID, projectID) && strPtrEq(t.StatusID, statusID) {
			n++
		}
	}
	return n
}

func replaceByTask[T any](all []T, taskID string, fresh []T, key func(T) string) []T {
	kept := make([]T, 0, len(all)+len(fresh))
	for _, v := range all {
		if key(v) != taskID {
			kept = append(kept, v)
		}
	}
	return append(kept, fresh...)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
