package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"kanri/internal/bus"
	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/toast"
)

// statusTemplate is one column in a project's initial workflow.
type statusTemplate struct {
	name     string
	color    string
	category model.StatusCategory
	isDef    bool
}

// statusTemplates maps a project type to the workflow it starts with.
// The first backlog-category column is the default landing status.
var statusTemplates = map[model.ProjectType][]statusTemplate{
	model.ProjectArt: {
		{"Ideas", "#8b5cf6", model.CategoryBacklog, true},
		{"Sketching", "#f59e0b", model.CategoryActive, false},
		{"In Progress", "#3b82f6", model.CategoryActive, false},
		{"Finished", "#10b981", model.CategoryDone, false},
	},
	model.ProjectDev: {
		{"Backlog", "#6b7280", model.CategoryBacklog, true},
		{"Todo", "#8b5cf6", model.CategoryBacklog, false},
		{"In Progress", "#3b82f6", model.CategoryActive, false},
		{"Review", "#f59e0b", model.CategoryActive, false},
		{"Done", "#10b981", model.CategoryDone, false},
	},
	model.ProjectJob: {
		{"To Apply", "#6b7280", model.CategoryBacklog, true},
		{"Applied", "#3b82f6", model.CategoryActive, false},
		{"Interviewing", "#f59e0b", model.CategoryActive, false},
		{"Closed", "#10b981", model.CategoryDone, false},
	},
	model.ProjectLife: {
		{"Someday", "#6b7280", model.CategoryBacklog, true},
		{"This Week", "#3b82f6", model.CategoryActive, false},
		{"Today", "#f59e0b", model.CategoryActive, false},
		{"Done", "#10b981", model.CategoryDone, false},
	},
	model.ProjectGeneral: {
		{"Todo", "#6b7280", model.CategoryBacklog, true},
		{"In Progress", "#3b82f6", model.CategoryActive, false},
		{"Done", "#10b981", model.CategoryDone, false},
	},
}

// ProjectStore owns workspaces, projects, statuses, tags and releases.
// Structural mutations here fan out to the task store via the bus.
type ProjectStore struct {
	notifier

	remote remote.Client
	toasts *toast.Service
	undo   *UndoCoordinator
	bus    *bus.Bus
	log    *zap.Logger

	mu         sync.Mutex
	workspaces []model.Workspace
	projects   []model.Project
	statuses   []model.Status
	tags       []model.Tag
	releases   []model.Release
}

func NewProjectStore(rc remote.Client, toasts *toast.Service, undo *UndoCoordinator, b *bus.Bus, log *zap.Logger) *ProjectStore {
	return &ProjectStore{remote: rc, toasts: toasts, undo: undo, bus: b, log: log}
}

// FetchAll replaces the structural collections with the remote state.
func (s *ProjectStore) FetchAll(ctx context.Context) error {
	wsRows, err := s.remote.SelectAll(ctx, "workspaces", nil, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch workspaces: %w", err)
	}
	projRows, err := s.remote.SelectAll(ctx, "projects", nil, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	statusRows, err := s.remote.SelectAll(ctx, "statuses", nil, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch statuses: %w", err)
	}
	tagRows, err := s.remote.SelectAll(ctx, "tags", nil, "name")
	if err != nil {
		return fmt.Errorf("fetch tags: %w", err)
	}
	relRows, err := s.remote.SelectAll(ctx, "releases", nil, "created_at")
	if err != nil {
		return fmt.Errorf("fetch releases: %w", err)
	}

	workspaces, err := remote.Decode[model.Workspace](wsRows)
	if err != nil {
		return err
	}
	projects, err := remote.Decode[model.Project](projRows)
	if err != nil {
		return err
	}
	statuses, err := remote.Decode[model.Status](statusRows)
	if err != nil {
		return err
	}
	tags, err := remote.Decode[model.Tag](tagRows)
	if err != nil {
		return err
	}
	releases, err := remote.Decode[model.Release](relRows)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.workspaces = workspaces
	s.projects = projects
	s.statuses = statuses
	s.tags = tags
	s.releases = releases
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Workspaces ---

// CreateWorkspace creates a workspace, appended after the existing ones.
func (s *ProjectStore) CreateWorkspace(ctx context.Context, name, icon string) (*model.Workspace, error) {
	s.mu.Lock()
	sortOrder := len(s.workspaces)
	s.mu.Unlock()

	row := remote.Row{"name": name, "sort_order": sortOrder}
	if icon != "" {
		row["icon"] = icon
	}
	stored, err := s.remote.Insert(ctx, "workspaces", row)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws, err := remote.DecodeOne[model.Workspace](stored)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.workspaces = append(s.workspaces, ws)
	s.mu.Unlock()
	s.notify()
	return &ws, nil
}

// UpdateWorkspace merges changes into a workspace.
func (s *ProjectStore) UpdateWorkspace(ctx context.Context, id string, changes remote.Row) error {
	s.mu.Lock()
	for i := range s.workspaces {
		if s.workspaces[i].ID == id {
			merged, err := remote.Apply(s.workspaces[i], changes)
			if err != nil {
				s.mu.Unlock()
				return err
			}
			s.workspaces[i] = merged
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return s.remote.Update(ctx, "workspaces", id, changes)
}

// DeleteWorkspace cascades: tasks of the workspace's projects, then
// statuses, then the projects, then the workspace itself. The task store
// learns about it over the bus.
func (s *ProjectStore) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	var projectIDs []string
	for _, p := range s.projects {
		if p.WorkspaceID == id {
			projectIDs = append(projectIDs, p.ID)
		}
	}
	s.mu.Unlock()

	for _, pid := range projectIDs {
		if err := s.remote.DeleteWhere(ctx, "tasks", remote.Filter{"project_id": pid}); err != nil {
			return fmt.Errorf("delete workspace tasks: %w", err)
		}
		if err := s.remote.DeleteWhere(ctx, "statuses", remote.Filter{"project_id": pid}); err != nil {
			return fmt.Errorf("delete workspace statuses: %w", err)
		}
	}
	if err := s.remote.DeleteWhere(ctx, "projects", remote.Filter{"workspace_id": id}); err != nil {
		return fmt.Errorf("delete workspace projects: %w", err)
	}
	if err := s.remote.Delete(ctx, "workspaces", id); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	gone := make(map[string]bool, len(projectIDs))
	for _, pid := range projectIDs {
		gone[pid] = true
	}

	s.mu.Lock()
	ws := s.workspaces[:0]
	for _, w := range s.workspaces {
		if w.ID != id {
			ws = append(ws, w)
		}
	}
	s.workspaces = ws

	ps := s.projects[:0]
	for _, p := range s.projects {
		if p.WorkspaceID != id {
			ps = append(ps, p)
		}
	}
	s.projects = ps

	sts := s.statuses[:0]
	for _, st := range s.statuses {
		if !gone[st.ProjectID] {
			sts = append(sts, st)
		}
	}
	s.statuses = sts
	s.mu.Unlock()
	s.notify()

	s.bus.PublishWorkspaceDeleted(bus.WorkspaceDeleted{WorkspaceID: id, ProjectIDs: projectIDs})
	return nil
}

// --- Projects ---

// CreateProject creates a project together with the starter statuses for
// its type.
func (s *ProjectStore) CreateProject(ctx context.Context, workspaceID, name string, ptype model.ProjectType) (*model.Project, error) {
	if _, ok := statusTemplates[ptype]; !ok {
		ptype = model.ProjectGeneral
	}

	s.mu.Lock()
	sortOrder := 0
	for _, p := range s.projects {
		if p.WorkspaceID == workspaceID {
			sortOrder++
		}
	}
	s.mu.Unlock()

	stored, err := s.remote.Insert(ctx, "projects", remote.Row{
		"workspace_id": workspaceID, "name": name, "type": string(ptype), "sort_order": sortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	project, err := remote.DecodeOne[model.Project](stored)
	if err != nil {
		return nil, err
	}

	var statusRows []remote.Row
	for i, tmpl := range statusTemplates[ptype] {
		statusRows = append(statusRows, remote.Row{
			"project_id": project.ID,
			"name":       tmpl.name,
			"color":      tmpl.color,
			"category":   string(tmpl.category),
			"is_default": tmpl.isDef,
			"sort_order": i,
		})
	}
	createdRows, err := s.remote.InsertMany(ctx, "statuses", statusRows)
	if err != nil {
		return nil, fmt.Errorf("create project statuses: %w", err)
	}
	statuses, err := remote.Decode[model.Status](createdRows)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.projects = append(s.projects, project)
	s.statuses = append(s.statuses, statuses...)
	s.mu.Unlock()
	s.notify()
	return &project, nil
}

// UpdateProject merges changes into a project.
func (s *ProjectStore) UpdateProject(ctx context.Context, id string, changes remote.Row) error {
	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			merged, err := remote.Apply(s.projects[i], changes)
			if err != nil {
				s.mu.Unlock()
				return err
			}
			s.projects[i] = merged
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return s.remote.Update(ctx, "projects", id, changes)
}

// DeleteProject deletes a project with its tasks and statuses.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	if err := s.remote.DeleteWhere(ctx, "tasks", remote.Filter{"project_id": id}); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	if err := s.remote.DeleteWhere(ctx, "statuses", remote.Filter{"project_id": id}); err != nil {
		return fmt.Errorf("delete project statuses: %w", err)
	}
	if err := s.remote.Delete(ctx, "projects", id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.mu.Lock()
	ps := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			ps = append(ps, p)
		}
	}
	s.projects = ps

	sts := s.statuses[:0]
	for _, st := range s.statuses {
		if st.ProjectID != id {
			sts = append(sts, st)
		}
	}
	s.statuses = sts
	s.mu.Unlock()
	s.notify()

	s.bus.PublishWorkspaceDeleted(bus.WorkspaceDeleted{ProjectIDs: []string{id}})
	return nil
}

// --- Statuses ---

// CreateStatus appends a column to a project's board.
func (s *ProjectStore) CreateStatus(ctx context.Context, projectID, name, color string, category model.StatusCategory) (*model.Status, error) {
	s.mu.Lock()
	sortOrder := 0
	for _, st := range s.statuses {
		if st.ProjectID == projectID {
			sortOrder++
		}
	}
	s.mu.Unlock()

	stored, err := s.remote.Insert(ctx, "statuses", remote.Row{
		"project_id": projectID, "name": name, "color": color,
		"category": string(category), "is_default": false, "sort_order": sortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	status, err := remote.DecodeOne[model.Status](stored)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.statuses = append(s.statuses, status)
	s.mu.Unlock()
	s.notify()
	return &status, nil
}

// UpdateStatus merges changes into a status column.
func (s *ProjectStore) UpdateStatus(ctx context.Context, id string, changes remote.Row) error {
	s.mu.Lock()
	for i := range s.statuses {
		if s.statuses[i].ID == id {
			merged, err := remote.Apply(s.statuses[i], changes)
			if err != nil {
				s.mu.Unlock()
				return err
			}
			s.statuses[i] = merged
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return s.remote.Update(ctx, "statuses", id, changes)
}

// DeleteStatus removes a board column after moving its tasks to a
// replacement: the project's default status, or the first remaining
// column. The last column of a project cannot be deleted; the call is a
// no-op then.
func (s *ProjectStore) DeleteStatus(ctx context.Context, id string) error {
	s.mu.Lock()
	var target *model.Status
	var siblings []model.Status
	for i := range s.statuses {
		if s.statuses[i].ID == id {
			target = &s.statuses[i]
		}
	}
	if target == nil {
		s.mu.Unlock()
		return nil
	}
	for _, st := range s.statuses {
		if st.ProjectID == target.ProjectID && st.ID != id {
			siblings = append(siblings, st)
		}
	}
	if len(siblings) == 0 {
		s.mu.Unlock()
		return nil
	}

	replacement := siblings[0]
	for _, st := range siblings {
		if st.IsDefault {
			replacement = st
			break
		}
	}
	projectID := target.ProjectID
	s.mu.Unlock()

	if err := s.remote.UpdateWhere(ctx, "tasks", remote.Filter{"status_id": id}, remote.Row{"status_id": replacement.ID}); err != nil {
		return fmt.Errorf("reassign tasks: %w", err)
	}
	if err := s.remote.Delete(ctx, "statuses", id); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}

	s.mu.Lock()
	sts := s.statuses[:0]
	for _, st := range s.statuses {
		if st.ID != id {
			sts = append(sts, st)
		}
	}
	s.statuses = sts
	s.mu.Unlock()
	s.notify()

	s.bus.PublishStatusDeleted(bus.StatusDeleted{ProjectID: projectID, StatusID: id, ReplacementID: replacement.ID})
	return nil
}

// ReorderStatuses rewrites the sort_order of a project's columns to match
// the given id order. Unknown ids are ignored.
func (s *ProjectStore) ReorderStatuses(ctx context.Context, projectID string, orderedIDs []string) error {
	s.mu.Lock()
	pos := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		pos[id] = i
	}
	for i := range s.statuses {
		if s.statuses[i].ProjectID == projectID {
			if p, ok := pos[s.statuses[i].ID]; ok {
				s.statuses[i].SortOrder = p
			}
		}
	}
	s.mu.Unlock()
	s.notify()

	for i, id := range orderedIDs {
		if err := s.remote.Update(ctx, "statuses", id, remote.Row{"sort_order": i}); err != nil {
			return fmt.Errorf("reorder statuses: %w", err)
		}
	}
	return nil
}

// --- Tags ---

// CreateTag creates a tag.
func (s *ProjectStore) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	stored, err := s.remote.Insert(ctx, "tags", remote.Row{"name": name, "color": color})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	tag, err := remote.DecodeOne[model.Tag](stored)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.tags = append(s.tags, tag)
	s.mu.Unlock()
	s.notify()
	return &tag, nil
}

// DeleteTag deletes a tag and its task joins.
func (s *ProjectStore) DeleteTag(ctx context.Context, id string) error {
	if err := s.remote.DeleteWhere(ctx, "task_tags", remote.Filter{"tag_id": id}); err != nil {
		return fmt.Errorf("delete tag joins: %w", err)
	}
	if err := s.remote.Delete(ctx, "tags", id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	s.mu.Lock()
	ts := s.tags[:0]
	for _, t := range s.tags {
		if t.ID != id {
			ts = append(ts, t)
		}
	}
	s.tags = ts
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Releases ---

// CreateRelease creates a release for a project.
func (s *ProjectStore) CreateRelease(ctx context.Context, projectID, version string, title *string) (*model.Release, error) {
	row := remote.Row{"project_id": projectID, "version": version, "status": string(model.ReleaseDraft)}
	if title != nil {
		row["title"] = *title
	}
	stored, err := s.remote.Insert(ctx, "releases", row)
	if err != nil {
		return nil, fmt.Errorf("create release: %w", err)
	}
	release, err := remote.DecodeOne[model.Release](stored)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.releases = append(s.releases, release)
	s.mu.Unlock()
	s.notify()
	return &release, nil
}

// UpdateRelease merges changes into a release.
func (s *ProjectStore) UpdateRelease(ctx context.Context, id string, changes remote.Row) error {
	s.mu.Lock()
	for i := range s.releases {
		if s.releases[i].ID == id {
			merged, err := remote.Apply(s.releases[i], changes)
			if err != nil {
				s.mu.Unlock()
				return err
			}
			s.releases[i] = merged
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return s.remote.Update(ctx, "releases", id, changes)
}

// DeleteRelease deletes a release and detaches its tasks.
func (s *ProjectStore) DeleteRelease(ctx context.Context, id string) error {
	if err := s.remote.UpdateWhere(ctx, "tasks", remote.Filter{"release_id": id}, remote.Row{"release_id": nil}); err != nil {
		return fmt.Errorf("detach release tasks: %w", err)
	}
	if err := s.remote.Delete(ctx, "releases", id); err != nil {
		return fmt.Errorf("delete release: %w", err)
	}
	s.mu.Lock()
	rs := s.releases[:0]
	for _, r := range s.releases {
		if r.ID != id {
			rs = append(rs, r)
		}
	}
	s.releases = rs
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- Accessors ---

// Workspaces returns a snapshot ordered by sort_order.
func (s *ProjectStore) Workspaces() []model.Workspace {
	s.mu.Lock()
	out := make([]model.Workspace, len(s.workspaces))
	copy(out, s.workspaces)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// Projects returns a workspace's projects ordered by sort_order.
func (s *ProjectStore) Projects(workspaceID string) []model.Project {
	s.mu.Lock()
	var out []model.Project
	for _, p := range s.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// AllProjects returns every project.
func (s *ProjectStore) AllProjects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Project returns one project by id.
func (s *ProjectStore) Project(id string) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// ProjectByName finds a project by case-sensitive name.
func (s *ProjectStore) ProjectByName(name string) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.Name == name {
			return p, true
		}
	}
	return model.Project{}, false
}

// Statuses returns a project's columns ordered by sort_order.
func (s *ProjectStore) Statuses(projectID string) []model.Status {
	s.mu.Lock()
	var out []model.Status
	for _, st := range s.statuses {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// StatusByID returns one status by id.
func (s *ProjectStore) StatusByID(id string) (model.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.statuses {
		if st.ID == id {
			return st, true
		}
	}
	return model.Status{}, false
}

// DefaultStatus returns a project's landing column: the column marked
// default, else the first by sort_order.
func (s *ProjectStore) DefaultStatus(projectID string) (model.Status, bool) {
	cols := s.Statuses(projectID)
	if len(cols) == 0 {
		return model.Status{}, false
	}
	for _, st := range cols {
		if st.IsDefault {
			return st, true
		}
	}
	return cols[0], true
}

// Tags returns every tag.
func (s *ProjectStore) Tags() []model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// TagByName finds a tag by name.
func (s *ProjectStore) TagByName(name string) (model.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tag{}, false
}

// Releases returns a project's releases.
func (s *ProjectStore) Releases(projectID string) []model.Release {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Release
	for _, r := range s.releases {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}
