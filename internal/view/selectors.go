// Package view holds pure projection functions over the entity collections.
// Nothing here mutates state or touches the network; stores feed in
// snapshots and the CLI and TUI render the results.
package view

import (
	"sort"

	"kanri/internal/model"
)

// TasksByStatus groups a project's tasks into board columns keyed by status
// id, each column ordered by sort_order.
func TasksByStatus(tasks []model.Task, statuses []model.Status) map[string][]model.Task {
	cols := make(map[string][]model.Task, len(statuses))
	for _, st := range statuses {
		cols[st.ID] = nil
	}
	for _, t := range tasks {
		if t.StatusID == nil {
			continue
		}
		if _, ok := cols[*t.StatusID]; !ok {
			continue
		}
		cols[*t.StatusID] = append(cols[*t.StatusID], t)
	}
	for id := range cols {
		col := cols[id]
		sort.SliceStable(col, func(i, j int) bool { return col[i].SortOrder < col[j].SortOrder })
	}
	return cols
}

// ApplicationsByStage groups the funnel by stage. Pinned applications sort
// ahead of the rest; within each group sort_order decides.
func ApplicationsByStage(apps []model.JobApplication) map[model.JobStage][]model.JobApplication {
	stages := make(map[model.JobStage][]model.JobApplication, len(model.JobStages))
	for _, st := range model.JobStages {
		stages[st] = nil
	}
	for _, a := range apps {
		stages[a.Stage] = append(stages[a.Stage], a)
	}
	for st := range stages {
		group := stages[st]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Pinned != group[j].Pinned {
				return group[i].Pinned
			}
			return group[i].SortOrder < group[j].SortOrder
		})
	}
	return stages
}

// IsBlocked reports whether a task has an unfinished dependency. A
// dependency pointing at a missing task or a missing status does not block;
// only a target known to be unfinished does.
func IsBlocked(taskID string, deps []model.TaskDependency, tasks []model.Task, statuses []model.Status) bool {
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	catByStatus := make(map[string]model.StatusCategory, len(statuses))
	for _, st := range statuses {
		catByStatus[st.ID] = st.Category
	}

	for _, d := range deps {
		if d.TaskID != taskID {
			continue
		}
		target, ok := byID[d.DependsOnTaskID]
		if !ok {
			continue
		}
		if target.StatusID == nil {
			continue
		}
		cat, ok := catByStatus[*target.StatusID]
		if !ok {
			continue
		}
		if cat != model.CategoryDone {
			return true
		}
	}
	return false
}

// BlockedIDs returns the set of blocked task ids for a whole collection in
// one pass.
func BlockedIDs(deps []model.TaskDependency, tasks []model.Task, statuses []model.Status) map[string]bool {
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	catByStatus := make(map[string]model.StatusCategory, len(statuses))
	for _, st := range statuses {
		catByStatus[st.ID] = st.Category
	}

	blocked := make(map[string]bool)
	for _, d := range deps {
		target, ok := byID[d.DependsOnTaskID]
		if !ok || target.StatusID == nil {
			continue
		}
		cat, ok := catByStatus[*target.StatusID]
		if !ok || cat == model.CategoryDone {
			continue
		}
		blocked[d.TaskID] = true
	}
	return blocked
}
