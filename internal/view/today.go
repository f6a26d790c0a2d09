package view

import (
	"sort"

	"kanri/internal/model"
)

// todayCaps limits the size of the later triage buckets so the daily view
// stays scannable. Overdue and due-today are never truncated.
const (
	highPriorityCap = 5
	inProgressCap   = 5
	quickWinsCap    = 3
)

// quickWinTag is the tag name that feeds the quick-wins bucket.
const quickWinTag = "quick-win"

// TodayView is the daily triage projection.
type TodayView struct {
	Overdue      []model.Task
	DueToday     []model.Task
	HighPriority []model.Task
	InProgress   []model.Task
	QuickWins    []model.Task
}

// Empty reports whether every bucket is empty.
func (v TodayView) Empty() bool {
	return len(v.Overdue) == 0 && len(v.DueToday) == 0 &&
		len(v.HighPriority) == 0 && len(v.InProgress) == 0 && len(v.QuickWins) == 0
}

// Today partitions the non-archived, non-done tasks into exclusive triage
// buckets: overdue, due today, high priority, in progress, quick wins.
// Capped buckets rank their candidates by priority before truncating, so
// the cap keeps the most urgent tasks; the overflow stays eligible for the
// buckets after it. Buckets order by ascending priority except quick wins,
// which keep scan order. today is a YYYY-MM-DD date string.
func Today(today string, tasks []model.Task, statuses []model.Status, taskTags []model.TaskTag, tags []model.Tag) TodayView {
	catByStatus := make(map[string]model.StatusCategory, len(statuses))
	for _, st := range statuses {
		catByStatus[st.ID] = st.Category
	}

	quickWinTagIDs := make(map[string]bool)
	for _, tg := range tags {
		if tg.Name == quickWinTag {
			quickWinTagIDs[tg.ID] = true
		}
	}
	isQuickWin := make(map[string]bool)
	for _, tt := range taskTags {
		if quickWinTagIDs[tt.TagID] {
			isQuickWin[tt.TaskID] = true
		}
	}

	var v TodayView
	var rest []model.Task
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		var cat model.StatusCategory
		if t.StatusID != nil {
			cat = catByStatus[*t.StatusID]
		}
		if cat == model.CategoryDone {
			continue
		}

		switch {
		case t.DueDate != nil && *t.DueDate < today:
			v.Overdue = append(v.Overdue, t)
		case t.DueDate != nil && *t.DueDate == today:
			v.DueToday = append(v.DueToday, t)
		default:
			rest = append(rest, t)
		}
	}

	byPriority := func(ts []model.Task) {
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].Priority < ts[j].Priority })
	}

	// pick ranks the pool's matches by priority and keeps the best limit
	// of them; everything else, overflow included, returns as the new pool.
	pick := func(pool []model.Task, match func(model.Task) bool, limit int) ([]model.Task, []model.Task) {
		var picked, left []model.Task
		for _, t := range pool {
			if match(t) {
				picked = append(picked, t)
			} else {
				left = append(left, t)
			}
		}
		byPriority(picked)
		if len(picked) > limit {
			left = append(left, picked[limit:]...)
			picked = picked[:limit]
		}
		return picked, left
	}

	v.HighPriority, rest = pick(rest, func(t model.Task) bool {
		return t.Priority <= model.PriorityHigh
	}, highPriorityCap)
	v.InProgress, rest = pick(rest, func(t model.Task) bool {
		return t.StatusID != nil && catByStatus[*t.StatusID] == model.CategoryActive
	}, inProgressCap)
	for _, t := range rest {
		if len(v.QuickWins) == quickWinsCap {
			break
		}
		if isQuickWin[t.ID] {
			v.QuickWins = append(v.QuickWins, t)
		}
	}

	byPriority(v.Overdue)
	byPriority(v.DueToday)
	return v
}
