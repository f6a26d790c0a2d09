// Package bus carries corrective events between entity stores. Stores that
// need to fix up a sibling's collection (status deletion reassigning tasks,
// workspace deletion cascading) publish here instead of importing each other,
// keeping ownership one-directional.
//
// Dispatch is synchronous and in-order. Handlers must not publish back into
// the bus; re-entry during another store's mutation is not supported.
package bus

import "sync"

// StatusDeleted fires after a project store removes a status. Tasks that
// referenced StatusID must move to ReplacementID.
type StatusDeleted struct {
	ProjectID     string
	StatusID      string
	ReplacementID string
}

// WorkspaceDeleted fires after a workspace and its remote descendants are
// gone. Subscribers drop in-memory state belonging to the listed projects.
type WorkspaceDeleted struct {
	WorkspaceID string
	ProjectIDs  []string
}

// Bus is a minimal in-process event bus.
type Bus struct {
	mu               sync.Mutex
	statusDeleted    []func(StatusDeleted)
	workspaceDeleted []func(WorkspaceDeleted)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// OnStatusDeleted registers a handler for status deletions.
func (b *Bus) OnStatusDeleted(fn func(StatusDeleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusDeleted = append(b.statusDeleted, fn)
}

// OnWorkspaceDeleted registers a handler for workspace deletions.
func (b *Bus) OnWorkspaceDeleted(fn func(WorkspaceDeleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.workspaceDeleted = append(b.workspaceDeleted, fn)
}

// PublishStatusDeleted dispatches to all registered handlers in order.
func (b *Bus) PublishStatusDeleted(ev StatusDeleted) {
	b.mu.Lock()
	handlers := append([]func(StatusDeleted){}, b.statusDeleted...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishWorkspaceDeleted dispatches to all registered handlers in order.
func (b *Bus) PublishWorkspaceDeleted(ev WorkspaceDeleted) {
	b.mu.Lock()
	handlers := append([]func(WorkspaceDeleted){}, b.workspaceDeleted...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}
