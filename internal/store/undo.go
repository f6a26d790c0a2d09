package store

import (
	"sync"
	"time"

	"kanri/internal/toast"
)

// Undo timing defaults. The commit timer fires a little after the toast's
// own dismissal so the two never race.
const (
	DefaultUndoGrace  = 5 * time.Second
	DefaultUndoBuffer = 200 * time.Millisecond
)

// UndoCoordinator runs the soft-delete state machine: the entity leaves the
// visible collection immediately, an undo toast stays up for the grace
// window, and the remote call happens only if the window elapses without an
// undo. One authoritative timer and one guard flag per action; exactly one
// of restore or commit ever runs, decided at fire time.
type UndoCoordinator struct {
	toasts *toast.Service
	grace  time.Duration
	buffer time.Duration

	mu      sync.Mutex
	pending map[*pendingAction]struct{}
	wg      sync.WaitGroup
}

type pendingAction struct {
	mu       sync.Mutex
	resolved bool
	timer    *time.Timer
	restore  func()
	commit   func()
}

// NewUndoCoordinator creates a coordinator. Zero durations fall back to the
// defaults.
func NewUndoCoordinator(toasts *toast.Service, grace, buffer time.Duration) *UndoCoordinator {
	if grace <= 0 {
		grace = DefaultUndoGrace
	}
	if buffer <= 0 {
		buffer = DefaultUndoBuffer
	}
	return &UndoCoordinator{
		toasts:  toasts,
		grace:   grace,
		buffer:  buffer,
		pending: make(map[*pendingAction]struct{}),
	}
}

// Schedule starts the grace window for one delete action. The caller has
// already removed the entity from its collection; restore reinserts it,
// commit performs the remote archive/delete plus any audit write.
func (u *UndoCoordinator) Schedule(message string, restore, commit func()) {
	a := &pendingAction{restore: restore, commit: commit}

	u.mu.Lock()
	u.pending[a] = struct{}{}
	u.mu.Unlock()
	u.wg.Add(1)

	u.toasts.Add(message,
		toast.WithDuration(u.grace),
		toast.WithUndo(func() { u.undo(a) }),
	)

	a.mu.Lock()
	a.timer = time.AfterFunc(u.grace+u.buffer, func() { u.fire(a) })
	a.mu.Unlock()
}

// undo cancels the pending commit and restores the entity. Safe to call any
// number of times; only the first call before the timer fires does anything.
func (u *UndoCoordinator) undo(a *pendingAction) {
	a.mu.Lock()
	if a.resolved {
		a.mu.Unlock()
		return
	}
	a.resolved = true
	a.timer.Stop()
	a.mu.Unlock()

	a.restore()
	u.finish(a)
}

// fire runs when the grace window elapses. The guard flag is read here, at
// fire time, never captured at schedule time.
func (u *UndoCoordinator) fire(a *pendingAction) {
	a.mu.Lock()
	if a.resolved {
		a.mu.Unlock()
		return
	}
	a.resolved = true
	a.mu.Unlock()

	a.commit()
	u.finish(a)
}

// Flush commits every pending action immediately. Used at process shutdown
// so a one-shot CLI invocation cannot drop an archive on the floor.
func (u *UndoCoordinator) Flush() {
	u.mu.Lock()
	actions := make([]*pendingAction, 0, len(u.pending))
	for a := range u.pending {
		actions = append(actions, a)
	}
	u.mu.Unlock()

	for _, a := range actions {
		a.mu.Lock()
		if a.resolved {
			a.mu.Unlock()
			continue
		}
		a.resolved = true
		a.timer.Stop()
		a.mu.Unlock()

		a.commit()
		u.finish(a)
	}
}

// Wait blocks until every scheduled action has resolved.
func (u *UndoCoordinator) Wait() {
	u.wg.Wait()
}

func (u *UndoCoordinator) finish(a *pendingAction) {
	u.mu.Lock()
	delete(u.pending, a)
	u.mu.Unlock()
	u.wg.Done()
}
