// Package toast holds the ephemeral user-facing message queue, including the
// undo affordance for soft deletes. It is the only channel through which
// store failures reach the user.
package toast

import (
	"strconv"
	"sync"
	"time"
)

// Type classifies a toast for presentation.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeUndo    Type = "undo"
)

// DefaultDuration is how long a toast stays visible unless overridden.
const DefaultDuration = 3 * time.Second

// maxVisible caps the queue; the oldest toast is evicted beyond this.
const maxVisible = 3

// Toast is one queued message.
type Toast struct {
	ID        string
	Message   string
	Type      Type
	Duration  time.Duration
	OnUndo    func()
	CreatedAt time.Time
}

// Option customizes a toast.
type Option func(*Toast)

// WithType sets the toast type.
func WithType(t Type) Option {
	return func(to *Toast) { to.Type = t }
}

// WithDuration overrides the display duration.
func WithDuration(d time.Duration) Option {
	return func(to *Toast) { to.Duration = d }
}

// WithUndo attaches an undo callback and marks the toast as an undo toast.
func WithUndo(fn func()) Option {
	return func(to *Toast) {
		to.Type = TypeUndo
		to.OnUndo = fn
	}
}

// Service is the toast queue. Consumers subscribe for change notification
// and render Active(); auto-dismiss timers run internally.
type Service struct {
	mu     sync.Mutex
	toasts []Toast
	timers map[string]*time.Timer
	seq    int
	subs   []func()
}

// NewService creates an empty toast service.
func NewService() *Service {
	return &Service{timers: make(map[string]*time.Timer)}
}

// Subscribe registers a callback invoked after every queue change.
func (s *Service) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Add enqueues a toast and returns its id. Beyond maxVisible the oldest
// toast is evicted (its dismiss timer stopped, its undo never called).
func (s *Service) Add(message string, opts ...Option) string {
	s.mu.Lock()
	s.seq++
	t := Toast{
		ID:        "toast-" + strconv.Itoa(s.seq),
		Message:   message,
		Type:      TypeInfo,
		Duration:  DefaultDuration,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&t)
	}

	s.toasts = append(s.toasts, t)
	for len(s.toasts) > maxVisible {
		evicted := s.toasts[0]
		s.toasts = s.toasts[1:]
		s.stopTimerLocked(evicted.ID)
	}

	id := t.ID
	s.timers[id] = time.AfterFunc(t.Duration, func() { s.Dismiss(id) })
	s.mu.Unlock()

	s.notify()
	return id
}

// Dismiss removes a toast without invoking its undo callback.
func (s *Service) Dismiss(id string) {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()
	if removed {
		s.notify()
	}
}

// Undo invokes the toast's undo callback, if any, and dismisses it.
// The callback runs outside the service lock.
func (s *Service) Undo(id string) {
	s.mu.Lock()
	var onUndo func()
	for _, t := range s.toasts {
		if t.ID == id {
			onUndo = t.OnUndo
			break
		}
	}
	removed := s.removeLocked(id)
	s.mu.Unlock()

	if onUndo != nil {
		onUndo()
	}
	if removed {
		s.notify()
	}
}

// Active returns a snapshot of the visible toasts, oldest first.
func (s *Service) Active() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

func (s *Service) removeLocked(id string) bool {
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			s.stopTimerLocked(id)
			return true
		}
	}
	return false
}

func (s *Service) stopTimerLocked(id string) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Service) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
