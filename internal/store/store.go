// Package store holds the in-memory entity stores that mirror the remote
// tables. Each store is the single source of truth for one entity family:
// mutations apply to local state synchronously, persist in the background,
// and reconcile or roll back on failure. Stores are constructed once at
// session start and passed by reference; reactive consumers subscribe for
// change notification.
//
// Failure policy follows the remote-call taxonomy: create failures roll back
// and surface a toast; update and audit-log failures are logged and accepted
// (local state stays the UI's truth); invariant violations are refused
// outright. No remote error ever escapes a store.
package store

import (
	"fmt"
	"sync"

	"kanri/internal/remote"
)

// notifier implements the subscribe/notify half of a store.
type notifier struct {
	mu   sync.Mutex
	subs []func()
}

// Subscribe registers a callback invoked after every collection change.
func (n *notifier) Subscribe(fn func()) {
	n.mu.Lock()
	n.subs = append(n.subs, fn)
	n.mu.Unlock()
}

func (n *notifier) notify() {
	n.mu.Lock()
	subs := append([]func(){}, n.subs...)
	n.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// stringify renders a row value for audit diffs. Nil renders empty, which is
// how cleared fields are recorded.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// fieldChanged reports whether an update row changes a field relative to the
// entity's current encoding, comparing stringified values.
func fieldChanged(old remote.Row, changes remote.Row, key string) bool {
	v, present := changes[key]
	if !present {
		return false
	}
	return stringify(v) != stringify(old[key])
}

// strPtrEq compares two optional string fields.
func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
