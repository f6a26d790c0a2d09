package toast

import (
	"testing"
	"time"
)

func TestAdd_AssignsSequentialIDs(t *testing.T) {
	s := NewService()

	id1 := s.Add("first")
	id2 := s.Add("second")

	if id1 == id2 {
		t.Errorf("ids must be unique, both were %q", id1)
	}
	active := s.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active toasts, got %d", len(active))
	}
	if active[0].Message != "first" || active[1].Message != "second" {
		t.Errorf("unexpected order: %q, %q", active[0].Message, active[1].Message)
	}
}

func TestAdd_EvictsOldestBeyondMax(t *testing.T) {
	s := NewService()

	s.Add("one")
	s.Add("two")
	s.Add("three")
	s.Add("four")

	active := s.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 active toasts, got %d", len(active))
	}
	if active[0].Message != "two" {
		t.Errorf("expected oldest evicted, head is %q", active[0].Message)
	}
}

func TestDismiss_DoesNotInvokeUndo(t *testing.T) {
	s := NewService()

	undone := false
	id := s.Add("archived", WithUndo(func() { undone = true }))
	s.Dismiss(id)

	if undone {
		t.Error("Dismiss must not invoke the undo callback")
	}
	if len(s.Active()) != 0 {
		t.Error("toast still active after dismiss")
	}
}

func TestUndo_InvokesCallbackOnce(t *testing.T) {
	s := NewService()

	calls := 0
	id := s.Add("archived", WithUndo(func() { calls++ }))

	s.Undo(id)
	s.Undo(id) // gone, must be a no-op

	if calls != 1 {
		t.Errorf("expected exactly 1 undo call, got %d", calls)
	}
}

func TestAutoDismiss(t *testing.T) {
	s := NewService()

	s.Add("short lived", WithDuration(10*time.Millisecond))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(s.Active()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("toast not auto-dismissed after its duration")
}

func TestSubscribe_NotifiedOnChange(t *testing.T) {
	s := NewService()

	notified := 0
	s.Subscribe(func() { notified++ })

	id := s.Add("hello")
	s.Dismiss(id)

	if notified != 2 {
		t.Errorf("expected 2 notifications (add + dismiss), got %d", notified)
	}
}
