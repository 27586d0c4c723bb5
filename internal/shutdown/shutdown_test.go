package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestShutdownCancelsContext verifies Shutdown cancels the manager's context.
func TestShutdownCancelsContext(t *testing.T) {
	m := NewManager(context.Background())

	select {
	case <-m.Context().Done():
		t.Fatal("context cancelled before shutdown")
	default:
	}

	m.Shutdown()

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after shutdown")
	}
}

// TestShutdownIdempotent verifies repeated Shutdown calls are safe.
func TestShutdownIdempotent(t *testing.T) {
	m := NewManager(context.Background())
	m.Shutdown()
	m.Shutdown()
	m.Shutdown()

	if m.Context().Err() == nil {
		t.Error("expected cancelled context")
	}
}

// TestParentCancellationPropagates verifies cancelling the parent context
// reaches the manager's context.
func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent)

	cancel()

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("parent cancellation did not propagate")
	}
}

// TestWaitRunsCleanupsInLIFOOrder verifies cleanups run last-registered
// first.
func TestWaitRunsCleanupsInLIFOOrder(t *testing.T) {
	m := NewManager(context.Background())

	var order []string
	m.RegisterCleanup("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.RegisterCleanup("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("expected LIFO order [second first], got %v", order)
	}
}

// TestWaitContinuesPastFailingCleanup verifies one failing cleanup does not
// stop the rest.
func TestWaitContinuesPastFailingCleanup(t *testing.T) {
	m := NewManager(context.Background())

	ran := false
	m.RegisterCleanup("survivor", func(context.Context) error {
		ran = true
		return nil
	})
	m.RegisterCleanup("broken", func(context.Context) error {
		return errors.New("boom")
	})

	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !ran {
		t.Error("expected cleanup after the failing one to run")
	}
}

// TestWaitTimesOut verifies Wait returns when its context expires before the
// cleanups finish.
func TestWaitTimesOut(t *testing.T) {
	m := NewManager(context.Background())

	release := make(chan struct{})
	m.RegisterCleanup("stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Wait(ctx)
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// TestStopWithoutNotify verifies Stop is a no-op when no signal handler was
// installed.
func TestStopWithoutNotify(t *testing.T) {
	m := NewManager(context.Background())
	m.Stop()

	if m.Context().Err() != nil {
		t.Error("stop should not cancel the context")
	}
}
