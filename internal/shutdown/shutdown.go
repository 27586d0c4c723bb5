// Package shutdown coordinates interrupt-driven cancellation for long
// transfers. The first signal cancels in-flight work through the manager's
// context; registered cleanups then run in LIFO order so the cache can be
// flushed before the process exits.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// CleanupFunc performs one piece of teardown. It receives a context that is
// cancelled when the shutdown itself times out.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager owns the cancellation context for an interruptible operation.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	sigCh chan os.Signal
}

// NewManager creates a manager whose context stays live until Shutdown is
// called, a notified signal arrives, or parent is cancelled.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// Context returns the context cancelled on shutdown. Pass it to the work
// that should stop on interrupt.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// RegisterCleanup adds a teardown step. Cleanups run in LIFO order.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Notify cancels the manager's context when any of the given signals
// arrives. Call Stop to release the signal handler.
func (m *Manager) Notify(signals ...os.Signal) {
	m.mu.Lock()
	if m.sigCh != nil {
		m.mu.Unlock()
		return
	}
	ch := make(chan os.Signal, 1)
	m.sigCh = ch
	m.mu.Unlock()

	signal.Notify(ch, signals...)
	go func() {
		if _, ok := <-ch; ok {
			m.Shutdown()
		}
	}()
}

// Stop detaches the signal handler installed by Notify.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sigCh != nil {
		signal.Stop(m.sigCh)
		close(m.sigCh)
		m.sigCh = nil
	}
}

// Shutdown cancels the context. Safe to call more than once; only the first
// call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(m.cancel)
}

// Wait runs the registered cleanups and blocks until they finish or ctx
// expires. Cleanup errors are not propagated; every cleanup gets a chance
// to run.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i].fn(ctx)
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
