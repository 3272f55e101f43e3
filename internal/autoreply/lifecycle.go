package autoreply

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type LifecycleState int

const (
	StateUninitialized LifecycleState = iota
	StateAwaitingQR
	StateAuthenticated
	StateReady
	StateDisconnected
)

func (s LifecycleState) String() string {
	switch s {
	case StateAwaitingQR:
		return "awaiting_qr"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// Lifecycle tracks the session state reported by the transport.
type Lifecycle struct {
	mu      sync.Mutex
	state   LifecycleState
	changed chan struct{}
	log     *log.Logger
}

func NewLifecycle(logger *log.Logger) *Lifecycle {
	return &Lifecycle{
		changed: make(chan struct{}),
		log:     logger.WithPrefix("lifecycle"),
	}
}

func (l *Lifecycle) State() LifecycleState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) Ready() bool {
	return l.State() == StateReady
}

// Set moves to s and wakes every waiter.
func (l *Lifecycle) Set(s LifecycleState) {
	l.mu.Lock()
	prev := l.state
	if prev == s {
		l.mu.Unlock()
		return
	}
	l.state = s
	close(l.changed)
	l.changed = make(chan struct{})
	l.mu.Unlock()

	l.log.Info("state changed", "from", prev, "to", s)
}

func (l *Lifecycle) snapshot() (LifecycleState, <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.changed
}

type WatchdogConfig struct {
	// Timeout is how long the session may stay short of ready.
	// Time spent waiting for a QR scan does not count.
	Timeout    time.Duration
	MaxRetries int
	Recover    func(ctx context.Context) error
}

// Watch reconnects through cfg.Recover whenever the session fails to reach
// StateReady in time. After MaxRetries consecutive attempts it stops
// reconnecting until the session state changes again. It returns only when
// ctx is done.
func (l *Lifecycle) Watch(ctx context.Context, cfg WatchdogConfig) error {
	if cfg.Timeout <= 0 || cfg.Recover == nil {
		<-ctx.Done()
		return nil
	}

	attempts := 0
	for {
		ready, err := l.waitReady(ctx, cfg.Timeout)
		if err != nil {
			return nil
		}

		if ready {
			attempts = 0
			if err := l.waitLeave(ctx, StateReady); err != nil {
				return nil
			}
			continue
		}

		if attempts >= cfg.MaxRetries {
			state := l.State()
			l.log.Error("session not ready, giving up until the state changes",
				"state", state, "attempts", attempts)
			if err := l.waitLeave(ctx, state); err != nil {
				return nil
			}
			attempts = 0
			continue
		}
		attempts++
		l.log.Warn("session not ready in time, reconnecting",
			"state", l.State(), "attempt", attempts, "max", cfg.MaxRetries)
		if err := cfg.Recover(ctx); err != nil {
			l.log.Error("reconnect failed", "attempt", attempts, "err", err)
		}
	}
}

func (l *Lifecycle) waitReady(ctx context.Context, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		state, changed := l.snapshot()
		if state == StateReady {
			return true, nil
		}

		var deadline <-chan time.Time
		if state != StateAwaitingQR {
			deadline = timer.C
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline:
			return false, nil
		case <-changed:
			if state == StateAwaitingQR {
				timer.Reset(timeout)
			}
		}
	}
}

func (l *Lifecycle) waitLeave(ctx context.Context, s LifecycleState) error {
	for {
		state, changed := l.snapshot()
		if state != s {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
