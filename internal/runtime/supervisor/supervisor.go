// Package supervisor runs the daemon's long-lived goroutines (config watcher,
// reload applier) with panic recovery and restart-on-failure backoff.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	logx "nextup/pkg/logx"
)

// Supervisor manages goroutines tied to a shared context:
// named for logging, panic-safe, and waitable on shutdown.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	log      logx.Logger
	wg       sync.WaitGroup
	errOnce  sync.Once
	firstErr atomic.Value // error
}

func New(parent context.Context, log logx.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Supervisor{ctx: ctx, cancel: cancel, log: log}
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Err reports the first error or panic observed across all goroutines.
func (s *Supervisor) Err() error {
	if v := s.firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (s *Supervisor) setErr(err error) {
	s.errOnce.Do(func() { s.firstErr.Store(err) })
}

// Go runs fn once. Panics are recovered and recorded, never propagated.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.run(name, fn); err != nil {
			s.setErr(err)
		}
	}()
}

// GoRestart runs fn and restarts it on error or panic with exponential
// backoff until the supervisor context is canceled. A clean (nil) return
// stops the loop. Meant for watchers and pollers that should self-heal.
func (s *Supervisor) GoRestart(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	const (
		minBackoff = time.Second
		maxBackoff = time.Minute
	)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		backoff := minBackoff
		for {
			err := s.run(name, fn)
			if err == nil || s.ctx.Err() != nil {
				return
			}
			s.log.Warn("restarting",
				logx.String("name", name),
				logx.Duration("backoff", backoff),
				logx.Err(err))
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()
}

func (s *Supervisor) run(name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", name, r)
			s.log.Error("goroutine panicked",
				logx.String("name", name),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()
	err = fn(s.ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return err
}

// Stop cancels the context and waits for all goroutines, honoring ctx as
// the wait deadline.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return s.Err()
	case <-ctx.Done():
		return fmt.Errorf("supervisor stop: %w", ctx.Err())
	}
}
