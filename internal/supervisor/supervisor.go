// Package supervisor owns the watcher's long-lived background loops. Each
// loop is tracked by name with an explicit lifecycle so starts are idempotent
// and liveness can be reported over the command surface.
package supervisor

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// State of one background loop.
type State string

const (
	NotStarted State = "not started"
	Running    State = "running"
	Stopped    State = "stopped"
)

// LoopFunc is a long-running task body. It returns only when its context is
// cancelled or an unrecoverable fault escapes its own retry handling.
type LoopFunc func(ctx context.Context) error

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Supervisor starts, stops, and reports on the background loops. At most one
// instance of a named loop is live at any time.
type Supervisor struct {
	mu     sync.Mutex
	tasks  map[string]*task
	logger zerolog.Logger
}

// New constructs an empty supervisor.
func New(logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		tasks:  make(map[string]*task),
		logger: logger.With().Str("component", "supervisor").Logger(),
	}
}

// Start launches the named loop unless an instance is already running, in
// which case it is a no-op. Returns true when a new task was started.
func (s *Supervisor) Start(ctx context.Context, name string, fn LoopFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[name]; ok && !t.exited() {
		s.logger.Debug().Str("task", name).Msg("start ignored: already running")
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[name] = t

	s.logger.Info().Str("task", name).Msg("starting task")
	go func() {
		defer close(t.done)
		err := fn(loopCtx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			s.logger.Info().Str("task", name).Msg("task stopped")
		default:
			s.logger.Error().Err(err).Str("task", name).Msg("task exited with error")
		}
	}()
	return true
}

// Stop cancels the named loop and waits for it to exit. Returns false when
// the loop was not running.
func (s *Supervisor) Stop(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()

	if !ok || t.exited() {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// StopAll cancels every known loop and waits for them.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
		<-t.done
	}
}

// TaskState reports the lifecycle state of the named loop.
func (s *Supervisor) TaskState(name string) State {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()

	if !ok {
		return NotStarted
	}
	if t.exited() {
		return Stopped
	}
	return Running
}

// Liveness reports the state of the given loops by name.
func (s *Supervisor) Liveness(names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = string(s.TaskState(name))
	}
	return out
}
