// Package run drives the secondary code-generation-and-execution path: a
// compile-to-target worker followed by an execute worker, each role owned
// by at most one live instance at a time.
package run

import (
	"context"
	"sync"

	"pkt.systems/pslog"
)

// Event is one message from the execution stream.
type Event struct {
	Stderr string `json:"stderr,omitempty"`
	Done   bool   `json:"done,omitempty"`
}

// Generator compiles source to target-language text.
type Generator interface {
	Generate(ctx context.Context, source string) (string, error)
}

// Executor runs generated source, emitting incremental console output
// followed by a terminal done event from the manager.
type Executor interface {
	Execute(ctx context.Context, generated string, emit func(Event)) error
}

// Manager owns the generate/execute worker pair. Starting a new run
// terminates the previous pair first; this is an ownership handoff, not a
// race: output is only honored while the originating run is the current
// owner of its role.
type Manager struct {
	gen  Generator
	exec Executor
	log  pslog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewManager constructs a run manager.
func NewManager(gen Generator, exec Executor, logger pslog.Logger) *Manager {
	if logger != nil {
		logger = logger.With("component", "run")
	}
	return &Manager{gen: gen, exec: exec, log: logger}
}

// Run starts a new generate/execute pair for source and returns its event
// stream. The stream always terminates with a Done event and is then
// closed. Generation or execution failure is reported as a stderr chunk
// before the terminal done.
func (m *Manager) Run(ctx context.Context, source string) <-chan Event {
	events := make(chan Event, 16)

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel() // depose the previous worker pair
	}
	m.generation++
	gen := m.generation
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go m.work(runCtx, gen, source, events)
	return events
}

// Stop terminates the current worker pair, if any.
func (m *Manager) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
}

func (m *Manager) work(ctx context.Context, gen uint64, source string, events chan<- Event) {
	defer close(events)

	// Deposed workers keep running until they notice cancellation, but
	// their messages are dropped the moment ownership moves on.
	emit := func(ev Event) {
		if !m.isCurrent(gen) {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	generated, err := m.gen.Generate(ctx, source)
	if err != nil {
		if m.log != nil {
			m.log.Warn("code generation failed", "err", err)
		}
		emit(Event{Stderr: err.Error()})
		emit(Event{Done: true})
		return
	}

	if err := m.exec.Execute(ctx, generated, emit); err != nil {
		if m.log != nil {
			m.log.Warn("execution failed", "err", err)
		}
		emit(Event{Stderr: err.Error()})
	}
	emit(Event{Done: true})
}

func (m *Manager) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == gen
}
