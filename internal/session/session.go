// Package session orchestrates compilation for one edit session: it
// debounces source edits, issues requests to the compile backend, builds
// derived caches, and publishes each result atomically to every view.
package session

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/compile"
)

// DefaultDebounce is the quiet interval after the last edit before a
// compile fires.
const DefaultDebounce = 500 * time.Millisecond

// Config controls session behavior.
type Config struct {
	Debounce time.Duration
	Stage    compile.Stage
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if !c.Stage.Valid() {
		c.Stage = compile.StageAll
	}
	return c
}

// Sink observes published results. OnResult is called after the result and
// all its caches are fully built and swapped in.
type Sink interface {
	OnResult(*Result)
}

// Session is the compilation orchestrator. Single writer of the current
// result; any number of readers.
type Session struct {
	backend compile.Client
	cfg     Config
	log     pslog.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	current *Result
	sinks   []Sink
}

// New constructs a session over the given backend.
func New(backend compile.Client, cfg Config, logger pslog.Logger) *Session {
	if logger != nil {
		logger = logger.With("component", "session")
	}
	return &Session{
		backend: backend,
		cfg:     cfg.withDefaults(),
		log:     logger,
	}
}

// AddSink registers a result observer.
func (s *Session) AddSink(sink Sink) {
	if s == nil || sink == nil {
		return
	}
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// RemoveSink unregisters a previously added observer.
func (s *Session) RemoveSink(sink Sink) {
	if s == nil || sink == nil {
		return
	}
	s.mu.Lock()
	for i, existing := range s.sinks {
		if existing == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Current returns the last published result, which may be nil before the
// first compile completes.
func (s *Session) Current() *Result {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnSourceChange schedules a compile after the quiet interval. Each call
// cancels any pending scheduled compile; only the most recent one fires,
// earlier ones are discarded rather than queued.
func (s *Session) OnSourceChange(text string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, func() {
		s.fire(gen, text)
	})
	s.mu.Unlock()
}

// fire runs the compile scheduled for gen unless a newer edit superseded it
// while the timer callback was in flight.
func (s *Session) fire(gen uint64, text string) {
	s.mu.Lock()
	latest := s.gen == gen
	s.mu.Unlock()
	if !latest {
		return
	}
	s.CompileNow(context.Background(), text)
}

// CompileNow compiles text immediately, bypassing the debounce and
// cancelling any pending scheduled compile. The built result is published
// before it is returned. A stale completion overwrites the current result
// (last-write-wins); compiles are pure functions of source text, so this is
// a wasted render at worst, never a correctness hazard.
func (s *Session) CompileNow(ctx context.Context, text string) *Result {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	start := time.Now()
	outcome, err := s.backend.Compile(ctx, text, s.cfg.Stage)

	var res *Result
	switch {
	case err != nil:
		res = failedResult(text, err.Error())
		if s.log != nil {
			s.log.Warn("compile transport failure", "err", err)
		}
	default:
		res = buildResult(text, outcome)
		if s.log != nil {
			s.log.Debug("compile pass", "ok", res.OK(), "tokens", len(res.Tokens), "dur", time.Since(start))
		}
	}

	s.publish(res)
	return res
}

// publish swaps in the fully-built result and fans it out to sinks.
func (s *Session) publish(res *Result) {
	s.mu.Lock()
	s.current = res
	sinks := make([]Sink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.OnResult(res)
	}
}
