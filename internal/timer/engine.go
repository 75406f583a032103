// Package timer runs a pausable study stopwatch and turns a finished run into
// a recorded session.
package timer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"studytracker/backend/internal/model"
)

const defaultTickInterval = time.Second

var (
	ErrNoSubject    = errors.New("timer: no subject selected")
	ErrNotRunning   = errors.New("timer: not running")
	ErrStopInFlight = errors.New("timer: stop already in progress")
	ErrClosed       = errors.New("timer: closed")
	ErrNoRecorder   = errors.New("timer: no recorder")
)

type State int

const (
	Idle State = iota
	Running
	Paused
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Recorder persists a finished session. query.Layer satisfies it.
type Recorder interface {
	RecordSession(ctx context.Context, session model.StudySession) error
}

type Engine struct {
	recorder Recorder
	clock    Clock
	interval time.Duration
	onTick   func(elapsedSeconds int)
	log      *zap.Logger

	mu        sync.Mutex
	state     State
	closed    bool
	subjectID string
	startedAt time.Time
	// running time is accumulated plus, while Running, now - segmentStart.
	accumulated  time.Duration
	segmentStart time.Time

	ticker   Ticker
	stopTick chan struct{}
	tickDone chan struct{}
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithOnTick registers a display callback, invoked from the tick goroutine
// with whole running seconds. It must not call Close.
func WithOnTick(fn func(elapsedSeconds int)) Option {
	return func(e *Engine) {
		e.onTick = fn
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func New(recorder Recorder, opts ...Option) *Engine {
	e := &Engine{
		recorder: recorder,
		clock:    SystemClock{},
		interval: defaultTickInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("timer")
	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) SubjectID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subjectID
}

// Elapsed reports whole seconds spent Running in the current run.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.runningLocked(e.clock.Now()) / time.Second)
}

// Start begins a run for subjectID. It is a no-op unless the engine is Idle.
func (e *Engine) Start(subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ErrNoSubject
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.state != Idle {
		return nil
	}

	now := e.clock.Now()
	e.subjectID = subjectID
	e.startedAt = now
	e.segmentStart = now
	e.accumulated = 0
	e.state = Running
	e.startTickerLocked()
	e.log.Debug("started", zap.String("subject_id", subjectID))
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return ErrNotRunning
	}
	e.accumulated += e.clock.Now().Sub(e.segmentStart)
	e.state = Paused
	e.stopTickerLocked()
	return nil
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Paused {
		return ErrNotRunning
	}
	e.segmentStart = e.clock.Now()
	e.state = Running
	e.startTickerLocked()
	return nil
}

// Toggle pauses a running timer or resumes a paused one.
func (e *Engine) Toggle() error {
	switch e.State() {
	case Running:
		return e.Pause()
	case Paused:
		return e.Resume()
	default:
		return ErrNotRunning
	}
}

// Stop ends the run and records it. Runs shorter than one minute are
// discarded and Stop returns nil, nil. If recording fails the engine goes
// back to the state it was stopped from so the caller can retry.
func (e *Engine) Stop(ctx context.Context) (*model.StudySession, error) {
	e.mu.Lock()
	switch e.state {
	case Idle:
		e.mu.Unlock()
		return nil, ErrNotRunning
	case Stopping:
		e.mu.Unlock()
		return nil, ErrStopInFlight
	}

	from := e.state
	stoppedAt := e.clock.Now()
	if from == Running {
		e.accumulated += stoppedAt.Sub(e.segmentStart)
		e.stopTickerLocked()
	}
	e.state = Stopping
	running := e.accumulated
	subjectID := e.subjectID
	startedAt := e.startedAt
	e.mu.Unlock()

	minutes := int64(running / time.Minute)
	if minutes < 1 {
		e.log.Debug("discarding short run", zap.Duration("running", running))
		e.reset()
		return nil, nil
	}

	session := model.StudySession{
		SubjectID: subjectID,
		StartTime: model.FromTime(startedAt),
		EndTime:   model.FromTime(stoppedAt),
		Duration:  minutes,
		Date:      model.FromTime(model.Midnight(stoppedAt)),
	}
	if e.recorder == nil {
		e.restore(from, stoppedAt)
		return nil, ErrNoRecorder
	}
	if err := e.recorder.RecordSession(ctx, session); err != nil {
		e.log.Warn("record session failed", zap.String("subject_id", subjectID), zap.Error(err))
		e.restore(from, stoppedAt)
		return nil, err
	}

	e.log.Info("session recorded", zap.String("subject_id", subjectID), zap.Int64("minutes", minutes))
	e.reset()
	return &session, nil
}

// Close stops the tick goroutine and abandons any run in progress.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	done := e.stopTickerLocked()
	if e.state != Stopping {
		e.clearLocked()
	}
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) reset() {
	e.mu.Lock()
	e.clearLocked()
	e.mu.Unlock()
}

func (e *Engine) restore(from State, stoppedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.clearLocked()
		return
	}
	e.state = from
	if from == Running {
		e.segmentStart = stoppedAt
		e.startTickerLocked()
	}
}

func (e *Engine) clearLocked() {
	e.state = Idle
	e.subjectID = ""
	e.startedAt = time.Time{}
	e.segmentStart = time.Time{}
	e.accumulated = 0
}

func (e *Engine) runningLocked(now time.Time) time.Duration {
	if e.state == Running {
		return e.accumulated + now.Sub(e.segmentStart)
	}
	return e.accumulated
}

func (e *Engine) startTickerLocked() {
	ticker := e.clock.NewTicker(e.interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	e.ticker, e.stopTick, e.tickDone = ticker, stop, done
	go e.tick(ticker, stop, done)
}

// stopTickerLocked stops the ticker and signals its goroutine. The returned
// channel closes once the goroutine has exited.
func (e *Engine) stopTickerLocked() chan struct{} {
	if e.stopTick == nil {
		return nil
	}
	e.ticker.Stop()
	close(e.stopTick)
	done := e.tickDone
	e.ticker, e.stopTick, e.tickDone = nil, nil, nil
	return done
}

func (e *Engine) tick(ticker Ticker, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			e.mu.Lock()
			// A transition may have won the lock after this tick fired.
			if e.stopTick != stop {
				e.mu.Unlock()
				return
			}
			elapsed := int(e.runningLocked(now) / time.Second)
			e.mu.Unlock()
			if e.onTick != nil {
				e.onTick(elapsed)
			}
		}
	}
}
