// Package query wraps the study store in cached reads and invalidating writes.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/model"
)

const defaultCacheTTL = 5 * time.Minute

type Layer struct {
	cache    *cache.Cache
	group    singleflight.Group
	notifier Notifier
	log      *zap.Logger

	mu    sync.Mutex
	store Store
	// gen advances on every invalidation; invalidated records the generation
	// at which each family root was last dropped.
	gen         uint64
	invalidated map[string]uint64
	flushed     uint64
}

type Option func(*Layer)

func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Layer) {
		if ttl > 0 {
			l.cache = cache.New(ttl, 2*ttl)
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Layer) {
		if n != nil {
			l.notifier = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Layer) {
		if log != nil {
			l.log = log
		}
	}
}

func New(opts ...Option) *Layer {
	l := &Layer{
		cache:       cache.New(defaultCacheTTL, 2*defaultCacheTTL),
		log:         zap.NewNop(),
		invalidated: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("query")
	if l.notifier == nil {
		l.notifier = logNotifier{log: l.log}
	}
	return l
}

// Connect makes store the active link and drops everything cached from a
// previous one.
func (l *Layer) Connect(store Store) {
	l.mu.Lock()
	l.store = store
	l.flushLocked()
	l.mu.Unlock()
}

func (l *Layer) Disconnect() {
	l.Connect(nil)
}

func (l *Layer) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store != nil
}

// NewSubjectID returns a fresh caller-assigned subject id.
func (l *Layer) NewSubjectID() string {
	return uuid.NewString()
}

func (l *Layer) Subjects(ctx context.Context) ([]model.Subject, error) {
	return read(ctx, l, keySubjects, func(ctx context.Context, s Store) ([]model.Subject, error) {
		return s.GetSubjects(ctx)
	})
}

func (l *Layer) Sessions(ctx context.Context) ([]model.StudySession, error) {
	return read(ctx, l, keySessions, func(ctx context.Context, s Store) ([]model.StudySession, error) {
		return s.GetStudySessions(ctx)
	})
}

// SessionsInRange returns sessions whose date lies in [start, end).
func (l *Layer) SessionsInRange(ctx context.Context, start, end model.Timestamp) ([]model.StudySession, error) {
	return read(ctx, l, sessionsRangeKey(start, end), func(ctx context.Context, s Store) ([]model.StudySession, error) {
		return s.GetWeeklySessions(ctx, start, end)
	})
}

func (l *Layer) SessionsForSubject(ctx context.Context, subjectID string) ([]model.StudySession, error) {
	return read(ctx, l, sessionsSubjectKey(subjectID), func(ctx context.Context, s Store) ([]model.StudySession, error) {
		return s.GetSubjectSessions(ctx, subjectID)
	})
}

// DailyGoal returns nil when no goal is set or the layer is disconnected.
func (l *Layer) DailyGoal(ctx context.Context) (model.Goal, error) {
	return read(ctx, l, keyDailyGoal, func(ctx context.Context, s Store) (model.Goal, error) {
		return s.GetDailyGoal(ctx)
	})
}

// read serves key from the cache or fetches it once for all concurrent
// callers. Without a store it answers the zero value.
func read[T any](ctx context.Context, l *Layer, key string, fetch func(context.Context, Store) (T, error)) (T, error) {
	var zero T
	if v, ok := l.cache.Get(key); ok {
		return clone(as[T](v)), nil
	}

	l.mu.Lock()
	store := l.store
	startGen := l.gen
	flight := fmt.Sprintf("%s@%d", key, l.lastDropLocked(key))
	l.mu.Unlock()

	if store == nil {
		return emptyOf(zero), nil
	}

	ch := l.group.DoChan(flight, func() (interface{}, error) {
		v, err := fetch(context.WithoutCancel(ctx), store)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.lastDropLocked(key) <= startGen {
			l.cache.SetDefault(key, v)
		} else {
			l.log.Debug("dropping stale read", zap.String("key", key))
		}
		l.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			l.log.Warn("read failed", zap.String("key", key), zap.Error(res.Err))
			return zero, fmt.Errorf("read %s: %w", key, res.Err)
		}
		return clone(as[T](res.Val)), nil
	}
}

func (l *Layer) AddSubject(ctx context.Context, id, name, color string) error {
	subject := normalizedSubject(id, name, color)
	return l.mutate(ctx, opAddSubject, model.ValidateSubject(subject), func(s Store) error {
		return s.AddSubject(ctx, subject.ID, subject.Name, subject.Color)
	})
}

func (l *Layer) EditSubject(ctx context.Context, id, name, color string) error {
	subject := normalizedSubject(id, name, color)
	return l.mutate(ctx, opEditSubject, model.ValidateSubject(subject), func(s Store) error {
		return s.EditSubject(ctx, subject.ID, subject.Name, subject.Color)
	})
}

// RemoveSubject also makes every sessions read stale, since the store
// deletes the subject's sessions with it.
func (l *Layer) RemoveSubject(ctx context.Context, id string) error {
	var verr error
	if strings.TrimSpace(id) == "" {
		verr = &model.ValidationError{Fields: map[string]string{"id": "required"}}
	}
	return l.mutate(ctx, opRemoveSubject, verr, func(s Store) error {
		return s.RemoveSubject(ctx, id)
	})
}

func (l *Layer) RecordSession(ctx context.Context, session model.StudySession) error {
	return l.mutate(ctx, opRecordSession, model.ValidateSession(session), func(s Store) error {
		return s.RecordSession(ctx, session)
	})
}

func (l *Layer) SetDailyGoal(ctx context.Context, goal model.Goal) error {
	return l.mutate(ctx, opSetDailyGoal, model.ValidateGoal(goal), func(s Store) error {
		return s.SetDailyGoal(ctx, goal)
	})
}

func (l *Layer) SetTimeBasedGoal(ctx context.Context, hours int64) error {
	return l.mutate(ctx, opSetTimeBasedGoal, model.ValidateGoal(model.TimeBased{TargetHours: hours}), func(s Store) error {
		return s.SetTimeBasedGoal(ctx, hours)
	})
}

func (l *Layer) SetTaskBasedGoal(ctx context.Context, tasks int64) error {
	return l.mutate(ctx, opSetTaskBasedGoal, model.ValidateGoal(model.TaskBased{TargetSessions: tasks}), func(s Store) error {
		return s.SetTaskBasedGoal(ctx, tasks)
	})
}

// mutate runs one write: local validation, connection check, the store call,
// then invalidation and a notification. Nothing is retried.
func (l *Layer) mutate(ctx context.Context, o op, validationErr error, call func(Store) error) error {
	out := outcomes[o]

	if validationErr != nil {
		return l.fail(o, out.failure, errors.Join(ErrValidation, validationErr))
	}

	l.mu.Lock()
	store := l.store
	l.mu.Unlock()
	if store == nil {
		return l.fail(o, out.failure, ErrNoConnection)
	}

	if err := call(store); err != nil {
		message := out.failure
		var apiErr *apperrors.APIError
		if out.useRemoteMessage && errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}
		return l.fail(o, message, err)
	}

	l.Invalidate(invalidations[o]...)
	l.log.Debug("mutation applied", zap.String("op", string(o)))
	l.notifier.Success(out.success)
	return nil
}

func (l *Layer) fail(o op, message string, err error) error {
	l.log.Warn("mutation failed", zap.String("op", string(o)), zap.Error(err))
	l.notifier.Failure(message)
	return &MutationError{Op: string(o), Message: message, Err: err}
}

// Invalidate drops each key and every key beneath it, and marks fetches
// already in flight for those keys as stale.
func (l *Layer) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	for _, root := range keys {
		l.invalidated[root] = l.gen
	}
	for key := range l.cache.Items() {
		for _, root := range keys {
			if covers(root, key) {
				l.cache.Delete(key)
				break
			}
		}
	}
}

func (l *Layer) flushLocked() {
	l.gen++
	l.flushed = l.gen
	l.cache.Flush()
}

// lastDropLocked is the newest generation at which key was invalidated.
func (l *Layer) lastDropLocked(key string) uint64 {
	last := l.flushed
	for _, root := range roots(key) {
		if g := l.invalidated[root]; g > last {
			last = g
		}
	}
	return last
}

func normalizedSubject(id, name, color string) model.Subject {
	subject := model.Subject{ID: id, Name: name, Color: color}
	model.NormalizeSubject(&subject)
	if subject.Color == "" {
		subject.Color = model.DefaultSubjectColor
	}
	return subject
}

// as tolerates the nil stored for an absent goal.
func as[T any](v interface{}) T {
	t, _ := v.(T)
	return t
}

// clone copies cached slices so callers cannot mutate the cache.
func clone[T any](v T) T {
	switch s := any(v).(type) {
	case []model.Subject:
		return any(append([]model.Subject(nil), s...)).(T)
	case []model.StudySession:
		return any(append([]model.StudySession(nil), s...)).(T)
	}
	return v
}

func emptyOf[T any](zero T) T {
	switch any(zero).(type) {
	case []model.Subject:
		return any([]model.Subject{}).(T)
	case []model.StudySession:
		return any([]model.StudySession{}).(T)
	}
	return zero
}
