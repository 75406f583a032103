package query

import (
	"context"
	"sync"

	"studytracker/backend/internal/model"
)

// fakeStore is an in-memory Store that counts calls per method.
type fakeStore struct {
	mu       sync.Mutex
	calls    map[string]int
	subjects []model.Subject
	sessions []model.StudySession
	goal     model.Goal
	failWith error

	// block, when set, holds GetSubjects until it is closed. The result is
	// the state at call time. started receives once per blocked call.
	block   chan struct{}
	started chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (f *fakeStore) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.failWith
}

func (f *fakeStore) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) AddSubject(_ context.Context, id, name, color string) error {
	if err := f.record("AddSubject"); err != nil {
		return err
	}
	f.mu.Lock()
	f.subjects = append(f.subjects, model.Subject{ID: id, Name: name, Color: color})
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) EditSubject(_ context.Context, id, name, color string) error {
	if err := f.record("EditSubject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			f.subjects[i].Name = name
			f.subjects[i].Color = color
		}
	}
	return nil
}

func (f *fakeStore) RemoveSubject(_ context.Context, id string) error {
	if err := f.record("RemoveSubject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := f.subjects[:0]
	for _, s := range f.subjects {
		if s.ID != id {
			subjects = append(subjects, s)
		}
	}
	f.subjects = subjects
	sessions := f.sessions[:0]
	for _, s := range f.sessions {
		if s.SubjectID != id {
			sessions = append(sessions, s)
		}
	}
	f.sessions = sessions
	return nil
}

func (f *fakeStore) GetSubjects(context.Context) ([]model.Subject, error) {
	if err := f.record("GetSubjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	snapshot := append([]model.Subject(nil), f.subjects...)
	block, started := f.block, f.started
	f.mu.Unlock()
	if block != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-block
	}
	return snapshot, nil
}

func (f *fakeStore) RecordSession(_ context.Context, session model.StudySession) error {
	if err := f.record("RecordSession"); err != nil {
		return err
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, session)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) GetStudySessions(context.Context) ([]model.StudySession, error) {
	if err := f.record("GetStudySessions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.StudySession(nil), f.sessions...), nil
}

func (f *fakeStore) GetSubjectSessions(_ context.Context, subjectID string) ([]model.StudySession, error) {
	if err := f.record("GetSubjectSessions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudySession
	for _, s := range f.sessions {
		if s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetWeeklySessions(_ context.Context, start, end model.Timestamp) ([]model.StudySession, error) {
	if err := f.record("GetWeeklySessions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudySession
	for _, s := range f.sessions {
		if s.Date >= start && s.Date < end {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDailyGoal(context.Context) (model.Goal, error) {
	if err := f.record("GetDailyGoal"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.goal, nil
}

func (f *fakeStore) SetDailyGoal(_ context.Context, goal model.Goal) error {
	if err := f.record("SetDailyGoal"); err != nil {
		return err
	}
	f.mu.Lock()
	f.goal = goal
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) SetTimeBasedGoal(ctx context.Context, hours int64) error {
	if err := f.record("SetTimeBasedGoal"); err != nil {
		return err
	}
	f.mu.Lock()
	f.goal = model.TimeBased{TargetHours: hours}
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) SetTaskBasedGoal(ctx context.Context, tasks int64) error {
	if err := f.record("SetTaskBasedGoal"); err != nil {
		return err
	}
	f.mu.Lock()
	f.goal = model.TaskBased{TargetSessions: tasks}
	f.mu.Unlock()
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	n.successes = append(n.successes, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Failure(message string) {
	n.mu.Lock()
	n.failures = append(n.failures, message)
	n.mu.Unlock()
}
