package query

import (
	"context"

	"studytracker/backend/internal/model"
)

// Store is the remote study store. remote.Client implements it.
type Store interface {
	AddSubject(ctx context.Context, id, name, color string) error
	EditSubject(ctx context.Context, id, name, color string) error
	RemoveSubject(ctx context.Context, id string) error
	GetSubjects(ctx context.Context) ([]model.Subject, error)

	RecordSession(ctx context.Context, session model.StudySession) error
	GetStudySessions(ctx context.Context) ([]model.StudySession, error)
	GetSubjectSessions(ctx context.Context, subjectID string) ([]model.StudySession, error)
	GetWeeklySessions(ctx context.Context, weekStart, weekEnd model.Timestamp) ([]model.StudySession, error)

	GetDailyGoal(ctx context.Context) (model.Goal, error)
	SetDailyGoal(ctx context.Context, goal model.Goal) error
	SetTimeBasedGoal(ctx context.Context, hours int64) error
	SetTaskBasedGoal(ctx context.Context, tasks int64) error
}
