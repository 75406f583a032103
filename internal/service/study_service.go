package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/model"
	"studytracker/backend/internal/repository"
)

// StudyService implements the store operations for one authenticated user at
// a time: subjects, immutable sessions and the singleton daily goal.
type StudyService struct {
	repo *repository.StudyRepository
	now  func() time.Time
	log  *zap.Logger
}

func NewStudyService(repo *repository.StudyRepository, log *zap.Logger) *StudyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudyService{repo: repo, now: time.Now, log: log.Named("study")}
}

func (s *StudyService) AddSubject(ctx context.Context, userID string, subject model.Subject) (*model.Subject, *apperrors.APIError) {
	model.NormalizeSubject(&subject)
	if apiErr := invalid("invalid subject", model.ValidateSubject(subject)); apiErr != nil {
		return nil, apiErr
	}
	subject.CreationDate = model.FromTime(s.now())

	err := s.repo.InsertSubject(ctx, userID, subject)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.Conflict("subject_exists", "a subject with this id already exists", nil)
	}
	if err != nil {
		s.log.Error("add subject", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("failed to add subject")
	}
	return &subject, nil
}

func (s *StudyService) EditSubject(ctx context.Context, userID string, subject model.Subject) *apperrors.APIError {
	model.NormalizeSubject(&subject)
	if apiErr := invalid("invalid subject", model.ValidateSubject(subject)); apiErr != nil {
		return apiErr
	}

	err := s.repo.UpdateSubject(ctx, userID, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return subjectNotFound()
	}
	if err != nil {
		s.log.Error("edit subject", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("failed to update subject")
	}
	return nil
}

// RemoveSubject deletes the subject and, by cascade, its sessions.
func (s *StudyService) RemoveSubject(ctx context.Context, userID, subjectID string) *apperrors.APIError {
	err := s.repo.DeleteSubject(ctx, userID, subjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return subjectNotFound()
	}
	if err != nil {
		s.log.Error("remove subject", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("failed to delete subject")
	}
	return nil
}

func (s *StudyService) Subjects(ctx context.Context, userID string) ([]model.Subject, *apperrors.APIError) {
	subjects, err := s.repo.ListSubjects(ctx, userID)
	if err != nil {
		s.log.Error("list subjects", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("failed to get subjects")
	}
	return subjects, nil
}

func (s *StudyService) RecordSession(ctx context.Context, userID string, session model.StudySession) *apperrors.APIError {
	if apiErr := invalid("invalid session", model.ValidateSession(session)); apiErr != nil {
		return apiErr
	}

	err := s.repo.InsertSession(ctx, userID, session)
	if errors.Is(err, repository.ErrNotFound) {
		return subjectNotFound()
	}
	if err != nil {
		s.log.Error("record session", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("failed to record session")
	}
	return nil
}

func (s *StudyService) Sessions(ctx context.Context, userID string) ([]model.StudySession, *apperrors.APIError) {
	return s.listSessions(ctx, userID, repository.SessionFilter{})
}

func (s *StudyService) SubjectSessions(ctx context.Context, userID, subjectID string) ([]model.StudySession, *apperrors.APIError) {
	return s.listSessions(ctx, userID, repository.SessionFilter{SubjectID: subjectID})
}

// WeeklySessions returns sessions whose date lies in [weekStart, weekEnd).
func (s *StudyService) WeeklySessions(ctx context.Context, userID string, weekStart, weekEnd model.Timestamp) ([]model.StudySession, *apperrors.APIError) {
	if weekStart <= 0 || weekEnd <= weekStart {
		return nil, apperrors.BadRequest("invalid_range", "weekEnd must be after weekStart")
	}
	return s.listSessions(ctx, userID, repository.SessionFilter{From: weekStart, To: weekEnd})
}

func (s *StudyService) DailyGoal(ctx context.Context, userID string) (model.Goal, *apperrors.APIError) {
	goal, err := s.repo.GetGoal(ctx, userID)
	if err != nil {
		s.log.Error("get goal", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("failed to get goal")
	}
	return goal, nil
}

func (s *StudyService) SetDailyGoal(ctx context.Context, userID string, goal model.Goal) *apperrors.APIError {
	if apiErr := invalid("invalid goal", model.ValidateGoal(goal)); apiErr != nil {
		return apiErr
	}
	if err := s.repo.UpsertGoal(ctx, userID, goal, s.now()); err != nil {
		s.log.Error("set goal", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("failed to save goal")
	}
	return nil
}

func (s *StudyService) listSessions(ctx context.Context, userID string, filter repository.SessionFilter) ([]model.StudySession, *apperrors.APIError) {
	sessions, err := s.repo.ListSessions(ctx, userID, filter)
	if err != nil {
		s.log.Error("list sessions", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("failed to get sessions")
	}
	return sessions, nil
}

func subjectNotFound() *apperrors.APIError {
	return apperrors.NotFound("subject_not_found", "subject not found")
}

func invalid(message string, err error) *apperrors.APIError {
	if err == nil {
		return nil
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return apperrors.Invalid(message, verr.Fields)
	}
	return apperrors.BadRequest("invalid_input", err.Error())
}
