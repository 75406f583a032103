package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"studytracker/backend/internal/model"
)

// StudyRepository persists one user's subjects, sessions and daily goal.
// Every method is scoped by userID.
type StudyRepository struct {
	db *sql.DB
}

// SessionFilter narrows ListSessions. Zero values mean "no bound".
// From is inclusive and To exclusive, both compared against the session date.
type SessionFilter struct {
	SubjectID string
	From      model.Timestamp
	To        model.Timestamp
}

func NewStudyRepository(db *sql.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

// InsertSubject returns ErrConflict if the caller-assigned id is taken.
func (r *StudyRepository) InsertSubject(ctx context.Context, userID string, subject model.Subject) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO subjects (user_id, id, name, color, creation_date)
		 VALUES (?, ?, ?, ?, ?)`,
		userID,
		subject.ID,
		subject.Name,
		subject.Color,
		int64(subject.CreationDate),
	)
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (r *StudyRepository) UpdateSubject(ctx context.Context, userID string, subject model.Subject) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE subjects SET name = ?, color = ? WHERE user_id = ? AND id = ?`,
		subject.Name,
		subject.Color,
		userID,
		subject.ID,
	)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return expectOneRow(result, "update subject")
}

// DeleteSubject removes the subject; its sessions go with it through the
// ON DELETE CASCADE foreign key.
func (r *StudyRepository) DeleteSubject(ctx context.Context, userID, subjectID string) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM subjects WHERE user_id = ? AND id = ?`,
		userID,
		subjectID,
	)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return expectOneRow(result, "delete subject")
}

func (r *StudyRepository) ListSubjects(ctx context.Context, userID string) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, name, color, creation_date
		 FROM subjects
		 WHERE user_id = ?
		 ORDER BY creation_date ASC, rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]model.Subject, 0)
	for rows.Next() {
		var subject model.Subject
		var created int64
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Color, &created); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subject.CreationDate = model.Timestamp(created)
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

// InsertSession returns ErrNotFound when the subject does not exist.
func (r *StudyRepository) InsertSession(ctx context.Context, userID string, session model.StudySession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO study_sessions (user_id, subject_id, start_time, end_time, duration, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		session.SubjectID,
		int64(session.StartTime),
		int64(session.EndTime),
		session.Duration,
		int64(session.Date),
	)
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions returns matching sessions ordered by start time.
func (r *StudyRepository) ListSessions(ctx context.Context, userID string, filter SessionFilter) ([]model.StudySession, error) {
	clauses := []string{"user_id = ?"}
	args := []interface{}{userID}
	if filter.SubjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, int64(filter.From))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "date < ?")
		args = append(args, int64(filter.To))
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT subject_id, start_time, end_time, duration, date
		 FROM study_sessions
		 WHERE `+strings.Join(clauses, " AND ")+`
		 ORDER BY start_time ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.StudySession, 0)
	for rows.Next() {
		var s model.StudySession
		var start, end, date int64
		if err := rows.Scan(&s.SubjectID, &start, &end, &s.Duration, &date); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartTime = model.Timestamp(start)
		s.EndTime = model.Timestamp(end)
		s.Date = model.Timestamp(date)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetGoal returns a nil goal, not an error, when none has been set.
func (r *StudyRepository) GetGoal(ctx context.Context, userID string) (model.Goal, error) {
	var kind string
	var target int64
	err := r.db.QueryRowContext(
		ctx,
		`SELECT kind, target FROM daily_goals WHERE user_id = ?`,
		userID,
	).Scan(&kind, &target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	goal, err := model.NewGoal(kind, target)
	if err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	return goal, nil
}

// UpsertGoal replaces the user's goal wholesale.
func (r *StudyRepository) UpsertGoal(ctx context.Context, userID string, goal model.Goal, now time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO daily_goals (user_id, kind, target, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     kind = excluded.kind,
		     target = excluded.target,
		     updated_at = excluded.updated_at`,
		userID,
		goal.Kind(),
		goal.Target(),
		int64(model.FromTime(now)),
	)
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
