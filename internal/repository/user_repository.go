package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"studytracker/backend/internal/model"
)

const userColumns = `id, email, password_hash, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create returns ErrConflict when the email or id is taken.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		int64(model.FromTime(user.CreatedAt)),
		int64(model.FromTime(user.UpdatedAt)),
	)
	switch {
	case isConstraint(err, sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey):
		return ErrConflict
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail expects an already normalized (lower-cased) email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

// getBy looks a user up by a unique column. column is never caller input.
func (r *UserRepository) getBy(ctx context.Context, column, value string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)

	var (
		user                 model.User
		createdAt, updatedAt int64
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	user.CreatedAt = model.Timestamp(createdAt).Time().UTC()
	user.UpdatedAt = model.Timestamp(updatedAt).Time().UTC()
	return &user, nil
}
