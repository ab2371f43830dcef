package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"twitter-clone/internal/domain"
	"twitter-clone/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	fullname TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	confirm_hash TEXT NOT NULL,
	confirmed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_confirm_hash ON users(confirm_hash);
`

const selectUserColumns = `
SELECT id, email, username, fullname, password_hash, confirm_hash, confirmed, created_at, updated_at
FROM users`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, username, fullname, password_hash, confirm_hash, confirmed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.Fullname,
		user.PasswordHash,
		user.ConfirmHash,
		user.Confirmed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %s: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUserColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByConfirmHash(ctx context.Context, hash string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE confirm_hash = ?`, hash)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	// an exact email match wins over a username that happens to look like one
	row := r.db.QueryRowContext(ctx, selectUserColumns+`
WHERE email = ? OR username = ?
ORDER BY CASE WHEN email = ? THEN 0 ELSE 1 END
LIMIT 1`,
		login, login, login,
	)
	return scanUser(row)
}

func (r *UserRepository) SetConfirmed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET confirmed = 1, updated_at = ?
WHERE id = ?`,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm user rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("confirm user %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Fullname,
		&user.PasswordHash,
		&user.ConfirmHash,
		&user.Confirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
