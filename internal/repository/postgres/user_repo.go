package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Authgate/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `
INSERT INTO users (name, username, email, password_hash, is_active)
VALUES ($1, $2, $3, $4, TRUE)
RETURNING id, name, username, email, password_hash, is_active, created_at, updated_at;`

	qUserByID = `
SELECT id, name, username, email, password_hash, is_active, created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByUsername = `
SELECT id, name, username, email, password_hash, is_active, created_at, updated_at
FROM users
WHERE username = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserInsert, u.Name, u.Username, u.Email, u.PasswordHash), u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByUsername, username), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by username: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	return row.Scan(
		&out.ID,
		&out.Name,
		&out.Username,
		&out.Email,
		&out.PasswordHash,
		&out.IsActive,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
}
