package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cashly/internal/core"
)

type userRepo struct {
	*repos
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	var u core.User
	err := r.queryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Add(ctx context.Context, u *core.User) error {
	_, err := r.exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return core.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
