package postgres

import (
	"context"
	"database/sql"
	"errors"

	"phrasebook/internal/domain"
)

const userColumns = "id, username, password_hash, created_at"

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var u domain.User
	err := d.q(ctx).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "user", username)
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var u domain.User
	err := d.q(ctx).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return &u, nil
}

// Create creates a new user. A taken username violates users_username_key
// and is reported as domain.ErrAlreadyExists.
func (d *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var u domain.User
	err := d.q(ctx).QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING "+userColumns,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user", username)
	}
	return &u, nil
}
