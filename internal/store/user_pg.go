package store

import (
	"context"
	"errors"
	"strings"

	"authcore/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("store: not found")

type UserPG struct {
	db *pgxpool.Pool
}

func NewUserPG(db *pgxpool.Pool) *UserPG {
	return &UserPG{db: db}
}

func (r *UserPG) Create(ctx context.Context, user *entity.User) error {
	const query = `
	INSERT INTO users (id, email, password_hash, name, is_active, is_verified)
	VALUES ($1, lower($2), $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.IsActive, user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *UserPG) GetByID(ctx context.Context, id string) (entity.User, error) {
	const query = `
	SELECT id, email, password_hash, name, is_active, is_verified, created_at, updated_at
	FROM users WHERE id = $1 LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *UserPG) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	const query = `
	SELECT id, email, password_hash, name, is_active, is_verified, created_at, updated_at
	FROM users WHERE email = lower($1) LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, strings.TrimSpace(email)))
}

func (r *UserPG) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`
	var exists bool
	err := r.db.QueryRow(ctx, query, strings.TrimSpace(email)).Scan(&exists)
	return exists, err
}

func (r *UserPG) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	const query = `
	UPDATE users SET password_hash = $2, updated_at = now()
	WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserPG) scanOne(row pgx.Row) (entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, ErrNotFound
		}
		return entity.User{}, err
	}
	return user, nil
}
