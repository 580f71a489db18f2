package store

import (
	"context"
	"errors"
	"fmt"

	"authcore/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionPG is the durable session.Store variant, backed by the sessions
// table (indexed on user_id and expires_at). Rotation runs as a single
// transaction so a partially rotated pair is never observable.
type SessionPG struct {
	db     *pgxpool.Pool
	secret []byte
}

func NewSessionPG(db *pgxpool.Pool, secret string) (*SessionPG, error) {
	if secret == "" {
		return nil, session.ErrMissingSecret
	}
	return &SessionPG{db: db, secret: []byte(secret)}, nil
}

func (r *SessionPG) Insert(ctx context.Context, token string, p session.InsertParams) error {
	const insertQuery = `
	INSERT INTO sessions (token_hash, user_id, expires_at, remember, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	if p.RotatedFrom == "" {
		_, err := r.db.Exec(ctx, insertQuery,
			session.HashToken(r.secret, token),
			p.UserID, p.ExpiresAt, p.Remember, p.IPAddress, p.UserAgent,
		)
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	// Best-effort revoke of the prior token; an unknown or already
	// revoked token is not an error.
	_, err = tx.Exec(ctx, `
	UPDATE sessions SET revoked_at = now()
	WHERE token_hash = $1 AND revoked_at IS NULL
	`, session.HashToken(r.secret, p.RotatedFrom))
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertQuery,
		session.HashToken(r.secret, token),
		p.UserID, p.ExpiresAt, p.Remember, p.IPAddress, p.UserAgent,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *SessionPG) Revoke(ctx context.Context, token string) (bool, error) {
	const query = `
	UPDATE sessions SET revoked_at = now()
	WHERE token_hash = $1 AND revoked_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, session.HashToken(r.secret, token))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionPG) GetUserID(ctx context.Context, token string) (string, error) {
	const query = `
	SELECT user_id FROM sessions
	WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > now()
	LIMIT 1
	`
	var userID string
	err := r.db.QueryRow(ctx, query, session.HashToken(r.secret, token)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", session.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

func (r *SessionPG) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `
	UPDATE sessions SET revoked_at = now()
	WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > now()
	`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SessionPG) CleanupExpired(ctx context.Context) (int64, error) {
	const query = `
	DELETE FROM sessions
	WHERE revoked_at IS NOT NULL OR expires_at <= now()
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SessionPG) ActiveSessionCount(ctx context.Context) (int64, error) {
	const query = `
	SELECT COUNT(*) FROM sessions
	WHERE revoked_at IS NULL AND expires_at > now()
	`
	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
