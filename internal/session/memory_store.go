package session

import (
	"context"
	"sync"
	"time"

	"authcore/internal/entity"
)

// MemoryStore is the volatile Store variant: a process-local map keyed by
// token digest, guarded by one mutex. Suitable for tests and single-node
// deployments that accept losing sessions on restart.
type MemoryStore struct {
	secret []byte

	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func NewMemoryStore(secret string) (*MemoryStore, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &MemoryStore{
		secret:   []byte(secret),
		sessions: make(map[string]*entity.Session),
	}, nil
}

func (s *MemoryStore) Insert(ctx context.Context, token string, p InsertParams) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.RotatedFrom != "" {
		s.revokeLocked(HashToken(s.secret, p.RotatedFrom), now)
	}

	hash := HashToken(s.secret, token)
	s.sessions[hash] = &entity.Session{
		TokenHash: hash,
		UserID:    p.UserID,
		Remember:  p.Remember,
		IPAddress: p.IPAddress,
		UserAgent: p.UserAgent,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: now,
	}
	return nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeLocked(HashToken(s.secret, token), time.Now().UTC()), nil
}

func (s *MemoryStore) revokeLocked(hash string, now time.Time) bool {
	sess, ok := s.sessions[hash]
	if !ok || sess.RevokedAt != nil {
		return false
	}
	revoked := now
	sess.RevokedAt = &revoked
	return true
}

func (s *MemoryStore) GetUserID(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[HashToken(s.secret, token)]
	if !ok || !sess.ActiveAt(time.Now().UTC()) {
		return "", ErrNotFound
	}
	return sess.UserID, nil
}

func (s *MemoryStore) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.ActiveAt(now) {
			revoked := now
			sess.RevokedAt = &revoked
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for hash, sess := range s.sessions {
		if sess.RevokedAt != nil || !sess.ExpiresAt.After(now) {
			delete(s.sessions, hash)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ActiveSessionCount(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, sess := range s.sessions {
		if sess.ActiveAt(now) {
			count++
		}
	}
	return count, nil
}
