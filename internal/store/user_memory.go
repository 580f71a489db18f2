package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"authcore/internal/entity"
)

// UserMemory is the volatile user repository, used when no database is
// configured. Accounts are process-local and lost on restart.
type UserMemory struct {
	mu      sync.Mutex
	byID    map[string]entity.User
	byEmail map[string]string
}

func NewUserMemory() *UserMemory {
	return &UserMemory{
		byID:    make(map[string]entity.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserMemory) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserMemory) GetByID(ctx context.Context, id string) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return entity.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserMemory) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return entity.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserMemory) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserMemory) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	r.byID[userID] = user
	return nil
}
