package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"authcore/internal/audit"
	"authcore/internal/entity"
	"authcore/internal/session"
	"authcore/internal/store"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// disabled accounts. One error for all three so responses do not
	// reveal which check failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrEmailTaken = errors.New("auth: email already registered")
)

// ValidationError reports which input field failed and carries the
// user-facing message from the validator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserRepository is the persistence surface the service needs. Satisfied by
// store.UserPG.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// Service implements the account use cases: register, login, password
// change. It owns credential verification; session cookie I/O stays in the
// HTTP layer.
type Service struct {
	users    UserRepository
	sessions *session.Manager
	policy   PasswordPolicy
}

func NewService(users UserRepository, sessions *session.Manager, policy PasswordPolicy) *Service {
	return &Service{users: users, sessions: sessions, policy: policy}
}

type RegisterParams struct {
	Email    string
	Password string
	Name     string
}

// Register validates the input, checks email uniqueness and creates the
// account. Emails are normalized to lowercase before storage.
func (s *Service) Register(ctx context.Context, p RegisterParams) (entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if err := ValidateEmail(email); err != nil {
		return entity.User{}, &ValidationError{Field: "email", Message: err.Error()}
	}
	if err := s.policy.Validate(p.Password); err != nil {
		return entity.User{}, &ValidationError{Field: "password", Message: err.Error()}
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return entity.User{}, fmt.Errorf("auth: check email: %w", err)
	}
	if exists {
		return entity.User{}, ErrEmailTaken
	}

	digest, err := HashPassword(p.Password)
	if err != nil {
		return entity.User{}, err
	}

	user := entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: digest,
		Name:         strings.TrimSpace(p.Name),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return entity.User{}, fmt.Errorf("auth: create user: %w", err)
	}

	audit.Log(audit.AccountCreated, audit.Record{UserID: user.ID, Email: user.Email})
	return user, nil
}

type LoginParams struct {
	Email    string
	Password string
	Remember bool

	IPAddress string
	UserAgent string

	// PriorToken is the session token presented with the login request,
	// if any. It is revoked atomically when the new session is created,
	// so a fixated pre-login session never survives authentication.
	PriorToken string
}

// Login verifies credentials and starts a session, returning the plaintext
// session token for the cookie. Every failure path performs a full digest
// verification so unknown emails are not distinguishable by timing.
func (s *Service) Login(ctx context.Context, p LoginParams) (entity.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			VerifyPassword(DummyDigest, p.Password)
			audit.Log(audit.LoginFailure, audit.Record{Email: email, IP: p.IPAddress, Detail: "unknown email"})
			return entity.User{}, "", ErrInvalidCredentials
		}
		return entity.User{}, "", fmt.Errorf("auth: lookup user: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, p.Password) {
		audit.Log(audit.LoginFailure, audit.Record{UserID: user.ID, Email: email, IP: p.IPAddress, Detail: "bad password"})
		return entity.User{}, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		audit.Log(audit.LoginFailure, audit.Record{UserID: user.ID, Email: email, IP: p.IPAddress, Detail: "account disabled"})
		return entity.User{}, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Start(ctx, user.ID, session.StartOptions{
		Remember:    p.Remember,
		IPAddress:   p.IPAddress,
		UserAgent:   p.UserAgent,
		RotatedFrom: p.PriorToken,
	})
	if err != nil {
		return entity.User{}, "", err
	}

	audit.Log(audit.LoginSuccess, audit.Record{UserID: user.ID, Email: email, IP: p.IPAddress, UserAgent: p.UserAgent})
	return user, token, nil
}

type ChangePasswordParams struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ChangePassword verifies the current password, stores the new digest and
// revokes every session for the user. The caller starts a fresh session so
// the active client stays signed in.
func (s *Service) ChangePassword(ctx context.Context, p ChangePasswordParams) error {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("auth: lookup user: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, p.CurrentPassword) {
		return ErrInvalidCredentials
	}
	if err := s.policy.Validate(p.NewPassword); err != nil {
		return &ValidationError{Field: "password", Message: err.Error()}
	}

	digest, err := HashPassword(p.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, digest); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("auth: revoke sessions: %w", err)
	}

	audit.Log(audit.PasswordChanged, audit.Record{
		UserID: user.ID,
		Email:  user.Email,
		Detail: fmt.Sprintf("revoked %d sessions", revoked),
	})
	return nil
}
