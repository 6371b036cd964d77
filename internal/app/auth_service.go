// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"phrasebook/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, credential checks and sessions.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	cost     int
	log      *slog.Logger
}

// NewAuthService creates a new authentication service. cost is the bcrypt
// work factor used for new password hashes.
func NewAuthService(users domain.UserRepository, sessions domain.SessionStore, cost int, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cost:     cost,
		log:      log,
	}
}

// Register hashes password and stores a new user. A taken username is
// reported by the storage layer's uniqueness constraint, not a pre-check.
func (s *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, domain.E(domain.KindHashing, "", fmt.Errorf("hash password: %w", err))
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if errors.Is(err, domain.ErrAlreadyExists) {
		s.log.InfoContext(ctx, "registration rejected, username taken", slog.String("username", username))
		return 0, domain.E(domain.KindDuplicateUsername, "Username already exists.", err)
	}
	if err != nil {
		return 0, domain.E(domain.KindStorage, "", fmt.Errorf("create user: %w", err))
	}

	s.log.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.Int64("user_id", user.ID))
	return user.ID, nil
}

// Verify returns the user when password matches the stored hash and
// (nil, nil) otherwise. Hash failures other than a mismatch are errors.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("get user: %w", err))
	}
	// Accounts provisioned through SSO have no password.
	if user == nil || user.PasswordHash == "" {
		return nil, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.E(domain.KindHashing, "", fmt.Errorf("compare password: %w", err))
	}
	return user, nil
}

// Login verifies the credentials and opens a session, returning its token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.log.InfoContext(ctx, "failed login attempt", slog.String("username", username))
		return "", domain.Unauthorized()
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))
	return token, nil
}

// ssoUsernamePrefix keeps identity-provider accounts apart from accounts
// created through registration.
const ssoUsernamePrefix = "sso:"

// LoginWithUser opens a session for a subject already authenticated by an
// identity provider, creating the account on first use. The account is
// stored as "sso:"+subject and is never linked to a password account.
func (s *AuthService) LoginWithUser(ctx context.Context, subject string) (string, error) {
	username := ssoUsernamePrefix + subject

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", domain.E(domain.KindStorage, "", fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		user, err = s.users.Create(ctx, username, "")
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByUsername(ctx, username)
		}
		if err != nil {
			return "", domain.E(domain.KindStorage, "", fmt.Errorf("provision user: %w", err))
		}
		if user == nil {
			return "", domain.E(domain.KindStorage, "", fmt.Errorf("provision user %q: %w", username, domain.ErrNotFound))
		}
		s.log.InfoContext(ctx, "user provisioned via sso", slog.Int64("user_id", user.ID))
	}
	if user.PasswordHash != "" {
		// Someone registered the name with a password first.
		s.log.WarnContext(ctx, "sso login refused for password account", slog.Int64("user_id", user.ID))
		return "", domain.Unauthorized()
	}
	return s.openSession(ctx, user)
}

// Logout destroys the session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return domain.E(domain.KindStorage, "", fmt.Errorf("destroy session: %w", err))
	}
	return nil
}

// ValidateSession resolves token to its user. A missing, unknown or
// expired token is KindUnauthorized.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthorized()
	}
	userID, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("resolve session: %w", err))
	}
	if !ok {
		return nil, domain.Unauthorized()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("get user %d: %w", userID, err))
	}
	if user == nil {
		_ = s.sessions.Destroy(ctx, token)
		return nil, domain.Unauthorized()
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", domain.E(domain.KindStorage, "", fmt.Errorf("create session: %w", err))
	}
	return token, nil
}
