package auth

import (
	"context"
	"errors"
	"time"

	"feedmark/internal/core"
)

// Common authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotActivated   = errors.New("user not activated")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service provides authentication functionality
type Service struct {
	users    *UserModel
	tokens   *TokenModel
	logger   *core.Logger
	tokenTTL time.Duration
}

// NewService creates a new authentication service
func NewService(db *core.Database, logger *core.Logger, tokenTTL time.Duration) *Service {
	return &Service{
		users:    NewUserModel(db),
		tokens:   NewTokenModel(db),
		logger:   logger.ForFeature("auth"),
		tokenTTL: tokenTTL,
	}
}

// AuthenticateUser authenticates a user with email and password
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Activated {
		return nil, ErrUserNotActivated
	}

	match, err := user.Password.Matches(password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateAuthenticationToken replaces the user's authentication tokens with a new one
func (s *Service) CreateAuthenticationToken(ctx context.Context, user *User) (*Token, error) {
	if err := s.tokens.DeleteAllForUser(ctx, ScopeAuthentication, user.ID); err != nil {
		return nil, err
	}

	token, err := s.tokens.New(ctx, user.ID, s.tokenTTL, ScopeAuthentication)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created authentication token", "user_id", user.ID)
	return token, nil
}

// ValidateToken resolves a plaintext token to its user
func (s *Service) ValidateToken(ctx context.Context, tokenPlaintext string) (*User, error) {
	user, err := s.users.GetForToken(ctx, ScopeAuthentication, tokenPlaintext)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// CreateUser creates a new, activated user
func (s *Service) CreateUser(ctx context.Context, name, email, password string) (*User, error) {
	user := &User{
		Name:      name,
		Email:     email,
		Activated: true,
	}

	if err := user.Password.Set(password); err != nil {
		return nil, err
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Created user", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// EnsureUser creates the user unless the email is already taken
func (s *Service) EnsureUser(ctx context.Context, name, email, password string) error {
	_, err := s.CreateUser(ctx, name, email, password)
	if errors.Is(err, ErrDuplicateEmail) {
		return nil
	}
	return err
}

// LogoutUser invalidates all authentication tokens for a user
func (s *Service) LogoutUser(ctx context.Context, userID int) error {
	if err := s.tokens.DeleteAllForUser(ctx, ScopeAuthentication, userID); err != nil {
		return err
	}

	s.logger.Info("User logged out", "user_id", userID)
	return nil
}
