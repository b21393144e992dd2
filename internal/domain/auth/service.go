package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned when the password fails the minimum policy.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// Service coordinates registration and login.
type Service struct {
	repo   *Repository
	tokens *TokenManager
	logger *slog.Logger
}

// NewService creates a new auth service.
func NewService(repo *Repository, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register creates an account and returns it with a fresh access token.
func (s *Service) Register(ctx context.Context, email, username, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, username, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		// Same error as a wrong password so the endpoint does not leak
		// which emails exist.
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

// EmailFor resolves a user ID to the account email. Satisfies the worker
// pool's notification directory.
func (s *Service) EmailFor(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
