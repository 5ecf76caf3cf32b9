// Package service contains the business logic layer.
//
// Handlers parse HTTP and delegate here; services enforce the rules
// (uniqueness, ownership, superuser privilege) and orchestrate the
// repositories, the blob store, and the auth utilities. Services return
// apperror kinds — never HTTP status codes.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// AuthService handles signup, login, and access-token refresh.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	adminKey  string
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. adminKey is the process-wide
// bootstrap secret that grants superuser at signup.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	adminKey string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		adminKey:  adminKey,
		logger:    logger,
	}
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SignUp registers a new account.
//
// Fails with Conflict if the email is already registered. The account is a
// superuser iff adminKey matches the configured admin secret — compared in
// constant time so the check leaks nothing about the secret. The returned
// user carries the hash internally but the model never serializes it.
func (s *AuthService) SignUp(ctx context.Context, email, password, adminKey string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	isSuperuser := s.adminKey != "" &&
		subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.adminKey)) == 1

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:          email,
		HashedPassword: hashed,
		IsSuperuser:    isSuperuser,
	}

	// The repository's UNIQUE constraint decides duplicates; a racing signup
	// with the same email loses with Conflict.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", email, err)
	}

	s.logger.Info("user signed up",
		slog.Int64("userID", user.ID),
		slog.Bool("superuser", user.IsSuperuser),
	)

	return user, nil
}

// Login checks credentials and issues an access+refresh token pair.
//
// An unknown email and a wrong password both fail with the same
// Unauthorized message, so callers can't probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.HashedPassword, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return pair, nil
}

// Refresh mints a new access token from a valid refresh token.
//
// The user is looked up again before reissuing, so a refresh token for a
// deleted account stops working even though the token itself is unexpired.
// The refresh token is not rotated — the caller keeps using the same one
// until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid or expired refresh token")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", claims.Subject, err)
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token for user %d: %w", user.ID, err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func (s *AuthService) issuePair(user *model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token for user %d: %w", user.ID, err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing refresh token for user %d: %w", user.ID, err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
