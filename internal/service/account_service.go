package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
	"github.com/phrazzld/places-api/internal/service/auth"
	"github.com/phrazzld/places-api/internal/store"
)

// Credentials hashes new passwords and verifies presented ones.
type Credentials interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}

// AccountService handles signup, login and user listing.
type AccountService struct {
	users       store.UserStore
	credentials Credentials
	tokens      auth.TokenService
	logger      *slog.Logger
}

// NewAccountService creates an AccountService. It returns an error if any
// dependency is nil.
func NewAccountService(
	users store.UserStore,
	credentials Credentials,
	tokens auth.TokenService,
	log *slog.Logger,
) (*AccountService, error) {
	if users == nil {
		return nil, errors.New("account service: user store cannot be nil")
	}
	if credentials == nil {
		return nil, errors.New("account service: credentials cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &AccountService{
		users:       users,
		credentials: credentials,
		tokens:      tokens,
		logger:      log.With(slog.String("component", "account_service")),
	}, nil
}

// Signup registers a new user and returns a session token for it.
func (s *AccountService) Signup(ctx context.Context, name, email, password, imageRef string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password, imageRef)
	if err != nil {
		return nil, newFailure(ErrValidation, msgInvalidInput, err)
	}

	existing, err := s.users.FindUserByEmail(ctx, user.Email)
	switch {
	case err == nil && existing != nil:
		return nil, newFailure(ErrConflict, msgUserExists, store.ErrEmailExists)
	case err != nil && !errors.Is(err, store.ErrUserNotFound):
		log.Error("failed to check for existing user", slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgSignupFailed, err)
	}

	hash, err := s.credentials.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, newFailure(ErrAuthFailure, msgAuthFailed, err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.InsertUser(ctx, user); err != nil {
		if store.IsDuplicateError(err) {
			return nil, newFailure(ErrConflict, msgUserExists, err)
		}
		log.Error("failed to insert user", slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgSignupFailed, err)
	}

	token, err := s.tokens.IssueToken(ctx, user.ID, user.Email)
	if err != nil {
		log.Error("failed to issue token after signup",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrAuthFailure, msgAuthFailed, err)
	}

	log.Info("user signed up", slog.String("user_id", user.ID.String()))
	return &AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// Login checks email and password and returns a fresh session token.
// An unknown email and a wrong password produce the same failure.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, newFailure(ErrInvalidCredentials, msgInvalidCredentials, err)
		}
		log.Error("failed to load user for login", slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgLoginFailed, err)
	}

	if err := s.credentials.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, newFailure(ErrInvalidCredentials, msgInvalidCredentials, err)
		}
		log.Error("failed to verify password",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrAuthFailure, msgAuthFailed, err)
	}

	token, err := s.tokens.IssueToken(ctx, user.ID, user.Email)
	if err != nil {
		log.Error("failed to issue token after login",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrAuthFailure, msgAuthFailed, err)
	}

	log.Debug("user logged in", slog.String("user_id", user.ID.String()))
	return &AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// ListUsers returns all users. Password hashes never leave the store layer
// in serialized form because User omits them from JSON.
func (s *AccountService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users",
			slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgFetchUsersFailed, err)
	}
	return users, nil
}
