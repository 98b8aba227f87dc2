package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewTestTokenService creates a token service with an injectable clock.
// Use this in tests that need deterministic issue and expiry times.
func NewTestTokenService(secret string, lifetime time.Duration, timeFunc func() time.Time) TokenService {
	if timeFunc == nil {
		timeFunc = time.Now
	}
	return &hmacTokenService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      timeFunc,
		clockSkew:     0,
	}
}

// MockTokenService is a TokenService with overridable behavior for handler tests.
type MockTokenService struct {
	IssueTokenFunc    func(ctx context.Context, userID uuid.UUID, email string) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	Token           string
	TokenError      error
	Claims          *Claims
	ValidationError error
}

var _ TokenService = (*MockTokenService)(nil)

// IssueToken implements TokenService.
func (m *MockTokenService) IssueToken(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(ctx, userID, email)
	}
	if m.TokenError != nil {
		return "", m.TokenError
	}
	if m.Token != "" {
		return m.Token, nil
	}
	return "test-token-" + userID.String(), nil
}

// ValidateToken implements TokenService.
func (m *MockTokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	if m.Claims != nil {
		return m.Claims, nil
	}
	return nil, ErrInvalidToken
}
