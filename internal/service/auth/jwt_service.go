package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService issues and validates signed session tokens.
type TokenService interface {
	// IssueToken creates a signed token binding userID and email that expires
	// after the configured lifetime.
	IssueToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// ValidateToken checks signature and expiry and returns the bound claims.
	// Returns ErrExpiredToken for expired tokens and ErrInvalidToken for
	// anything else that fails verification.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the identity carried by a validated session token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
