package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// InsertUser saves a new user with an empty place set.
	// The user's HashedPassword must already be set.
	// Returns ErrEmailExists if the email is already taken.
	InsertUser(ctx context.Context, user *domain.User) error

	// FindUser retrieves a user, including its ordered place ids.
	// Returns ErrUserNotFound if the user does not exist.
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindUserByEmail retrieves a user by email address (case-insensitive).
	// Returns ErrUserNotFound if no user has that email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListUsers returns every user ordered by creation time.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// AppendUserPlace adds placeID to the end of the user's place set.
	// Returns ErrUserNotFound if the user does not exist.
	AppendUserPlace(ctx context.Context, userID, placeID uuid.UUID) error

	// RemoveUserPlace removes placeID from the user's place set.
	// Returns ErrNotFound if the place was not in the set.
	RemoveUserPlace(ctx context.Context, userID, placeID uuid.UUID) error

	// WithTx returns a UserStore whose operations run inside tx.
	WithTx(tx Tx) UserStore
}
