package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Password length limits. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// User validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUserName       = errors.New("user name cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordTooLong     = fmt.Errorf("password must be at most %d characters long", MaxPasswordLength)
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered account that can own places.
type User struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	ImageRef       string      `json:"image"`
	Password       string      `json:"-"` // Plaintext, only set transiently during signup
	HashedPassword string      `json:"-"`
	Places         []uuid.UUID `json:"places"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewUser creates a new User with a generated ID and an empty place set.
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, email, password, imageRef string) (*User, error) {
	if password == "" {
		return nil, ErrPasswordTooShort
	}

	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		ImageRef:  imageRef,
		Password:  password,
		Places:    []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Name == "" {
		return ErrEmptyUserName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		switch {
		case len(u.Password) < MinPasswordLength:
			return ErrPasswordTooShort
		case len(u.Password) > MaxPasswordLength:
			return ErrPasswordTooLong
		}
		return nil
	}

	// Users loaded from storage carry only the hash
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}

	return nil
}

// OwnsPlace reports whether placeID is in the user's place set.
func (u *User) OwnsPlace(placeID uuid.UUID) bool {
	return slices.Contains(u.Places, placeID)
}

// AddPlace appends placeID to the ordered place set unless it is already present.
func (u *User) AddPlace(placeID uuid.UUID) {
	if u.OwnsPlace(placeID) {
		return
	}
	u.Places = append(u.Places, placeID)
}

// RemovePlace drops placeID from the place set, preserving the order of the rest.
func (u *User) RemovePlace(placeID uuid.UUID) {
	u.Places = slices.DeleteFunc(u.Places, func(id uuid.UUID) bool { return id == placeID })
}

// NormalizeEmail lower-cases and trims an email address so uniqueness checks
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
