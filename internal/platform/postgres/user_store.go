package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
	"github.com/phrazzld/places-api/internal/store"
)

const entityUser = "user"

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx store.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// InsertUser implements store.UserStore.InsertUser
// Returns store.ErrEmailExists if the email is already registered.
func (s *PostgresUserStore) InsertUser(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if user.HashedPassword == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	query := `
		INSERT INTO users (id, name, email, image_ref, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.ImageRef,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to insert user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return wrapError(entityUser, "insert", err)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// FindUser implements store.UserStore.FindUser
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, name, email, image_ref, hashed_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.findOne(ctx, query, id)
}

// FindUserByEmail implements store.UserStore.FindUserByEmail
// Returns store.ErrUserNotFound if no user has the email.
func (s *PostgresUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, image_ref, hashed_password, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	return s.findOne(ctx, query, domain.NormalizeEmail(email))
}

func (s *PostgresUserStore) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.ImageRef,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("user not found")
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to query user", slog.String("error", err.Error()))
		return nil, wrapError(entityUser, "find", err)
	}

	places, err := s.placeIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Places = places

	return &user, nil
}

// placeIDs loads the ordered owner set of a single user.
func (s *PostgresUserStore) placeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT place_id
		FROM user_places
		WHERE user_id = $1
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, wrapError(entityUser, "find_places", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapError(entityUser, "find_places", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(entityUser, "find_places", err)
	}
	return ids, nil
}

// ListUsers implements store.UserStore.ListUsers
func (s *PostgresUserStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, image_ref, hashed_password, created_at, updated_at
		FROM users
		ORDER BY created_at, id
	`)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, wrapError(entityUser, "list", err)
	}
	defer func() { _ = rows.Close() }()

	users := []*domain.User{}
	byID := make(map[uuid.UUID]*domain.User)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ImageRef, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, wrapError(entityUser, "list", err)
		}
		u.Places = []uuid.UUID{}
		users = append(users, &u)
		byID[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(entityUser, "list", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	links, err := s.db.QueryContext(ctx, `
		SELECT user_id, place_id
		FROM user_places
		ORDER BY position
	`)
	if err != nil {
		return nil, wrapError(entityUser, "list", err)
	}
	defer func() { _ = links.Close() }()

	for links.Next() {
		var userID, placeID uuid.UUID
		if err := links.Scan(&userID, &placeID); err != nil {
			return nil, wrapError(entityUser, "list", err)
		}
		if u, ok := byID[userID]; ok {
			u.Places = append(u.Places, placeID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, wrapError(entityUser, "list", err)
	}

	return users, nil
}

// AppendUserPlace implements store.UserStore.AppendUserPlace
// Appending an id that is already in the set is a no-op.
func (s *PostgresUserStore) AppendUserPlace(ctx context.Context, userID, placeID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_places (user_id, place_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, place_id) DO NOTHING
	`, userID, placeID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		log.Error("failed to append place to user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("place_id", placeID.String()))
		return wrapError(entityUser, "append_place", err)
	}

	log.Debug("place appended to user",
		slog.String("user_id", userID.String()),
		slog.String("place_id", placeID.String()))
	return nil
}

// RemoveUserPlace implements store.UserStore.RemoveUserPlace
// Returns store.ErrNotFound if the place was not in the user's set.
func (s *PostgresUserStore) RemoveUserPlace(ctx context.Context, userID, placeID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_places
		WHERE user_id = $1 AND place_id = $2
	`, userID, placeID)
	if err != nil {
		log.Error("failed to remove place from user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("place_id", placeID.String()))
		return wrapError(entityUser, "remove_place", err)
	}

	if err := CheckRowsAffected(result, fmt.Errorf("%w: place not in user's set", store.ErrNotFound)); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to remove place from user", slog.String("error", err.Error()))
		}
		return err
	}

	return nil
}
