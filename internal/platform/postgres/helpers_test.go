package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/stretchr/testify/require"
)

type mockDB struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
}

func newMockDB(t *testing.T) mockDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return mockDB{db: db, mock: mock}
}

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		ImageRef:       "users/ada.png",
		HashedPassword: "$2a$04$abcdefghijklmnopqrstuv",
		Places:         []uuid.UUID{},
		CreatedAt:      fixedTime,
		UpdatedAt:      fixedTime,
	}
}

func testPlace(creator uuid.UUID) *domain.Place {
	return &domain.Place{
		ID:          uuid.New(),
		Title:       "Empire State Building",
		Description: "One of the most famous sky scrapers",
		Address:     "20 W 34th St, New York, NY 10001",
		Location:    domain.Location{Lat: 40.7484474, Lon: -73.9871516},
		ImageRef:    domain.DefaultPlaceImage,
		CreatorID:   creator,
		CreatedAt:   fixedTime,
		UpdatedAt:   fixedTime,
	}
}

var userColumnNames = []string{"id", "name", "email", "image_ref", "hashed_password", "created_at", "updated_at"}

func userRow(u *domain.User) []driver.Value {
	return []driver.Value{u.ID.String(), u.Name, u.Email, u.ImageRef, u.HashedPassword, u.CreatedAt, u.UpdatedAt}
}

var placeColumnNames = []string{"id", "title", "description", "address", "lat", "lng", "image_ref", "creator_id", "created_at", "updated_at"}

func placeRow(p *domain.Place) []driver.Value {
	return []driver.Value{p.ID.String(), p.Title, p.Description, p.Address, p.Location.Lat, p.Location.Lon, p.ImageRef, p.CreatorID.String(), p.CreatedAt, p.UpdatedAt}
}

func pgErr(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint, Message: "pg error"}
}
