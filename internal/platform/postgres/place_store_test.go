package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPlaceStore_InsertPlace(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		p := testPlace(uuid.New())

		m.mock.ExpectExec(`INSERT INTO places`).
			WithArgs(p.ID, p.Title, p.Description, p.Address, p.Location.Lat, p.Location.Lon,
				p.ImageRef, p.CreatorID, p.CreatedAt, p.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.InsertPlace(context.Background(), p))
	})

	t.Run("unknown creator", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectExec(`INSERT INTO places`).
			WillReturnError(pgErr(foreignKeyViolationCode, "places_creator_id_fkey"))

		err := s.InsertPlace(context.Background(), testPlace(uuid.New()))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("invalid place", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		p := testPlace(uuid.New())
		p.Title = ""

		err := s.InsertPlace(context.Background(), p)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	})
}

func TestPostgresPlaceStore_FindPlace(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		p := testPlace(uuid.New())

		m.mock.ExpectQuery(`SELECT (.+) FROM places WHERE id = \$1`).
			WithArgs(p.ID).
			WillReturnRows(sqlmock.NewRows(placeColumnNames).AddRow(placeRow(p)...))

		got, err := s.FindPlace(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectQuery(`SELECT (.+) FROM places WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(placeColumnNames))

		got, err := s.FindPlace(context.Background(), uuid.New())
		assert.Nil(t, got)
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})

	t.Run("infrastructure error is not a not-found", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectQuery(`FROM places`).WillReturnError(errors.New("connection reset"))

		_, err := s.FindPlace(context.Background(), uuid.New())
		require.Error(t, err)
		assert.False(t, store.IsNotFoundError(err))

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "place", storeErr.Entity)
		assert.Equal(t, "find", storeErr.Operation)
	})
}

func TestPostgresPlaceStore_FindPlacesByCreator(t *testing.T) {
	t.Parallel()

	t.Run("returns places in order", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		creator := uuid.New()
		a, b := testPlace(creator), testPlace(creator)

		m.mock.ExpectQuery(`SELECT (.+) FROM places WHERE creator_id = \$1 ORDER BY created_at`).
			WithArgs(creator).
			WillReturnRows(sqlmock.NewRows(placeColumnNames).AddRow(placeRow(a)...).AddRow(placeRow(b)...))

		got, err := s.FindPlacesByCreator(context.Background(), creator)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, b.ID, got[1].ID)
	})

	t.Run("empty is not an error", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectQuery(`FROM places WHERE creator_id`).
			WillReturnRows(sqlmock.NewRows(placeColumnNames))

		got, err := s.FindPlacesByCreator(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestPostgresPlaceStore_UpdatePlace(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		p := testPlace(uuid.New())

		m.mock.ExpectExec(`UPDATE places SET title = \$1, description = \$2, updated_at = \$3 WHERE id = \$4`).
			WithArgs(p.Title, p.Description, p.UpdatedAt, p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdatePlace(context.Background(), p))
	})

	t.Run("missing place", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectExec(`UPDATE places`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdatePlace(context.Background(), testPlace(uuid.New()))
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})
}

func TestPostgresPlaceStore_DeletePlace(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)
		id := uuid.New()

		m.mock.ExpectExec(`DELETE FROM places WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.DeletePlace(context.Background(), id))
	})

	t.Run("missing place", func(t *testing.T) {
		t.Parallel()
		m := newMockDB(t)
		s := NewPostgresPlaceStore(m.db, nil)

		m.mock.ExpectExec(`DELETE FROM places`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.DeletePlace(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})
}

// TestPlaceAndOwnerSetShareTransaction checks that a place insert and the
// owner-set append issued through WithTx run on the same transaction and
// are discarded together on rollback.
func TestPlaceAndOwnerSetShareTransaction(t *testing.T) {
	t.Parallel()
	m := newMockDB(t)
	places := NewPostgresPlaceStore(m.db, nil)
	users := NewPostgresUserStore(m.db, nil)
	p := testPlace(uuid.New())

	m.mock.ExpectBegin()
	m.mock.ExpectExec(`INSERT INTO places`).WillReturnResult(sqlmock.NewResult(0, 1))
	m.mock.ExpectExec(`INSERT INTO user_places`).WillReturnError(errors.New("disk full"))
	m.mock.ExpectRollback()

	err := store.RunInTransaction(context.Background(), store.NewSQLTransactor(m.db), func(ctx context.Context, tx store.Tx) error {
		if err := places.WithTx(tx).InsertPlace(ctx, p); err != nil {
			return err
		}
		return users.WithTx(tx).AppendUserPlace(ctx, p.CreatorID, p.ID)
	})
	require.Error(t, err)
}
