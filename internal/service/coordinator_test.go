package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/service"
	"github.com/phrazzld/places-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlace(t *testing.T, creator uuid.UUID) *domain.Place {
	t.Helper()
	p, err := domain.NewPlace(domain.PlaceDraft{
		Title:       "Harbour",
		Description: "Boats and cafes",
		Address:     "1 Quay Street",
		CreatorID:   creator,
	}, domain.Location{Lat: -33.85, Lon: 151.21})
	require.NoError(t, err)
	return p
}

func TestNewCoordinator_NilDependencies(t *testing.T) {
	mem := storetest.NewMemStore()

	_, err := service.NewCoordinator(nil, mem.Users(), mem.Places(), nil)
	assert.Error(t, err)
	_, err = service.NewCoordinator(mem, nil, mem.Places(), nil)
	assert.Error(t, err)
	_, err = service.NewCoordinator(mem, mem.Users(), nil, nil)
	assert.Error(t, err)
}

func TestCoordinator_CreatePlaceForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("links place to creator", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		place := newPlace(t, owner.UserID)

		require.NoError(t, env.coordinator.CreatePlaceForUser(ctx, place, owner.UserID))

		user, err := env.mem.Users().FindUser(ctx, owner.UserID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{place.ID}, user.Places)
		assert.NoError(t, env.mem.CheckSymmetry())
		assert.Equal(t, 1, env.mem.Commits)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		missing := uuid.New()

		err := env.coordinator.CreatePlaceForUser(ctx, newPlace(t, missing), missing)

		f := requireKind(t, err, service.ErrNotFound)
		assert.Equal(t, 404, f.Status())
		assert.Equal(t, 0, env.mem.Begins, "no transaction should be opened")
	})

	t.Run("append failure rolls back the insert", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		env.mem.Fail(storetest.OpAppendUserPlace, errors.New("connection reset"))

		err := env.coordinator.CreatePlaceForUser(ctx, newPlace(t, owner.UserID), owner.UserID)

		requireKind(t, err, service.ErrWriteFailed)
		assert.Equal(t, 0, env.mem.PlaceCount(), "place must not be persisted")
		assert.Equal(t, 1, env.mem.Rollbacks)
		assert.NoError(t, env.mem.CheckSymmetry())
	})

	t.Run("commit failure leaves no partial state", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		env.mem.Fail(storetest.OpCommit, errors.New("serialization failure"))

		err := env.coordinator.CreatePlaceForUser(ctx, newPlace(t, owner.UserID), owner.UserID)

		requireKind(t, err, service.ErrWriteFailed)
		assert.Equal(t, 0, env.mem.PlaceCount())
		user, err := env.mem.Users().FindUser(ctx, owner.UserID)
		require.NoError(t, err)
		assert.Empty(t, user.Places)
	})

	t.Run("begin failure", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		env.mem.Fail(storetest.OpBegin, errors.New("pool exhausted"))

		err := env.coordinator.CreatePlaceForUser(ctx, newPlace(t, owner.UserID), owner.UserID)

		f := requireKind(t, err, service.ErrWriteFailed)
		assert.Equal(t, 500, f.Status())
		assert.NotContains(t, f.Message, "pool exhausted")
	})

	t.Run("user lookup failure", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		env.mem.Fail(storetest.OpFindUser, errors.New("timeout"))

		err := env.coordinator.CreatePlaceForUser(ctx, newPlace(t, owner.UserID), owner.UserID)

		requireKind(t, err, service.ErrWriteFailed)
	})
}

func TestCoordinator_DeletePlace(t *testing.T) {
	ctx := context.Background()

	t.Run("removes place and link", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		keep := newPlace(t, owner.UserID)
		drop := newPlace(t, owner.UserID)
		require.NoError(t, env.coordinator.CreatePlaceForUser(ctx, keep, owner.UserID))
		require.NoError(t, env.coordinator.CreatePlaceForUser(ctx, drop, owner.UserID))

		require.NoError(t, env.coordinator.DeletePlace(ctx, drop.ID))

		user, err := env.mem.Users().FindUser(ctx, owner.UserID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{keep.ID}, user.Places)
		assert.Equal(t, 1, env.mem.PlaceCount())
		assert.NoError(t, env.mem.CheckSymmetry())
	})

	t.Run("unknown place", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.coordinator.DeletePlace(ctx, uuid.New())

		f := requireKind(t, err, service.ErrNotFound)
		assert.Equal(t, "could not find a place for the provided id", f.Message)
	})

	t.Run("unlink failure restores the place", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		place := newPlace(t, owner.UserID)
		require.NoError(t, env.coordinator.CreatePlaceForUser(ctx, place, owner.UserID))
		env.mem.Fail(storetest.OpRemoveUserPlace, errors.New("disk full"))

		err := env.coordinator.DeletePlace(ctx, place.ID)

		requireKind(t, err, service.ErrWriteFailed)
		found, err := env.mem.Places().FindPlace(ctx, place.ID)
		require.NoError(t, err)
		assert.Equal(t, place.ID, found.ID)
		assert.NoError(t, env.mem.CheckSymmetry())
	})

	t.Run("missing link is tolerated", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.signup(t, "owner@example.com")
		orphan := newPlace(t, owner.UserID)
		require.NoError(t, env.mem.Places().InsertPlace(ctx, orphan))

		require.NoError(t, env.coordinator.DeletePlace(ctx, orphan.ID))

		assert.Equal(t, 0, env.mem.PlaceCount())
		assert.Contains(t, env.logs.String(), "place was missing from its creator's place set")
	})
}

func TestCoordinator_ConcurrentUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const users, perUser = 8, 5
	ids := make([]uuid.UUID, users)
	for i := range ids {
		ids[i] = env.signup(t, fmt.Sprintf("user%d@example.com", i)).UserID
	}

	var wg sync.WaitGroup
	errs := make(chan error, users*(perUser+1))
	for i, id := range ids {
		drafts := make([]*domain.Place, perUser)
		for j := range drafts {
			drafts[j] = newPlace(t, id)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range drafts {
				errs <- env.coordinator.CreatePlaceForUser(ctx, p, id)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.accounts.Signup(ctx, "Late", fmt.Sprintf("late%d@example.com", i), "secret123", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, users*perUser, env.mem.PlaceCount())
	require.NoError(t, env.mem.CheckSymmetry())

	listed, err := env.accounts.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, users*2)
	for _, id := range ids {
		places, err := env.places.GetPlacesByUser(ctx, id)
		require.NoError(t, err)
		assert.Len(t, places, perUser)
	}
}
