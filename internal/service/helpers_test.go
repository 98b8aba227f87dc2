package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
	"github.com/phrazzld/places-api/internal/service"
	"github.com/phrazzld/places-api/internal/service/auth"
	"github.com/phrazzld/places-api/internal/store/storetest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

// fakeGeocoder returns a fixed location, or err when set.
type fakeGeocoder struct {
	mu    sync.Mutex
	loc   domain.Location
	err   error
	calls []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (domain.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, address)
	if g.err != nil {
		return domain.Location{}, g.err
	}
	return g.loc, nil
}

// failingCredentials wraps a real hasher and can fail either side.
type failingCredentials struct {
	*auth.BcryptHasher
	hashErr    error
	compareErr error
}

func (c *failingCredentials) Hash(password string) (string, error) {
	if c.hashErr != nil {
		return "", c.hashErr
	}
	return c.BcryptHasher.Hash(password)
}

func (c *failingCredentials) Compare(hash, password string) error {
	if c.compareErr != nil {
		return c.compareErr
	}
	return c.BcryptHasher.Compare(hash, password)
}

type testEnv struct {
	mem         *storetest.MemStore
	geocoder    *fakeGeocoder
	credentials *failingCredentials
	tokens      auth.TokenService
	coordinator *service.Coordinator
	accounts    *service.AccountService
	places      *service.PlaceService
	logs        *logger.TestLogBuffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, logs := logger.NewTestLogger()
	mem := storetest.NewMemStore()
	geo := &fakeGeocoder{loc: domain.Location{Lat: 40.7484, Lon: -73.9857}}
	creds := &failingCredentials{BcryptHasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	tokens := auth.NewTestTokenService(testSecret, time.Hour, nil)

	coord, err := service.NewCoordinator(mem, mem.Users(), mem.Places(), log)
	require.NoError(t, err)
	accounts, err := service.NewAccountService(mem.Users(), creds, tokens, log)
	require.NoError(t, err)
	places, err := service.NewPlaceService(mem.Places(), geo, coord, log)
	require.NoError(t, err)

	return &testEnv{
		mem:         mem,
		geocoder:    geo,
		credentials: creds,
		tokens:      tokens,
		coordinator: coord,
		accounts:    accounts,
		places:      places,
		logs:        logs,
	}
}

// signup registers a user and returns its result.
func (e *testEnv) signup(t *testing.T, email string) *service.AuthResult {
	t.Helper()
	res, err := e.accounts.Signup(context.Background(), "Test User", email, "secret123", "users/a.png")
	require.NoError(t, err)
	return res
}

func draftFor(res *service.AuthResult) domain.PlaceDraft {
	return domain.PlaceDraft{
		Title:       "Empire State Building",
		Description: "One of the most famous sky scrapers",
		Address:     "20 W 34th St, New York, NY 10001",
		ImageRef:    "places/esb.jpg",
		CreatorID:   res.UserID,
	}
}

// requireKind asserts err is a *service.Failure of the given kind.
func requireKind(t *testing.T, err error, kind error) *service.Failure {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	f, ok := service.AsFailure(err)
	require.True(t, ok, "expected *service.Failure, got %T", err)
	return f
}
