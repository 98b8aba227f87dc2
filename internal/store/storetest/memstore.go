// Package storetest provides an in-memory, transactional implementation of
// the store interfaces for use in tests of packages above the store layer.
package storetest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/store"
)

// Operation names accepted by MemStore.Fail.
const (
	OpBegin           = "BeginTx"
	OpCommit          = "Commit"
	OpInsertUser      = "InsertUser"
	OpFindUser        = "FindUser"
	OpFindUserByEmail = "FindUserByEmail"
	OpListUsers       = "ListUsers"
	OpAppendUserPlace = "AppendUserPlace"
	OpRemoveUserPlace = "RemoveUserPlace"
	OpInsertPlace     = "InsertPlace"
	OpFindPlace       = "FindPlace"
	OpFindByCreator   = "FindPlacesByCreator"
	OpUpdatePlace     = "UpdatePlace"
	OpDeletePlace     = "DeletePlace"
)

var errNoSQL = errors.New("storetest: raw SQL is not supported by the in-memory store")

type state struct {
	users     map[uuid.UUID]*domain.User
	userOrder []uuid.UUID
	places    map[uuid.UUID]*domain.Place
	order     []uuid.UUID
}

func newState() *state {
	return &state{
		users:  make(map[uuid.UUID]*domain.User),
		places: make(map[uuid.UUID]*domain.Place),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, u := range s.users {
		c.users[id] = cloneUser(u)
	}
	for id, p := range s.places {
		cp := *p
		c.places[id] = &cp
	}
	c.userOrder = slices.Clone(s.userOrder)
	c.order = slices.Clone(s.order)
	return c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Password = ""
	c.Places = slices.Clone(u.Places)
	if c.Places == nil {
		c.Places = []uuid.UUID{}
	}
	return &c
}

// MemStore keeps users and places in memory. Writes made through a Tx are
// applied to a private snapshot for read-your-writes and recorded in a log.
// Commit replays the log onto the current committed state, so rolled back
// work is never observed and writes committed while the Tx was open are
// kept. A replayed write that now violates a constraint fails the Commit.
type MemStore struct {
	mu        sync.Mutex
	committed *state
	failures  map[string]error

	Begins    int
	Commits   int
	Rollbacks int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		committed: newState(),
		failures:  make(map[string]error),
	}
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (m *MemStore) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemStore) failure(op string) error {
	return m.failures[op]
}

// Users returns a UserStore backed by m.
func (m *MemStore) Users() store.UserStore {
	return &userView{m: m}
}

// Places returns a PlaceStore backed by m.
func (m *MemStore) Places() store.PlaceStore {
	return &placeView{m: m}
}

// BeginTx implements store.Transactor.
func (m *MemStore) BeginTx(ctx context.Context, _ *sql.TxOptions) (store.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpBegin); err != nil {
		return nil, err
	}
	m.Begins++
	return &memTx{m: m, st: m.committed.clone()}, nil
}

// CheckSymmetry verifies the place/owner invariant on committed state:
// every place's creator exists and lists the place, and every listed place
// exists with that user as creator.
func (m *MemStore) CheckSymmetry() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.committed
	for id, p := range st.places {
		u, ok := st.users[p.CreatorID]
		if !ok {
			return fmt.Errorf("place %s: creator %s does not exist", id, p.CreatorID)
		}
		if !u.OwnsPlace(id) {
			return fmt.Errorf("place %s: missing from creator %s place set", id, u.ID)
		}
	}
	for uid, u := range st.users {
		for _, pid := range u.Places {
			p, ok := st.places[pid]
			if !ok {
				return fmt.Errorf("user %s lists missing place %s", uid, pid)
			}
			if p.CreatorID != uid {
				return fmt.Errorf("user %s lists place %s created by %s", uid, pid, p.CreatorID)
			}
		}
	}
	return nil
}

// PlaceCount returns the number of committed places.
func (m *MemStore) PlaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed.places)
}

// SeedUser inserts u directly into committed state.
func (m *MemStore) SeedUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed.users[u.ID] = cloneUser(u)
	m.committed.userOrder = append(m.committed.userOrder, u.ID)
}

// mutation is a write applied to a state. It must not depend on anything
// the caller can change after the write was issued.
type mutation func(st *state) error

// memTx is a store.Tx over a snapshot of committed state.
type memTx struct {
	m    *MemStore
	st   *state
	log  []mutation
	done bool
}

func (t *memTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (t *memTx) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoSQL
}

func (t *memTx) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (t *memTx) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func (t *memTx) Commit() error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if err := t.m.failure(OpCommit); err != nil {
		t.m.Rollbacks++
		return err
	}

	next := t.m.committed.clone()
	for _, apply := range t.log {
		if err := apply(next); err != nil {
			t.m.Rollbacks++
			return fmt.Errorf("storetest: commit conflict: %w", err)
		}
	}
	t.m.committed = next
	t.m.Commits++
	return nil
}

func (t *memTx) Rollback() error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.m.Rollbacks++
	return nil
}

func asMemTx(tx store.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic(fmt.Sprintf("storetest: WithTx requires a transaction from MemStore.BeginTx, got %T", tx))
	}
	return mt
}

// run locks the store, resolves the state the view reads from and calls fn.
func (m *MemStore) run(tx *memTx, op string, fn func(st *state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(op); err != nil {
		return err
	}
	st := m.committed
	if tx != nil {
		if tx.done {
			return sql.ErrTxDone
		}
		st = tx.st
	}
	return fn(st)
}

// write is run for mutations. Inside a Tx a successful mutation is also
// logged for replay at Commit.
func (m *MemStore) write(tx *memTx, op string, fn mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(op); err != nil {
		return err
	}
	if tx == nil {
		return fn(m.committed)
	}
	if tx.done {
		return sql.ErrTxDone
	}
	if err := fn(tx.st); err != nil {
		return err
	}
	tx.log = append(tx.log, fn)
	return nil
}

type userView struct {
	m  *MemStore
	tx *memTx
}

var _ store.UserStore = (*userView)(nil)

func (v *userView) WithTx(tx store.Tx) store.UserStore {
	return &userView{m: v.m, tx: asMemTx(tx)}
}

func (v *userView) InsertUser(_ context.Context, user *domain.User) error {
	row := cloneUser(user)
	row.Places = []uuid.UUID{}
	return v.m.write(v.tx, OpInsertUser, func(st *state) error {
		if row.HashedPassword == "" {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
		}
		if _, ok := st.users[row.ID]; ok {
			return store.ErrDuplicate
		}
		for _, u := range st.users {
			if u.Email == domain.NormalizeEmail(row.Email) {
				return store.ErrEmailExists
			}
		}
		st.users[row.ID] = cloneUser(row)
		st.userOrder = append(st.userOrder, row.ID)
		return nil
	})
}

func (v *userView) FindUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := v.m.run(v.tx, OpFindUser, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrUserNotFound
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (v *userView) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := v.m.run(v.tx, OpFindUserByEmail, func(st *state) error {
		for _, u := range st.users {
			if u.Email == domain.NormalizeEmail(email) {
				out = cloneUser(u)
				return nil
			}
		}
		return store.ErrUserNotFound
	})
	return out, err
}

func (v *userView) ListUsers(context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	err := v.m.run(v.tx, OpListUsers, func(st *state) error {
		for _, id := range st.userOrder {
			if u, ok := st.users[id]; ok {
				out = append(out, cloneUser(u))
			}
		}
		return nil
	})
	return out, err
}

func (v *userView) AppendUserPlace(_ context.Context, userID, placeID uuid.UUID) error {
	return v.m.write(v.tx, OpAppendUserPlace, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return store.ErrUserNotFound
		}
		u.AddPlace(placeID)
		return nil
	})
}

func (v *userView) RemoveUserPlace(_ context.Context, userID, placeID uuid.UUID) error {
	return v.m.write(v.tx, OpRemoveUserPlace, func(st *state) error {
		u, ok := st.users[userID]
		if !ok || !u.OwnsPlace(placeID) {
			return fmt.Errorf("%w: place not in user's set", store.ErrNotFound)
		}
		u.RemovePlace(placeID)
		return nil
	})
}

type placeView struct {
	m  *MemStore
	tx *memTx
}

var _ store.PlaceStore = (*placeView)(nil)

func (v *placeView) WithTx(tx store.Tx) store.PlaceStore {
	return &placeView{m: v.m, tx: asMemTx(tx)}
}

func (v *placeView) InsertPlace(_ context.Context, place *domain.Place) error {
	row := *place
	return v.m.write(v.tx, OpInsertPlace, func(st *state) error {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		if _, ok := st.users[row.CreatorID]; !ok {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, store.ErrUserNotFound)
		}
		if _, ok := st.places[row.ID]; ok {
			return store.ErrDuplicate
		}
		cp := row
		st.places[row.ID] = &cp
		st.order = append(st.order, row.ID)
		return nil
	})
}

func (v *placeView) FindPlace(_ context.Context, id uuid.UUID) (*domain.Place, error) {
	var out *domain.Place
	err := v.m.run(v.tx, OpFindPlace, func(st *state) error {
		p, ok := st.places[id]
		if !ok {
			return store.ErrPlaceNotFound
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (v *placeView) FindPlacesByCreator(_ context.Context, userID uuid.UUID) ([]*domain.Place, error) {
	out := []*domain.Place{}
	err := v.m.run(v.tx, OpFindByCreator, func(st *state) error {
		for _, id := range st.order {
			if p, ok := st.places[id]; ok && p.CreatorID == userID {
				cp := *p
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (v *placeView) UpdatePlace(_ context.Context, place *domain.Place) error {
	id, title, description, updatedAt := place.ID, place.Title, place.Description, place.UpdatedAt
	return v.m.write(v.tx, OpUpdatePlace, func(st *state) error {
		p, ok := st.places[id]
		if !ok {
			return store.ErrPlaceNotFound
		}
		p.Title = title
		p.Description = description
		p.UpdatedAt = updatedAt
		return nil
	})
}

func (v *placeView) DeletePlace(_ context.Context, id uuid.UUID) error {
	return v.m.write(v.tx, OpDeletePlace, func(st *state) error {
		if _, ok := st.places[id]; !ok {
			return store.ErrPlaceNotFound
		}
		delete(st.places, id)
		st.order = slices.DeleteFunc(st.order, func(x uuid.UUID) bool { return x == id })
		return nil
	})
}
