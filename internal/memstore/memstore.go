// Package memstore implements the record repository in process memory,
// optionally persisting the whole state as one JSON document in a blob store
// after every write.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

// Driver is the driver name reported by Store.
const Driver = "memory"

// StateVersion is the version tag of the persisted document.
const StateVersion = 1

// DefaultKey is the blob key the state is persisted under.
const DefaultKey = "gudang-state.json"

var _ repo.Repository = (*Store)(nil)

// state is the persisted document.
type state struct {
	Version   int              `json:"version"`
	Items     []model.Item     `json:"items"`
	Locations []model.Location `json:"locations"`
	Users     []model.User     `json:"users"`
	Branding  *model.Branding  `json:"branding,omitempty"`
	JWTSecret string           `json:"jwt_secret,omitempty"`
}

// Store is an in-memory repository.
type Store struct {
	mu    sync.Mutex
	st    state
	blobs blob.Store
	key   string
}

// New returns an empty store that never persists.
func New() *Store {
	return &Store{st: state{Version: StateVersion}}
}

// Open returns a store persisted under key in blobs, loading any existing
// state.
func Open(ctx context.Context, blobs blob.Store, key string) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{st: state{Version: StateVersion}, blobs: blobs, key: key}

	rc, _, err := blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, apperr.Backend(apperr.ErrNetworkUnavailable, "loading state: "+apperr.ErrNetworkUnavailable.Message, err)
	}
	defer rc.Close()

	var st state
	if err := json.NewDecoder(rc).Decode(&st); err != nil {
		return nil, apperr.Backend(apperr.ErrSchemaMismatch, "decoding state: "+apperr.ErrSchemaMismatch.Message, err)
	}
	if st.Version != StateVersion {
		return nil, apperr.Backend(apperr.ErrSchemaMismatch,
			fmt.Sprintf("state version %d: %s", st.Version, apperr.ErrSchemaMismatch.Message), nil)
	}
	s.st = st
	return s, nil
}

func (s *Store) Driver() string { return Driver }

func (s *Store) Close() error { return nil }

// commit persists next and makes it the current state. The caller holds mu.
func (s *Store) commit(ctx context.Context, next state) error {
	if s.blobs != nil {
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
		if err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), "application/json"); err != nil {
			return apperr.Backend(apperr.ErrBackendWrite, "persisting state: "+apperr.ErrBackendWrite.Message, err)
		}
	}
	s.st = next
	return nil
}

// clone returns a copy of the current state safe to mutate. The caller
// holds mu.
func (s *Store) clone() state {
	next := s.st
	next.Items = slices.Clone(s.st.Items)
	next.Locations = slices.Clone(s.st.Locations)
	next.Users = slices.Clone(s.st.Users)
	if s.st.Branding != nil {
		b := *s.st.Branding
		next.Branding = &b
	}
	return next
}

func notFound(what string) error {
	return apperr.Backend(apperr.ErrNotFound, what+" not found", nil)
}

func conflict(what string) error {
	return apperr.Backend(apperr.ErrWriteConflict, what+": "+apperr.ErrWriteConflict.Message, nil)
}

func indexByID[T any](list []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(list, func(v T) bool { return idOf(v) == id })
}

func itemID(i model.Item) string         { return i.ID }
func locationID(l model.Location) string { return l.ID }
func userID(u model.User) string         { return u.ID }

// ListItems returns all items ordered by SKU.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := slices.Clone(s.st.Items)
	slices.SortStableFunc(items, func(a, b model.Item) int { return strings.Compare(a.SKU, b.SKU) })
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// InsertItem creates a new item with a generated ID.
func (s *Store) InsertItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if item.Stock < 0 {
		return nil, conflict("creating item")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = repo.NewID()
	next := s.clone()
	next.Items = append(next.Items, item)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial update to an item.
func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, conflict("updating item")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Items, id, itemID)
	if i < 0 {
		return nil, notFound("item")
	}
	next.Items[i] = patch.Apply(next.Items[i])
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	item := next.Items[i]
	return &item, nil
}

// DeleteItem deletes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Items, id, itemID)
	if i < 0 {
		return notFound("item")
	}
	next.Items = slices.Delete(next.Items, i, i+1)
	return s.commit(ctx, next)
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locs := slices.Clone(s.st.Locations)
	slices.SortStableFunc(locs, func(a, b model.Location) int { return strings.Compare(a.Name, b.Name) })
	if locs == nil {
		locs = []model.Location{}
	}
	return locs, nil
}

func codeTaken(locs []model.Location, code, exceptID string) bool {
	return slices.ContainsFunc(locs, func(l model.Location) bool {
		return l.Code == code && l.ID != exceptID
	})
}

// InsertLocation creates a new location with a generated ID.
func (s *Store) InsertLocation(ctx context.Context, loc model.Location) (*model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if codeTaken(s.st.Locations, loc.Code, "") {
		return nil, conflict("creating location")
	}

	loc.ID = repo.NewID()
	next := s.clone()
	next.Locations = append(next.Locations, loc)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return &loc, nil
}

// UpdateLocation applies a partial update to a location.
func (s *Store) UpdateLocation(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Locations, id, locationID)
	if i < 0 {
		return nil, notFound("location")
	}
	if patch.Code != nil && codeTaken(next.Locations, *patch.Code, id) {
		return nil, conflict("updating location")
	}
	next.Locations[i] = patch.Apply(next.Locations[i])
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	loc := next.Locations[i]
	return &loc, nil
}

// DeleteLocation deletes a location and clears it from every item that
// referenced it.
func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Locations, id, locationID)
	if i < 0 {
		return notFound("location")
	}
	next.Locations = slices.Delete(next.Locations, i, i+1)
	for j := range next.Items {
		if next.Items[j].LocationID == id {
			next.Items[j].LocationID = ""
		}
	}
	return s.commit(ctx, next)
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := slices.Clone(s.st.Users)
	slices.SortStableFunc(users, func(a, b model.User) int { return strings.Compare(a.Username, b.Username) })
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func usernameTaken(users []model.User, username, exceptID string) bool {
	return slices.ContainsFunc(users, func(u model.User) bool {
		return model.SameUsername(u.Username, username) && u.ID != exceptID
	})
}

// InsertUser creates a new user with a generated ID.
func (s *Store) InsertUser(ctx context.Context, u model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if usernameTaken(s.st.Users, u.Username, "") {
		return nil, conflict("creating user")
	}

	u.ID = repo.NewID()
	next := s.clone()
	next.Users = append(next.Users, u)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial update to a user.
func (s *Store) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Users, id, userID)
	if i < 0 {
		return nil, notFound("user")
	}
	if patch.Username != nil && usernameTaken(next.Users, *patch.Username, id) {
		return nil, conflict("updating user")
	}
	next.Users[i] = patch.Apply(next.Users[i])
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	u := next.Users[i]
	return &u, nil
}

// DeleteUser deletes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	i := indexByID(next.Users, id, userID)
	if i < 0 {
		return notFound("user")
	}
	next.Users = slices.Delete(next.Users, i, i+1)
	return s.commit(ctx, next)
}

// GetBranding returns the stored branding, or nil if none has been stored.
func (s *Store) GetBranding(ctx context.Context) (*model.Branding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.Branding == nil {
		return nil, nil
	}
	b := *s.st.Branding
	return &b, nil
}

// PutBranding stores the complete branding record.
func (s *Store) PutBranding(ctx context.Context, b model.Branding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	next.Branding = &b
	return s.commit(ctx, next)
}
