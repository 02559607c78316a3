package store

import (
	"context"

	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT id, username, password, role FROM users ORDER BY username`); err != nil {
		return nil, fail("listing users", err)
	}
	return users, nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := s.db.GetContext(ctx, u, s.db.Rebind(`SELECT id, username, password, role FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, fail("getting user", err)
	}
	return u, nil
}

// InsertUser creates a new user with a generated ID.
func (s *Store) InsertUser(ctx context.Context, u model.User) (*model.User, error) {
	u.ID = repo.NewID()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, username, password, role) VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.Password, u.Role,
	)
	if err != nil {
		return nil, fail("creating user", err)
	}
	return &u, nil
}

// UpdateUser applies a partial update to a user.
func (s *Store) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	var set setList
	if patch.Username != nil {
		set.add("username", *patch.Username)
	}
	if patch.Password != nil {
		set.add("password", *patch.Password)
	}
	if patch.Role != nil {
		set.add("role", *patch.Role)
	}

	if !set.empty() {
		if err := s.updateByID(ctx, s.db, "users", id, set); err != nil {
			return nil, fail("updating user", err)
		}
	}
	return s.GetUser(ctx, id)
}

// DeleteUser deletes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.deleteByID(ctx, s.db, "users", id); err != nil {
		return fail("deleting user", err)
	}
	return nil
}
