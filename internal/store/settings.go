package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erazemk/gudang/internal/model"
)

// GetBranding returns the stored branding, or nil if none has been stored.
func (s *Store) GetBranding(ctx context.Context) (*model.Branding, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, s.db.Rebind(`SELECT value FROM settings WHERE key = ?`), model.BrandingKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fail("getting branding", err)
	}

	b := &model.Branding{}
	if err := json.Unmarshal([]byte(raw), b); err != nil {
		return nil, fail("decoding branding", fmt.Errorf("malformed branding value: %w", err))
	}
	return b, nil
}

// PutBranding stores the complete branding record, replacing any previous one.
func (s *Store) PutBranding(ctx context.Context, b model.Branding) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding branding: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		model.BrandingKey, string(data),
	)
	if err != nil {
		return fail("storing branding", err)
	}
	return nil
}

// JWTSecret retrieves the session signing key from the database.
// If no key exists, it generates one, stores it, and returns it.
// Uses insert-if-absent + re-SELECT to avoid a race on concurrent startup.
func (s *Store) JWTSecret(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO settings (key, value) VALUES ('jwt_secret', ?)
		 ON CONFLICT (key) DO NOTHING`),
		candidate,
	)
	if err != nil {
		return "", fail("storing jwt_secret", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	if err := s.db.GetContext(ctx, &secret, `SELECT value FROM settings WHERE key = 'jwt_secret'`); err != nil {
		return "", fail("querying jwt_secret", err)
	}
	return secret, nil
}
