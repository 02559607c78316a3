package memstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/gudang/internal/repo"
)

var _ repo.SecretStore = (*Store)(nil)

// JWTSecret returns the session signing key, generating and persisting one
// on first use.
func (s *Store) JWTSecret(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.JWTSecret != "" {
		return s.st.JWTSecret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	next := s.clone()
	next.JWTSecret = hex.EncodeToString(buf)
	if err := s.commit(ctx, next); err != nil {
		return "", err
	}
	return next.JWTSecret, nil
}
