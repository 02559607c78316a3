package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/model"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// revoked, or that belong to a user who no longer exists.
var ErrInvalidToken = &apperr.Error{Kind: apperr.KindAuthentication, Code: "invalid_token", Message: "session is invalid or has expired"}

// Directory is the user collection sessions are checked against.
type Directory interface {
	Users() []model.User
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

// Service signs users in and out.
type Service struct {
	dir    Directory
	secret string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // JTI -> token expiry
}

// NewService returns a Service issuing tokens signed with secret.
func NewService(dir Directory, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = TokenExpiry
	}
	return &Service{
		dir:     dir,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Login checks the credentials against the current user collection. Both
// fields are trimmed; the username matches regardless of case, the password
// must match exactly.
func (s *Service) Login(username, password string) (model.Session, error) {
	u, ok := s.findByUsername(username)
	if !ok || !CheckPassword(u.Password, password) {
		return model.Session{}, apperr.ErrInvalidCredentials
	}

	token, _, err := GenerateToken(s.secret, u, s.now(), s.ttl)
	if err != nil {
		return model.Session{}, err
	}

	pub := u.Public()
	return model.Session{User: &pub, Token: token}, nil
}

func (s *Service) findByUsername(username string) (model.User, bool) {
	if strings.TrimSpace(username) == "" {
		return model.User{}, false
	}
	for _, u := range s.dir.Users() {
		if model.SameUsername(u.Username, username) {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *Service) findByID(id string) (model.User, bool) {
	for _, u := range s.dir.Users() {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Logout revokes token. It never fails and never touches the backend;
// invalid tokens are ignored.
func (s *Service) Logout(token string) {
	claims, err := ValidateToken(s.secret, token)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
}

// Validate returns the user a token was issued to, as currently stored.
// Role changes therefore apply to existing sessions.
func (s *Service) Validate(token string) (model.User, error) {
	claims, err := ValidateToken(s.secret, token)
	if err != nil {
		return model.User{}, apperr.Backend(ErrInvalidToken, ErrInvalidToken.Message, err)
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return model.User{}, ErrInvalidToken
	}

	u, ok := s.findByID(claims.UserID)
	if !ok {
		return model.User{}, ErrInvalidToken
	}
	return u, nil
}

// ChangePassword replaces the password of user id. The current password is
// checked first, then the new password's length, then the confirmation;
// nothing is written unless all three pass.
func (s *Service) ChangePassword(ctx context.Context, id, current, next, confirm string) error {
	u, ok := s.findByID(id)
	if !ok {
		return apperr.ErrInvalidCredentials
	}
	if !CheckPassword(u.Password, current) {
		return apperr.ErrWrongCurrentPassword
	}

	next = strings.TrimSpace(next)
	if err := model.ValidatePassword(next); err != nil {
		return err
	}
	if next != strings.TrimSpace(confirm) {
		return apperr.ErrConfirmationMismatch
	}

	_, err := s.dir.UpdateUser(ctx, u.ID, model.UserPatch{Password: &next})
	return err
}
