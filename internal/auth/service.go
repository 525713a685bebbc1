package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// minPasswordLen is the registration floor.
const minPasswordLen = 8

// Service implements registration, login, and session resolution.
type Service struct {
	store      *Store
	bcryptCost int
	sessionTTL time.Duration
}

// NewService creates the auth service.
func NewService(store *Store) *Service {
	return &Service{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
		sessionTTL: DefaultSessionTTL,
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if req.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.store.UserByUsername(ctx, req.Username)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:         hashToken(token),
		UserID:     u.ID,
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

// Logout closes the session behind a token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, hashToken(token))
}

// Resolve maps a session token to its user. Expired sessions are deleted
// on sight.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	id := hashToken(token)
	sess, err := s.store.SessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionInvalid
	}

	now := time.Now().UTC()
	if now.After(sess.ExpiresAt) {
		_ = s.store.DeleteSession(ctx, id)
		return nil, ErrSessionInvalid
	}

	_ = s.store.TouchSession(ctx, id, now)
	return s.store.UserByID(ctx, sess.UserID)
}

// newToken returns a 256-bit URL-safe random token.
func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// hashToken derives the storage id from a token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
