package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eredeticsakra/csakra-api/internal/config"
)

var (
	// ErrInvalidCredentials rejects a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidSession rejects a missing, expired, or revoked token.
	ErrInvalidSession = errors.New("invalid session")
)

// SessionStore tracks which session ids are live. Logout revokes a
// session before its JWT expiry.
type SessionStore interface {
	Put(ctx context.Context, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis so restarts do not log the
// admin out.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "admin_session:" + id
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemorySessionStore backs tests and Redis-less development.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time)}
}

func (s *MemorySessionStore) Put(ctx context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = time.Now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Manager authenticates the configured admin and issues signed session
// tokens. It implements Authorizer for the admin middleware gate.
type Manager struct {
	cfg    config.AdminConfig
	store  SessionStore
	logger *zap.Logger
}

// NewManager creates a session manager.
func NewManager(cfg config.AdminConfig, store SessionStore, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, store: store, logger: logger}
}

// Session is an issued admin session.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks credentials against the configured admin account and
// issues a session token.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(m.cfg.Email))) == 1

	// Always run the hash comparison so a wrong email costs the same
	// time as a wrong password.
	hashErr := bcrypt.CompareHashAndPassword([]byte(m.cfg.PasswordHash), []byte(password))
	if !emailOK || hashErr != nil {
		m.logger.Warn("admin login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(m.cfg.SessionTTL)

	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := m.store.Put(ctx, sessionID, m.cfg.SessionTTL); err != nil {
		return nil, err
	}

	m.logger.Info("admin logged in", zap.String("email", email))
	return &Session{Token: token, Email: email, ExpiresAt: expiresAt}, nil
}

// Verify parses a token and confirms its session has not been revoked.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	live, err := m.store.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrInvalidSession
	}
	return &Session{Token: token, Email: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the session behind a token. Revoking an already-dead
// token is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return err
	}
	m.logger.Info("admin logged out", zap.String("email", claims.Subject))
	return nil
}

// Check implements Authorizer for the admin route gate.
func (m *Manager) Check(r *http.Request) Decision {
	token := bearerToken(r)
	if token == "" {
		return Deny("missing session token")
	}
	session, err := m.Verify(r.Context(), token)
	if err != nil {
		return Deny("invalid session")
	}
	return Allow(session.Email)
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
