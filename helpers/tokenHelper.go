package helpers

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	tokenKey          = "admin_token"
	restaurantNameKey = "restaurant_name"
)

// SignedDetails are the claims carried by staff bearer tokens.
type SignedDetails struct {
	RestaurantID int64  `json:"restaurant_id,omitempty"`
	Email        string `json:"email,omitempty"`
	jwt.StandardClaims
}

// TokenStore persists small string values across sessions.
type TokenStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// CredentialManager owns the staff bearer token and the display name of the
// restaurant it belongs to. Values are cached in memory and mirrored into a
// TokenStore. Storage failures are logged and otherwise ignored.
type CredentialManager struct {
	store        TokenStore
	now          func() time.Time
	log          *slog.Logger
	fallbackName string

	mu             sync.Mutex
	token          string
	restaurantName string
}

type Option func(*CredentialManager)

func WithFallbackRestaurantName(name string) Option {
	return func(m *CredentialManager) { m.fallbackName = strings.TrimSpace(name) }
}

func WithClock(now func() time.Time) Option {
	return func(m *CredentialManager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *CredentialManager) { m.log = l }
}

func NewCredentialManager(store TokenStore, opts ...Option) *CredentialManager {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &CredentialManager{
		store: store,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the current bearer token. A malformed or expired value is
// treated as absent and removed from storage.
func (m *CredentialManager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		if _, ok := m.normalizeToken(m.token); ok {
			return m.token, true
		}
		m.log.Info("cached token expired, discarding")
		m.token = ""
		m.deleteKey(tokenKey)
		return "", false
	}

	stored, found, err := m.store.Get(tokenKey)
	if err != nil {
		m.log.Warn("failed to read token", "error", err)
		return "", false
	}
	if !found {
		return "", false
	}
	token, ok := m.normalizeToken(stored)
	if !ok {
		if stored != "" {
			m.log.Info("discarding malformed stored token")
		}
		m.deleteKey(tokenKey)
		return "", false
	}
	m.token = token
	return token, true
}

// HasToken reports whether a usable token is present.
func (m *CredentialManager) HasToken() bool {
	_, ok := m.Token()
	return ok
}

// SetToken stores token. An unusable value clears the credential and the
// restaurant name that came with it.
func (m *CredentialManager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized, ok := m.normalizeToken(token)
	if !ok {
		m.token = ""
		m.restaurantName = ""
		m.deleteKey(tokenKey)
		m.deleteKey(restaurantNameKey)
		return
	}
	m.token = normalized
	if err := m.store.Set(tokenKey, normalized); err != nil {
		m.log.Warn("failed to persist token", "error", err)
	}
}

// Invalidate drops the credential, e.g. after the server rejected it.
func (m *CredentialManager) Invalidate() {
	m.SetToken("")
}

// Claims returns the unverified claims of the current token.
func (m *CredentialManager) Claims() (*SignedDetails, bool) {
	token, ok := m.Token()
	if !ok {
		return nil, false
	}
	claims := &SignedDetails{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func (m *CredentialManager) RestaurantName() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.restaurantName != "" {
		return m.restaurantName
	}
	stored, found, err := m.store.Get(restaurantNameKey)
	if err != nil {
		m.log.Warn("failed to read restaurant name", "error", err)
	}
	if found {
		if name := normalizeName(stored); name != "" {
			m.restaurantName = name
			return name
		}
		m.deleteKey(restaurantNameKey)
	}
	return m.fallbackName
}

func (m *CredentialManager) SetRestaurantName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.restaurantName = normalizeName(name)
	if m.restaurantName == "" {
		m.deleteKey(restaurantNameKey)
		return
	}
	if err := m.store.Set(restaurantNameKey, m.restaurantName); err != nil {
		m.log.Warn("failed to persist restaurant name", "error", err)
	}
}

func (m *CredentialManager) deleteKey(key string) {
	if err := m.store.Delete(key); err != nil {
		m.log.Warn("failed to delete stored value", "key", key, "error", err)
	}
}

// normalizeToken trims the raw value and checks that it has the structure of
// a JWT whose exp claim, if any, lies in the future.
func (m *CredentialManager) normalizeToken(value string) (string, bool) {
	token := strings.Trim(strings.TrimSpace(value), `"`)
	if token == "" || token == "null" || token == "undefined" {
		return "", false
	}
	if !strings.Contains(token, ".") {
		return "", false
	}
	claims := &SignedDetails{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", false
	}
	if claims.ExpiresAt != 0 && claims.ExpiresAt <= m.now().Unix() {
		return "", false
	}
	return token, true
}

func normalizeName(value string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))
}
