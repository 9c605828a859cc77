package niu

import (
	"sync"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/backoff"
	"github.com/futurehomeno/edge-niu-adapter/internal/config"
)

const (
	// ValidityBuffer is how long before its expiry a token is already considered invalid.
	ValidityBuffer = 5 * time.Minute
	// DefaultTokenLifetime is assumed when the account service does not report the token lifetime.
	DefaultTokenLifetime = 24 * time.Hour
)

// TokenSource exposes the token state the host needs to persist it from its own context.
type TokenSource interface {
	// Dirty returns true if the token changed since it was last loaded from the persisted record.
	Dirty() bool
	// Export returns the record to be persisted.
	Export() config.Token
}

var _ TokenSource = (*TokenManager)(nil)

// TokenOption configures the TokenManager.
type TokenOption func(m *TokenManager)

// WithDefaultLifetime sets the lifetime assumed for tokens issued without expires_in.
func WithDefaultLifetime(lifetime time.Duration) TokenOption {
	return func(m *TokenManager) {
		if lifetime > 0 {
			m.lifetime = lifetime
		}
	}
}

// WithLoginBackoff holds back login attempts after failures. Without it every attempt reaches the API.
func WithLoginBackoff(b *backoff.Exponential) TokenOption {
	return func(m *TokenManager) {
		m.backoff = b
	}
}

// TokenManager obtains, caches and refreshes the NIU access token.
// It never writes to storage, the host persists the token using the TokenSource methods.
type TokenManager struct {
	mu       sync.Mutex
	http     HTTPClient
	lifetime time.Duration
	backoff  *backoff.Exponential

	accessToken string
	expiresAt   time.Time
	persisted   config.Token
}

// NewTokenManager creates a new instance of the TokenManager.
func NewTokenManager(http HTTPClient, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		http:     http,
		lifetime: DefaultTokenLifetime,
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// LoadStored hydrates the manager from a previously persisted record.
func (m *TokenManager) LoadStored(record config.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persisted = record

	if record.Empty() {
		return
	}

	m.accessToken = record.AccessToken
	m.expiresAt = record.ExpiresAt

	log.WithField("expires_at", record.ExpiresAt.Format(time.RFC3339)).
		Debug("token manager: loaded stored token")
}

// IsValid returns true if a token is present and does not expire within the validity buffer.
func (m *TokenManager) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.isValid()
}

// Login requests a new token, replacing the cached one only on success.
func (m *TokenManager) Login(credentials config.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.login(credentials)
}

// EnsureValid logs in only if the cached token is missing or about to expire.
func (m *TokenManager) EnsureValid(credentials config.Credentials) error {
	_, err := m.AccessToken(credentials)

	return err
}

// AccessToken returns a valid access token, logging in first if needed.
func (m *TokenManager) AccessToken(credentials config.Credentials) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isValid() {
		return m.accessToken, nil
	}

	log.WithField("expires_at", m.expiresAt.Format(time.RFC3339)).
		Info("token manager: token expired or invalid, refreshing...")

	if err := m.login(credentials); err != nil {
		return "", err
	}

	return m.accessToken, nil
}

// HasUnsavedChange returns true if the cached token or its expiry differs from the provided record.
func (m *TokenManager) HasUnsavedChange(record config.Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.differsFrom(record)
}

// Dirty returns true if the cached token or its expiry differs from the last loaded record.
func (m *TokenManager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.differsFrom(m.persisted)
}

// Export returns the cached token as a record ready to be persisted.
func (m *TokenManager) Export() config.Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	return config.Token{
		AccessToken: m.accessToken,
		ExpiresAt:   m.expiresAt,
	}
}

func (m *TokenManager) differsFrom(record config.Token) bool {
	if m.accessToken == "" {
		return false
	}

	return m.accessToken != record.AccessToken || !m.expiresAt.Equal(record.ExpiresAt)
}

func (m *TokenManager) isValid() bool {
	if m.accessToken == "" || m.expiresAt.IsZero() {
		return false
	}

	return clock.Now().Before(m.expiresAt.Add(-ValidityBuffer))
}

func (m *TokenManager) login(credentials config.Credentials) error {
	if m.backoff != nil && m.backoff.Should() {
		return errors.Wrapf(ErrAuth, "too many failed logins: next attempt allowed at %s", m.backoff.RetryAt().Format(time.RFC3339))
	}

	token, err := m.http.Login(credentials.Username, credentials.Password)
	if err != nil {
		if m.backoff != nil {
			m.backoff.Fail()
		}

		log.WithError(err).Error("token manager: failed to obtain a new token")

		return err
	}

	if m.backoff != nil {
		m.backoff.Reset()
	}

	lifetime := token.ExpiresIn
	if lifetime <= 0 {
		lifetime = m.lifetime
	}

	m.accessToken = token.AccessToken
	m.expiresAt = clock.Now().Add(lifetime).UTC()

	log.WithField("expires_at", m.expiresAt.Format(time.RFC3339)).
		Debug("token manager: obtained a new token")

	return nil
}
