package config

import (
	"sync"
	"time"

	"github.com/futurehomeno/cliffhanger/config"
	"github.com/futurehomeno/cliffhanger/storage"
	"github.com/michalkurzeja/go-clock"
)

const (
	defaultPollingInterval = 15 * time.Minute
	defaultTokenLifetime   = 24 * time.Hour
	defaultLanguage        = "en-US"

	// DefaultAccountBaseURL is the NIU account service used for logging in.
	DefaultAccountBaseURL = "https://account-fk.niu.com"
	// DefaultAPIBaseURL is the NIU application API used for telemetry and commands.
	DefaultAPIBaseURL = "https://app-api-fk.niu.com"
)

// Config is a model containing all application configuration settings.
type Config struct {
	config.Default

	Credentials Credentials `json:"credentials"`
	Token       Token       `json:"token"`

	AccountBaseURL  string   `json:"accountBaseURL"`
	APIBaseURL      string   `json:"apiBaseURL"`
	HTTPTimeout     string   `json:"httpTimeout"`
	PollingInterval string   `json:"pollingInterval"`
	TokenLifetime   string   `json:"tokenLifetime"`
	LoginBackoff    string   `json:"loginBackoff"`
	Sensors         []string `json:"sensors"`

	*ManifestSettings
}

// New creates new instance of a configuration object.
func New(workDir string) *Config {
	return &Config{
		Default: config.NewDefault(workDir),
	}
}

// Factory is a factory method returning the configuration object without default settings.
func Factory() *Config {
	return &Config{}
}

// ManifestSettings are the manifest settings delivered with an extended configuration command.
// They are only decoded from the command payload and never persisted.
type ManifestSettings struct {
	ScooterIndex    *int   `json:"scooter_id,omitempty"`
	APILanguage     string `json:"language,omitempty"`
	PollingSchedule string `json:"polling_interval,omitempty"`
}

// Credentials represent NIU account credentials and the selected scooter.
type Credentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ScooterID int    `json:"scooterID"`
	Language  string `json:"language"`
}

// Empty checks if credentials are empty.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}

// WithScooter returns a copy of credentials selecting a different scooter.
func (c Credentials) WithScooter(scooterID int) Credentials {
	c.ScooterID = scooterID

	return c
}

// Token is the persisted token record.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Empty checks if the token record is empty.
func (t Token) Empty() bool {
	return t.AccessToken == ""
}

// Expired checks if the token has reached its expiration time.
func (t Token) Expired() bool {
	return t.ExpiresAt.IsZero() || !clock.Now().Before(t.ExpiresAt)
}

// Service is a configuration service responsible for:
// - providing concurrency safe access to settings
// - persistence of settings
type Service struct {
	storage.Storage[*Config]
	lock *sync.RWMutex
}

// NewService creates a new configuration service.
func NewService(storage storage.Storage[*Config]) *Service {
	return &Service{
		Storage: storage,
		lock:    &sync.RWMutex{},
	}
}

// GetWorkDir returns the working directory of the application.
func (cs *Service) GetWorkDir() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.Storage.Model().WorkDir
}

// SetLogLevel allows to safely set and persist configuration settings.
func (cs *Service) SetLogLevel(logLevel string) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().LogLevel = logLevel

	return cs.Storage.Save()
}

// GetCredentials allows to safely access a configuration setting.
func (cs *Service) GetCredentials() Credentials {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	creds := cs.Storage.Model().Credentials
	if creds.Language == "" {
		creds.Language = defaultLanguage
	}

	return creds
}

// SetCredentials allows to safely set and persist configuration settings.
func (cs *Service) SetCredentials(credentials Credentials) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().Credentials = credentials

	return cs.Storage.Save()
}

// SetScooter selects the scooter by its index in the account vehicle list.
func (cs *Service) SetScooter(scooterID int) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().Credentials.ScooterID = scooterID

	return cs.Storage.Save()
}

// SetLanguage sets the language sent to the NIU API.
func (cs *Service) SetLanguage(language string) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().Credentials.Language = language

	return cs.Storage.Save()
}

// GetToken returns the persisted token record.
func (cs *Service) GetToken() Token {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.Storage.Model().Token
}

// SetToken persists the token record.
func (cs *Service) SetToken(token Token) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().Token = token

	return cs.Storage.Save()
}

// ClearCredentials removes account credentials together with the persisted token.
func (cs *Service) ClearCredentials() error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().Credentials = Credentials{}
	cs.Storage.Model().Token = Token{}

	return cs.Storage.Save()
}

// GetAccountBaseURL allows to safely access a configuration setting.
func (cs *Service) GetAccountBaseURL() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if u := cs.Storage.Model().AccountBaseURL; u != "" {
		return u
	}

	return DefaultAccountBaseURL
}

// SetAccountBaseURL allows to safely set and persist configuration settings.
func (cs *Service) SetAccountBaseURL(url string) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().AccountBaseURL = url

	return cs.Storage.Save()
}

// GetAPIBaseURL allows to safely access a configuration setting.
func (cs *Service) GetAPIBaseURL() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if u := cs.Storage.Model().APIBaseURL; u != "" {
		return u
	}

	return DefaultAPIBaseURL
}

// SetAPIBaseURL allows to safely set and persist configuration settings.
func (cs *Service) SetAPIBaseURL(url string) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().APIBaseURL = url

	return cs.Storage.Save()
}

// GetHTTPTimeout returns the HTTP client timeout. Zero means no timeout.
func (cs *Service) GetHTTPTimeout() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.Storage.Model().HTTPTimeout, 0)
}

// SetHTTPTimeout allows to safely set and persist configuration settings.
func (cs *Service) SetHTTPTimeout(timeout time.Duration) error {
	return cs.setDuration(timeout, func(c *Config, v string) { c.HTTPTimeout = v })
}

// GetPollingInterval allows to safely access a configuration setting.
func (cs *Service) GetPollingInterval() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.Storage.Model().PollingInterval, defaultPollingInterval)
}

// SetPollingInterval allows to safely set and persist configuration settings.
func (cs *Service) SetPollingInterval(interval time.Duration) error {
	return cs.setDuration(interval, func(c *Config, v string) { c.PollingInterval = v })
}

// GetTokenLifetime returns the lifetime assumed for tokens issued without an explicit expiry.
func (cs *Service) GetTokenLifetime() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.Storage.Model().TokenLifetime, defaultTokenLifetime)
}

// SetTokenLifetime allows to safely set and persist configuration settings.
func (cs *Service) SetTokenLifetime(lifetime time.Duration) error {
	return cs.setDuration(lifetime, func(c *Config, v string) { c.TokenLifetime = v })
}

// GetLoginBackoff returns the delay applied after a failed login. Zero disables the backoff.
func (cs *Service) GetLoginBackoff() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.Storage.Model().LoginBackoff, 0)
}

// SetLoginBackoff allows to safely set and persist configuration settings.
func (cs *Service) SetLoginBackoff(backoff time.Duration) error {
	return cs.setDuration(backoff, func(c *Config, v string) { c.LoginBackoff = v })
}

// GetSensors returns a copy of the selected sensors.
func (cs *Service) GetSensors() []string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	sensors := cs.Storage.Model().Sensors
	out := make([]string, len(sensors))
	copy(out, sensors)

	return out
}

// SetSensors allows to safely set and persist configuration settings.
func (cs *Service) SetSensors(sensors []string) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	cs.Storage.Model().Sensors = sensors

	return cs.Storage.Save()
}

func (cs *Service) setDuration(d time.Duration, set func(c *Config, v string)) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.Storage.Model().ConfiguredAt = time.Now().Format(time.RFC3339)
	set(cs.Storage.Model(), d.String())

	return cs.Storage.Save()
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return duration
}
