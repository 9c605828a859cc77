package scooter

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/futurehomeno/cliffhanger/notification"
	"github.com/futurehomeno/fimpgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/backoff"
	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
	"github.com/futurehomeno/edge-niu-adapter/internal/worker"
)

const (
	notificationStatusOffline = "niu_status_offline"
	logoutAddressTemplate     = "pt:j1/mt:cmd/rt:ad/rn:%s/ad:1"
)

// ErrNotConfigured is returned when no account credentials are stored.
var ErrNotConfigured = errors.New("scooter: account credentials are not configured")

// Notifier is a service responsible for sending push notifications.
type Notifier interface {
	Event(event *notification.Event) error
}

// Publisher publishes FIMP messages.
type Publisher interface {
	PublishToTopic(topic string, msg *fimpgo.FimpMessage) error
}

// HTTPClientFactory creates the NIU HTTP client for the configured endpoints.
type HTTPClientFactory func(httpClient *http.Client, accountBaseURL, apiBaseURL string) niu.HTTPClient

// Service exposes the scooter to the edge application.
// All NIU calls are executed on the worker and the token is persisted from the calling goroutine after each of them.
type Service interface {
	// Login logs in with the stored credentials, discarding any cached token, and resolves the configured scooter.
	Login() error
	// EnsureToken makes sure a valid token is available, logging in only if needed.
	EnsureToken() error
	// SetIgnition switches the ignition of the scooter at the given account index.
	SetIgnition(scooterID int, on bool) error
	// Report refreshes the report groups of the selected sensors and returns the telemetry summary.
	Report() (Report, error)
	// Reset drops the cached token manager and client, for example after credentials have changed.
	Reset()
}

type service struct {
	cfg         *config.Service
	worker      worker.Worker
	newHTTP     HTTPClientFactory
	notifier    Notifier
	publisher   Publisher
	serviceName string

	mu     sync.Mutex
	tokens *niu.TokenManager
	client *niu.Client
}

// NewService creates a new scooter service.
func NewService(
	cfg *config.Service,
	w worker.Worker,
	newHTTP HTTPClientFactory,
	notifier Notifier,
	publisher Publisher,
	serviceName string,
) Service {
	return &service{
		cfg:         cfg,
		worker:      w,
		newHTTP:     newHTTP,
		notifier:    notifier,
		publisher:   publisher,
		serviceName: serviceName,
	}
}

func (s *service) Login() error {
	credentials, err := s.credentials()
	if err != nil {
		return err
	}

	s.Reset()

	tokens, client := s.current(credentials)

	err = s.run(tokens, func() error {
		if err := tokens.Login(credentials); err != nil {
			return err
		}

		_, err := client.ResolveVehicle()

		return err
	})
	if err != nil {
		return errors.Wrap(err, "scooter: failed to log in")
	}

	return nil
}

func (s *service) EnsureToken() error {
	credentials, err := s.credentials()
	if err != nil {
		return err
	}

	tokens, _ := s.current(credentials)

	err = s.run(tokens, func() error {
		return tokens.EnsureValid(credentials)
	})
	if err != nil {
		s.handleFailure(err)

		return errors.Wrap(err, "scooter: failed to ensure a valid token")
	}

	return nil
}

func (s *service) SetIgnition(scooterID int, on bool) error {
	credentials, err := s.credentials()
	if err != nil {
		return err
	}

	tokens, _ := s.current(credentials)
	client := niu.NewClient(s.httpClient(), tokens, credentials.WithScooter(scooterID))

	err = s.run(tokens, func() error {
		if err := tokens.EnsureValid(credentials); err != nil {
			return err
		}

		return client.SetIgnition(on)
	})
	if err != nil {
		s.handleFailure(err)

		return fmt.Errorf("scooter: failed to set ignition of scooter %d: %w", scooterID, err)
	}

	return nil
}

func (s *service) Report() (Report, error) {
	credentials, err := s.credentials()
	if err != nil {
		return nil, err
	}

	tokens, client := s.current(credentials)
	groups := ReportGroups(s.cfg.GetSensors())

	var report Report

	err = s.run(tokens, func() error {
		vehicle, err := client.ResolveVehicle()
		if err != nil {
			return err
		}

		var lastErr error

		for _, group := range groups {
			if err := client.Fetch(group); err != nil {
				if errors.Is(err, niu.ErrAuth) {
					return err
				}

				log.WithError(err).WithField("group", group).Warn("scooter: failed to refresh snapshot, reporting the previous one")

				lastErr = err
			}
		}

		if lastErr != nil && !hasSnapshot(client, groups) {
			return lastErr
		}

		report = buildReport(client, vehicle, groups)

		return nil
	})
	if err != nil {
		s.handleFailure(err)

		return nil, errors.Wrap(err, "scooter: failed to build telemetry report")
	}

	return report, nil
}

func (s *service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = nil
	s.client = nil
}

// run executes the job on the worker and then persists the token if it changed.
func (s *service) run(tokens *niu.TokenManager, job func() error) error {
	err := s.worker.Do(job)

	s.persistToken(tokens)

	return err
}

// persistToken saves a changed token unless the manager was dropped by Reset while the job was running.
func (s *service) persistToken(tokens *niu.TokenManager) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tokens != s.tokens {
		log.Debug("scooter: token manager was reset, token not persisted")

		return
	}

	if !tokens.Dirty() {
		return
	}

	record := tokens.Export()

	if err := s.cfg.SetToken(record); err != nil {
		log.WithError(err).Error("scooter: failed to persist the access token")

		return
	}

	tokens.LoadStored(record)
}

func hasSnapshot(client *niu.Client, groups []niu.Category) bool {
	for _, group := range groups {
		if _, ok := client.Snapshot(group); ok {
			return true
		}
	}

	return false
}

func (s *service) credentials() (config.Credentials, error) {
	credentials := s.cfg.GetCredentials()
	if credentials.Empty() {
		return config.Credentials{}, ErrNotConfigured
	}

	return credentials, nil
}

// current returns the token manager and the client of the configured scooter, creating them on first use.
func (s *service) current(credentials config.Credentials) (*niu.TokenManager, *niu.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		s.tokens = niu.NewTokenManager(
			s.httpClient(),
			niu.WithDefaultLifetime(s.cfg.GetTokenLifetime()),
			niu.WithLoginBackoff(backoff.NewExponential(s.cfg.GetLoginBackoff())),
		)
		s.tokens.LoadStored(s.cfg.GetToken())
	}

	if s.client == nil {
		s.client = niu.NewClient(s.httpClient(), s.tokens, credentials)
	}

	return s.tokens, s.client
}

func (s *service) httpClient() niu.HTTPClient {
	return s.newHTTP(
		&http.Client{Timeout: s.cfg.GetHTTPTimeout()},
		s.cfg.GetAccountBaseURL(),
		s.cfg.GetAPIBaseURL(),
	)
}

// handleFailure triggers an application logout when the account service rejected the stored credentials.
func (s *service) handleFailure(err error) {
	if !errors.Is(err, niu.ErrInvalidCredentials) {
		return
	}

	log.WithError(err).Warn("scooter: credentials rejected, triggering app logout")

	if s.notifier != nil {
		if err := s.notifier.Event(&notification.Event{EventName: notificationStatusOffline}); err != nil {
			log.WithError(err).Error("scooter: failed to send push notification")
		}
	}

	if s.publisher == nil {
		return
	}

	message := fimpgo.NewNullMessage("cmd.auth.logout", s.serviceName, nil, nil, nil)
	address := fmt.Sprintf(logoutAddressTemplate, s.serviceName)

	if err := s.publisher.PublishToTopic(address, message); err != nil {
		log.WithError(err).WithField("address", address).Error("scooter: failed to publish app logout message")
	}
}
