package app

import (
	"fmt"
	"time"

	cliffApp "github.com/futurehomeno/cliffhanger/app"
	"github.com/futurehomeno/cliffhanger/lifecycle"
	"github.com/futurehomeno/cliffhanger/manifest"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/jwt"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
)

// Application is an interface representing a service responsible for preparing an application manifest and configuring app.
type Application interface {
	cliffApp.App
	cliffApp.LogginableApp
	cliffApp.CheckableApp
	cliffApp.InitializableApp
}

// New creates new instance of an Application.
func New(
	cfgService *config.Service,
	lc *lifecycle.Lifecycle,
	mfLoader manifest.Loader,
	scooterService scooter.Service,
) Application {
	return &application{
		cfgService: cfgService,
		lifecycle:  lc,
		mfLoader:   mfLoader,
		scooter:    scooterService,
	}
}

type application struct {
	cfgService *config.Service
	lifecycle  *lifecycle.Lifecycle
	mfLoader   manifest.Loader
	scooter    scooter.Service
}

func (a *application) GetManifest() (*manifest.Manifest, error) {
	mf, err := a.mfLoader.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load manifest")
	}

	return mf, nil
}

// Configure applies the manifest settings. The cached scooter client is dropped when the scooter selection changes.
func (a *application) Configure(c interface{}) error {
	cfg, ok := c.(*config.Config)
	if !ok {
		return errors.Errorf("app: unexpected configuration type %T", c)
	}

	settings := cfg.ManifestSettings
	if settings == nil {
		return nil
	}

	if settings.ScooterIndex != nil && *settings.ScooterIndex < 0 {
		return errors.Errorf("app: invalid scooter index: %d", *settings.ScooterIndex)
	}

	var interval time.Duration

	if settings.PollingSchedule != "" {
		var err error

		interval, err = time.ParseDuration(settings.PollingSchedule)
		if err != nil || interval <= 0 {
			return errors.Errorf("app: invalid polling interval: %q", settings.PollingSchedule)
		}
	}

	if interval > 0 {
		if err := a.cfgService.SetPollingInterval(interval); err != nil {
			return errors.Wrap(err, "failed to set polling interval")
		}
	}

	current := a.cfgService.GetCredentials()
	reset := false

	if settings.ScooterIndex != nil && *settings.ScooterIndex != current.ScooterID {
		if err := a.cfgService.SetScooter(*settings.ScooterIndex); err != nil {
			return errors.Wrap(err, "failed to set scooter")
		}

		reset = true
	}

	if settings.APILanguage != "" && settings.APILanguage != current.Language {
		if err := a.cfgService.SetLanguage(settings.APILanguage); err != nil {
			return errors.Wrap(err, "failed to set language")
		}

		reset = true
	}

	if reset {
		a.scooter.Reset()
	}

	return nil
}

func (a *application) Uninstall() error {
	err := a.cfgService.Reset()
	if err != nil {
		log.Info("app: failed to reset config")

		return errors.New("failed to reset configuration")
	}

	a.scooter.Reset()

	a.lifecycle.SetAppState(lifecycle.AppStateNotConfigured, nil)
	a.lifecycle.SetConfigState(lifecycle.ConfigStateNotConfigured)
	a.lifecycle.SetConnectionState(lifecycle.ConnStateDisconnected)
	a.lifecycle.SetAuthState(lifecycle.AuthStateNotAuthenticated)

	return nil
}

func (a *application) Login(credentials *cliffApp.LoginCredentials) error {
	defer a.Check() //nolint:errcheck

	previous := a.cfgService.GetCredentials()

	next := previous
	next.Username = credentials.Username
	next.Password = credentials.Password

	if err := a.cfgService.SetCredentials(next); err != nil {
		return errors.Wrap(err, "failed to store credentials")
	}

	if err := a.scooter.Login(); err != nil {
		a.restoreCredentials(previous)

		a.lifecycle.SetAppState(lifecycle.AppStateNotConfigured, nil)
		a.lifecycle.SetAuthState(lifecycle.AuthStateNotAuthenticated)
		a.lifecycle.SetConfigState(lifecycle.ConfigStateNotConfigured)

		return errors.Wrap(err, fmt.Sprintf("failed to login as '%s'", credentials.Username))
	}

	a.lifecycle.SetAppState(lifecycle.AppStateRunning, nil)
	a.lifecycle.SetAuthState(lifecycle.AuthStateAuthenticated)
	a.lifecycle.SetConfigState(lifecycle.ConfigStateConfigured)

	return nil
}

func (a *application) Check() error {
	if a.cfgService.GetCredentials().Empty() {
		a.lifecycle.SetConnectionState(lifecycle.ConnStateDisconnected)

		return nil
	}

	if err := a.scooter.EnsureToken(); err != nil {
		log.WithError(err).Warn("app: connection check failed")

		a.lifecycle.SetConnectionState(lifecycle.ConnStateDisconnected)

		return nil //nolint:nilerr
	}

	a.lifecycle.SetConnectionState(lifecycle.ConnStateConnected)

	return nil
}

func (a *application) Initialize() error {
	defer a.Check() //nolint:errcheck

	if err := a.cfgService.Save(); err != nil {
		return errors.Wrap(err, "failed to save configs at application initialization")
	}

	if err := a.migrateToken(); err != nil {
		return errors.Wrap(err, "failed to migrate stored token")
	}

	if a.cfgService.GetCredentials().Empty() {
		a.lifecycle.SetAppState(lifecycle.AppStateNotConfigured, nil)
		a.lifecycle.SetConfigState(lifecycle.ConfigStateNotConfigured)
		a.lifecycle.SetAuthState(lifecycle.AuthStateNotAuthenticated)

		return nil
	}

	a.lifecycle.SetAppState(lifecycle.AppStateRunning, nil)
	a.lifecycle.SetConfigState(lifecycle.ConfigStateConfigured)
	a.lifecycle.SetAuthState(lifecycle.AuthStateAuthenticated)

	return nil
}

func (a *application) Logout() error {
	if err := a.cfgService.ClearCredentials(); err != nil {
		a.lifecycle.SetAppState(lifecycle.AppStateError, nil)
		a.lifecycle.SetAuthState(lifecycle.AuthStateNotAuthenticated)
		a.lifecycle.SetConfigState(lifecycle.ConfigStateNotConfigured)

		return err
	}

	a.scooter.Reset()

	_ = a.Check()

	a.lifecycle.SetAppState(lifecycle.AppStateNotConfigured, nil)
	a.lifecycle.SetConfigState(lifecycle.ConfigStateNotConfigured)
	a.lifecycle.SetAuthState(lifecycle.AuthStateNotAuthenticated)

	return nil
}

func (a *application) restoreCredentials(previous config.Credentials) {
	if err := a.cfgService.SetCredentials(previous); err != nil {
		log.WithError(err).Error("app: failed to restore previous credentials")
	}

	a.scooter.Reset()
}

// migrateToken fills in the expiry of token records stored without one.
// The expiry is read from the token claims, tokens without a readable expiry are dropped.
func (a *application) migrateToken() error {
	token := a.cfgService.GetToken()
	if token.Empty() || !token.ExpiresAt.IsZero() {
		return nil
	}

	expiresAt, err := jwt.Expiry(token.AccessToken)
	if err != nil {
		log.WithError(err).Info("app: stored token has no readable expiry, dropping it")

		return a.cfgService.SetToken(config.Token{})
	}

	log.WithField("expires_at", expiresAt).Info("app: migrated stored token")

	return a.cfgService.SetToken(config.Token{AccessToken: token.AccessToken, ExpiresAt: expiresAt})
}
