package scooter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/futurehomeno/cliffhanger/notification"
	"github.com/futurehomeno/fimpgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
	"github.com/futurehomeno/edge-niu-adapter/internal/test"
	"github.com/futurehomeno/edge-niu-adapter/internal/test/fakes"
	"github.com/futurehomeno/edge-niu-adapter/internal/worker"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Event(event *notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event.EventName)

	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	messages []*fimpgo.FimpMessage
}

func (p *recordingPublisher) PublishToTopic(topic string, msg *fimpgo.FimpMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, msg)

	return nil
}

type setup struct {
	niu       *test.NIUServer
	storage   fakes.ConfigStorage[*config.Config]
	cfg       *config.Service
	notifier  *recordingNotifier
	publisher *recordingPublisher
	service   scooter.Service
}

func newSetup(t *testing.T, cfg *config.Config) *setup {
	t.Helper()

	f := test.NewNIUServer(t)

	cfg.AccountBaseURL = f.URL()
	cfg.APIBaseURL = f.URL()

	storage := fakes.NewConfigStorage(cfg, config.Factory)
	cfgService := config.NewService(storage)

	w := worker.New()
	require.NoError(t, w.Start())
	t.Cleanup(func() {
		_ = w.Stop()
	})

	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}

	return &setup{
		niu:       f,
		storage:   storage,
		cfg:       cfgService,
		notifier:  notifier,
		publisher: publisher,
		service:   scooter.NewService(cfgService, w, niu.NewHTTPClient, notifier, publisher, "niu"),
	}
}

func configured() *config.Config {
	return &config.Config{
		Credentials: config.Credentials{
			Username: test.Username,
			Password: test.Password,
		},
	}
}

func TestService_Report(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.Sensors = []string{"BatteryCharge", scooter.SensorTotalMileage, scooter.SensorLastTrackThumb}

	s := newSetup(t, cfg)

	report, err := s.service.Report()
	require.NoError(t, err)

	assert.Equal(t, test.SerialNumber, report[scooter.ReportSerialNumber])
	assert.Equal(t, test.ScooterName, report[scooter.ReportName])
	assert.Equal(t, "76", report[scooter.ReportBatteryCharge])
	assert.Equal(t, "false", report[scooter.ReportCharging])
	assert.Equal(t, "false", report[scooter.ReportIgnition])
	assert.Equal(t, "41", report[scooter.ReportEstimatedMileage])
	assert.Equal(t, "59.91", report[scooter.ReportLatitude])
	assert.Equal(t, "10.75", report[scooter.ReportLongitude])
	assert.Equal(t, "812.4", report[scooter.ReportTotalMileage])
	assert.Equal(t, "210", report[scooter.ReportDaysInUse])
	assert.Equal(t, "00:07:00", report[scooter.ReportLastTripRidingTime])
	assert.Equal(t, "https://app-api-fk.niu.com/track/overseas/thumb/t1.png", report[scooter.ReportLastTripThumb])
	assert.Equal(t, niu.FormatTripTimestamp(1700000000000), report[scooter.ReportLastTripStart])

	assert.Equal(t, 1, s.niu.Count("/v3/api/oauth2/token"))
	assert.Equal(t, test.IssuedAccessToken, s.cfg.GetToken().AccessToken)
	assert.Equal(t, 1, s.storage.Saves(), "token is persisted once")

	_, err = s.service.Report()
	require.NoError(t, err)

	assert.Equal(t, 1, s.niu.Count("/v3/api/oauth2/token"), "valid token must be reused")
	assert.Equal(t, 1, s.niu.Count("/v5/scooter/list"), "vehicle is resolved once")
	assert.Equal(t, 2, s.niu.Count("/v3/motor_data/battery_info"))
	assert.Equal(t, 1, s.storage.Saves(), "unchanged token is not persisted again")
}

func TestService_Report_BaseGroupsOnly(t *testing.T) {
	t.Parallel()

	s := newSetup(t, configured())

	report, err := s.service.Report()
	require.NoError(t, err)

	assert.Equal(t, "76", report[scooter.ReportBatteryCharge])
	assert.NotContains(t, report, scooter.ReportTotalMileage)
	assert.NotContains(t, report, scooter.ReportLastTripThumb)
	assert.Equal(t, 0, s.niu.Count("/motoinfo/overallTally"))
	assert.Equal(t, 0, s.niu.Count("/v5/track/list/v2"))
}

func TestService_Report_StaleSnapshot(t *testing.T) {
	t.Parallel()

	s := newSetup(t, configured())

	_, err := s.service.Report()
	require.NoError(t, err)

	s.niu.FailBattery(true)

	report, err := s.service.Report()
	require.NoError(t, err)

	assert.Equal(t, "76", report[scooter.ReportBatteryCharge], "previous battery snapshot is reported")
}

func TestService_Report_StoredToken(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.Token = config.Token{AccessToken: test.StoredAccessToken, ExpiresAt: time.Now().Add(time.Hour)}

	s := newSetup(t, cfg)

	_, err := s.service.Report()
	require.NoError(t, err)

	assert.Equal(t, 0, s.niu.Count("/v3/api/oauth2/token"))
	assert.Equal(t, 0, s.storage.Saves())
}

func TestService_SetIgnition(t *testing.T) {
	t.Parallel()

	s := newSetup(t, configured())

	require.NoError(t, s.service.SetIgnition(1, true))
	require.NoError(t, s.service.SetIgnition(0, false))

	assert.Equal(t, []string{test.SecondSerialNumber + ":acc_on", test.SerialNumber + ":acc_off"}, s.niu.Ignitions())

	assert.Equal(t, 1, s.niu.Count("/v3/api/oauth2/token"))
	assert.Equal(t, test.IssuedAccessToken, s.cfg.GetToken().AccessToken)

	err := s.service.SetIgnition(5, true)
	assert.ErrorIs(t, err, niu.ErrIndexOutOfRange)
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.Token = config.Token{AccessToken: test.StoredAccessToken, ExpiresAt: time.Now().Add(time.Hour)}

	s := newSetup(t, cfg)

	require.NoError(t, s.service.Login())

	assert.Equal(t, 1, s.niu.Count("/v3/api/oauth2/token"), "login always requests a new token")
	assert.Equal(t, test.IssuedAccessToken, s.cfg.GetToken().AccessToken)
	assert.Equal(t, 1, s.niu.Count("/v5/scooter/list"))
	assert.Empty(t, s.publisher.topics, "failed interactive login does not trigger logout")
}

func TestService_NotConfigured(t *testing.T) {
	t.Parallel()

	s := newSetup(t, &config.Config{})

	assert.ErrorIs(t, s.service.Login(), scooter.ErrNotConfigured)
	assert.ErrorIs(t, s.service.EnsureToken(), scooter.ErrNotConfigured)
	assert.ErrorIs(t, s.service.SetIgnition(0, true), scooter.ErrNotConfigured)

	_, err := s.service.Report()
	assert.ErrorIs(t, err, scooter.ErrNotConfigured)
}

func TestService_CredentialsRejected(t *testing.T) {
	t.Parallel()

	s := newSetup(t, configured())
	s.niu.RejectLogin(true)

	err := s.service.EnsureToken()

	assert.ErrorIs(t, err, niu.ErrAuth)
	assert.ErrorIs(t, err, niu.ErrInvalidCredentials)
	assert.Equal(t, []string{"niu_status_offline"}, s.notifier.events)
	assert.Equal(t, []string{"pt:j1/mt:cmd/rt:ad/rn:niu/ad:1"}, s.publisher.topics)
	assert.Equal(t, "cmd.auth.logout", s.publisher.messages[0].Type)
	assert.Equal(t, 0, s.storage.Saves())

	err = s.service.Login()
	assert.True(t, errors.Is(err, niu.ErrInvalidCredentials))
	assert.Len(t, s.publisher.topics, 1, "interactive login failure does not trigger logout")
}

func TestService_WorkerStopped(t *testing.T) {
	t.Parallel()

	f := test.NewNIUServer(t)

	cfg := configured()
	cfg.AccountBaseURL = f.URL()
	cfg.APIBaseURL = f.URL()

	service := scooter.NewService(config.NewService(fakes.NewConfigStorage(cfg, config.Factory)), worker.New(), niu.NewHTTPClient, nil, nil, "niu")

	assert.ErrorIs(t, service.EnsureToken(), worker.ErrStopped)
	assert.Equal(t, 0, f.Count("/v3/api/oauth2/token"))
}

func TestReportGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sensors []string
		want    []niu.Category
	}{
		{
			name: "no sensors",
			want: []niu.Category{niu.CategoryBattery, niu.CategoryMotor},
		},
		{
			name:    "battery and motor sensors only",
			sensors: []string{"BatteryCharge", "CurrentSpeed", "Latitude"},
			want:    []niu.Category{niu.CategoryBattery, niu.CategoryMotor},
		},
		{
			name:    "overall sensor",
			sensors: []string{"DaysInUse"},
			want:    []niu.Category{niu.CategoryBattery, niu.CategoryMotor, niu.CategoryOverall},
		},
		{
			name:    "last track thumbnail",
			sensors: []string{scooter.SensorLastTrackThumb},
			want:    []niu.Category{niu.CategoryBattery, niu.CategoryMotor, niu.CategoryTrack},
		},
		{
			name:    "all groups",
			sensors: []string{"LastTrackDistance", "totalMileage", "BatteryCharge"},
			want:    []niu.Category{niu.CategoryBattery, niu.CategoryMotor, niu.CategoryOverall, niu.CategoryTrack},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, scooter.ReportGroups(tt.sensors))
		})
	}
}

func TestReportGroups_FreshSlice(t *testing.T) {
	t.Parallel()

	first := scooter.ReportGroups([]string{scooter.SensorLastTrackThumb})
	second := scooter.ReportGroups(nil)

	first[0] = niu.CategoryTrack

	assert.Equal(t, niu.CategoryBattery, second[0])
	assert.Len(t, second, 2)
}
