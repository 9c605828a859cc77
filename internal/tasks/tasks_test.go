package tasks_test

import (
	"testing"
	"time"

	"github.com/futurehomeno/fimpgo"
	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/routing"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
	"github.com/futurehomeno/edge-niu-adapter/internal/tasks"
	"github.com/futurehomeno/edge-niu-adapter/internal/test/fakes"
	"github.com/futurehomeno/edge-niu-adapter/internal/test/mocks"
)

func newConfigService(pollingInterval string) *config.Service {
	return config.NewService(fakes.NewConfigStorage(&config.Config{PollingInterval: pollingInterval}, config.Factory))
}

type publishedMessage struct {
	topic   string
	message *fimpgo.FimpMessage
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) PublishToTopic(topic string, message *fimpgo.FimpMessage) error {
	p.messages = append(p.messages, publishedMessage{topic: topic, message: message})

	return p.err
}

func TestHandleTelemetryReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		report       scooter.Report
		reportErr    error
		publishErr   error
		wantMessages int
	}{
		{
			name:         "report is published",
			report:       scooter.Report{"serial_number": "NT1234567890", "battery_charge": "81"},
			wantMessages: 1,
		},
		{
			name:         "nothing is published when the report fails",
			reportErr:    errors.New("test error"),
			wantMessages: 0,
		},
		{
			name:         "publishing error is swallowed",
			report:       scooter.Report{"serial_number": "NT1234567890"},
			publishErr:   errors.New("test error"),
			wantMessages: 1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scooterService := mocks.NewScooterService(t)
			scooterService.On("Report").Return(tt.report, tt.reportErr).Once()

			publisher := &fakePublisher{err: tt.publishErr}

			tasks.HandleTelemetryReport(newConfigService(""), scooterService, publisher)()

			require.Len(t, publisher.messages, tt.wantMessages)

			if tt.wantMessages == 0 {
				return
			}

			got := publisher.messages[0]
			assert.Equal(t, "pt:j1/mt:evt/rt:ad/rn:niu/ad:1", got.topic)
			assert.Equal(t, routing.EvtTelemetryReport, got.message.Type)
			assert.Equal(t, routing.ServiceName, got.message.Service)

			value, err := got.message.GetStrMapValue()
			require.NoError(t, err)
			assert.Equal(t, map[string]string(tt.report), value)
		})
	}
}

func TestHandleTelemetryReport_PollingInterval(t *testing.T) { //nolint:paralleltest
	mock := clock.Mock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	t.Cleanup(func() {
		clock.Restore()
	})

	cfgSrv := newConfigService("10m")

	scooterService := mocks.NewScooterService(t)
	scooterService.On("Report").Return(scooter.Report{"serial_number": "NT1234567890"}, nil)

	publisher := &fakePublisher{}
	handler := tasks.HandleTelemetryReport(cfgSrv, scooterService, publisher)

	handler()
	require.Len(t, publisher.messages, 1, "first tick publishes")

	mock.Add(tasks.TelemetryTick)
	handler()
	assert.Len(t, publisher.messages, 1, "interval has not elapsed")

	mock.Add(9 * time.Minute)
	handler()
	assert.Len(t, publisher.messages, 2, "interval elapsed")

	require.NoError(t, cfgSrv.SetPollingInterval(2*time.Minute))

	mock.Add(tasks.TelemetryTick)
	handler()
	assert.Len(t, publisher.messages, 2)

	mock.Add(tasks.TelemetryTick)
	handler()
	assert.Len(t, publisher.messages, 3, "changed interval applies without rebuilding the task")
}

func TestHandleTelemetryReport_RetriesAfterFailure(t *testing.T) { //nolint:paralleltest
	clock.Mock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	t.Cleanup(func() {
		clock.Restore()
	})

	scooterService := mocks.NewScooterService(t)
	scooterService.On("Report").Return(nil, errors.New("test error")).Once()
	scooterService.On("Report").Return(scooter.Report{"serial_number": "NT1234567890"}, nil).Once()

	publisher := &fakePublisher{}
	handler := tasks.HandleTelemetryReport(newConfigService("10m"), scooterService, publisher)

	handler()
	handler()

	assert.Len(t, publisher.messages, 1, "a failed report does not delay the next attempt")
}
