package tasks

import (
	"fmt"
	"time"

	"github.com/futurehomeno/cliffhanger/app"
	"github.com/futurehomeno/cliffhanger/lifecycle"
	"github.com/futurehomeno/cliffhanger/task"
	"github.com/michalkurzeja/go-clock"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/routing"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
)

// TelemetryTick is how often the telemetry task checks whether the polling interval has elapsed.
// The interval is read from the configuration on every tick, so a changed interval applies without a restart.
const TelemetryTick = time.Minute

// New returns a set of background tasks of an application.
func New(
	cfgSrv *config.Service,
	appLifecycle *lifecycle.Lifecycle,
	application app.App,
	scooterService scooter.Service,
	publisher scooter.Publisher,
) []*task.Task {
	return task.Combine[[]*task.Task](
		app.TaskApp(application, appLifecycle),
		[]*task.Task{
			task.New(HandleTelemetryReport(cfgSrv, scooterService, publisher), TelemetryTick, task.WhenAppIsConnected(appLifecycle)),
		},
	)
}

// HandleTelemetryReport returns a handler publishing a telemetry report of the configured scooter
// once the configured polling interval has elapsed since the last published report.
func HandleTelemetryReport(cfgSrv *config.Service, scooterService scooter.Service, publisher scooter.Publisher) func() {
	topic := fmt.Sprintf("pt:j1/mt:evt/rt:ad/rn:%s/ad:1", routing.ResourceName)

	var last time.Time

	return func() {
		if !last.IsZero() && clock.Since(last) < cfgSrv.GetPollingInterval() {
			return
		}

		report, err := scooterService.Report()
		if err != nil {
			log.WithError(err).Error("tasks: failed to get telemetry report")

			return
		}

		if err := publisher.PublishToTopic(topic, routing.NewTelemetryReportMessage(report, nil)); err != nil {
			log.WithError(err).Error("tasks: failed to publish telemetry report")
		}

		last = clock.Now()
	}
}
