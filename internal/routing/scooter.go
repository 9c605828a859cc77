package routing

import (
	"github.com/futurehomeno/cliffhanger/router"
	"github.com/futurehomeno/fimpgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
)

// Commands and events of the scooter service.
const (
	CmdIgnitionSet         = "cmd.ignition.set"
	EvtIgnitionReport      = "evt.ignition.report"
	CmdTelemetryGetReport  = "cmd.telemetry.get_report"
	EvtTelemetryReport     = "evt.telemetry.report"
	CmdConfigSetSensors    = "cmd.config.set_sensors"
	EvtConfigSensorsReport = "evt.config.sensors_report"
)

// IgnitionCommand is the value of the ignition command. A missing scooter ID selects the configured scooter.
type IgnitionCommand struct {
	Ignition  bool `json:"ignition"`
	ScooterID *int `json:"scooter_id,omitempty"`
}

// RouteCmdIgnitionSet returns a routing switching the ignition of a scooter of the configured account.
func RouteCmdIgnitionSet(cfgSrv *config.Service, scooterService scooter.Service) *router.Routing {
	return router.NewRouting(
		HandleCmdIgnitionSet(cfgSrv, scooterService),
		router.ForService(ServiceName),
		router.ForType(CmdIgnitionSet),
	)
}

// HandleCmdIgnitionSet returns a handler switching the ignition of a scooter of the configured account.
func HandleCmdIgnitionSet(cfgSrv *config.Service, scooterService scooter.Service) router.MessageHandler {
	return router.NewMessageHandler(
		router.MessageProcessorFn(func(message *fimpgo.Message) (*fimpgo.FimpMessage, error) {
			cmd := IgnitionCommand{}

			if err := message.Payload.GetObjectValue(&cmd); err != nil {
				return nil, errors.Wrap(err, "routing: failed to parse ignition command")
			}

			scooterID := cfgSrv.GetCredentials().ScooterID
			if cmd.ScooterID != nil {
				scooterID = *cmd.ScooterID
			}

			if err := scooterService.SetIgnition(scooterID, cmd.Ignition); err != nil {
				return nil, errors.Wrap(err, "routing: failed to set ignition")
			}

			log.WithField("scooter_id", scooterID).
				WithField("ignition", cmd.Ignition).
				Info("routing: ignition set")

			return fimpgo.NewBoolMessage(EvtIgnitionReport, ServiceName, cmd.Ignition, nil, nil, message.Payload), nil
		}),
	)
}

// RouteCmdTelemetryGetReport returns a routing replying with a fresh telemetry report.
func RouteCmdTelemetryGetReport(scooterService scooter.Service) *router.Routing {
	return router.NewRouting(
		HandleCmdTelemetryGetReport(scooterService),
		router.ForService(ServiceName),
		router.ForType(CmdTelemetryGetReport),
	)
}

// HandleCmdTelemetryGetReport returns a handler replying with a fresh telemetry report.
func HandleCmdTelemetryGetReport(scooterService scooter.Service) router.MessageHandler {
	return router.NewMessageHandler(
		router.MessageProcessorFn(func(message *fimpgo.Message) (*fimpgo.FimpMessage, error) {
			report, err := scooterService.Report()
			if err != nil {
				return nil, errors.Wrap(err, "routing: failed to get telemetry report")
			}

			return NewTelemetryReportMessage(report, message.Payload), nil
		}),
	)
}

// NewTelemetryReportMessage creates the telemetry report event.
func NewTelemetryReportMessage(report scooter.Report, request *fimpgo.FimpMessage) *fimpgo.FimpMessage {
	return fimpgo.NewStrMapMessage(EvtTelemetryReport, ServiceName, report, nil, nil, request)
}

// RouteCmdConfigSetSensors returns a routing selecting the reported sensors.
func RouteCmdConfigSetSensors(cfgSrv *config.Service) *router.Routing {
	return router.NewRouting(
		HandleCmdConfigSetSensors(cfgSrv),
		router.ForService(ServiceName),
		router.ForType(CmdConfigSetSensors),
	)
}

// HandleCmdConfigSetSensors returns a handler selecting the reported sensors.
func HandleCmdConfigSetSensors(cfgSrv *config.Service) router.MessageHandler {
	return router.NewMessageHandler(
		router.MessageProcessorFn(func(message *fimpgo.Message) (*fimpgo.FimpMessage, error) {
			sensors, err := message.Payload.GetStrArrayValue()
			if err != nil {
				return nil, errors.Wrap(err, "routing: failed to parse sensors")
			}

			if err := cfgSrv.SetSensors(sensors); err != nil {
				return nil, errors.Wrap(err, "routing: failed to set sensors")
			}

			return fimpgo.NewStrArrayMessage(EvtConfigSensorsReport, ServiceName, cfgSrv.GetSensors(), nil, nil, message.Payload), nil
		}),
	)
}
