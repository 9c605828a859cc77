package routing

import (
	"github.com/futurehomeno/cliffhanger/app"
	cliffConfig "github.com/futurehomeno/cliffhanger/config"
	"github.com/futurehomeno/cliffhanger/lifecycle"
	"github.com/futurehomeno/cliffhanger/router"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
)

const (
	// ServiceName is the FIMP service name of the adapter.
	ServiceName = "niu"
	// ResourceName is the resource name used for discovery and as the default message source.
	ResourceName = ServiceName
)

// New returns a new routing table.
func New(
	cfgSrv *config.Service,
	appLifecycle *lifecycle.Lifecycle,
	application app.App,
	scooterService scooter.Service,
) []*router.Routing {
	return router.Combine(
		[]*router.Routing{
			cliffConfig.RouteCmdLogSetLevel(ServiceName, cfgSrv.SetLogLevel),
			cliffConfig.RouteCmdConfigSetDuration(ServiceName, "polling_interval", cfgSrv.SetPollingInterval),
			cliffConfig.RouteCmdConfigSetDuration(ServiceName, "http_timeout", resetAfter(scooterService, cfgSrv.SetHTTPTimeout)),
			cliffConfig.RouteCmdConfigSetDuration(ServiceName, "token_lifetime", resetAfter(scooterService, cfgSrv.SetTokenLifetime)),
			cliffConfig.RouteCmdConfigSetDuration(ServiceName, "login_backoff", resetAfter(scooterService, cfgSrv.SetLoginBackoff)),
			cliffConfig.RouteCmdConfigSetString(ServiceName, "account_base_url", resetAfter(scooterService, cfgSrv.SetAccountBaseURL)),
			cliffConfig.RouteCmdConfigSetString(ServiceName, "api_base_url", resetAfter(scooterService, cfgSrv.SetAPIBaseURL)),
			RouteCmdConfigSetSensors(cfgSrv),
			RouteCmdIgnitionSet(cfgSrv, scooterService),
			RouteCmdTelemetryGetReport(scooterService),
		},
		app.RouteApp(ServiceName, appLifecycle, cfgSrv, config.Factory, nil, application),
	)
}

// resetAfter drops the cached scooter client once a setting it was built from has changed.
func resetAfter[T any](scooterService scooter.Service, setter func(T) error) func(T) error {
	return func(value T) error {
		if err := setter(value); err != nil {
			return err
		}

		scooterService.Reset()

		return nil
	}
}
