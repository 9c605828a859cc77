package cmd

import (
	"github.com/futurehomeno/cliffhanger/bootstrap"
	cliffCfg "github.com/futurehomeno/cliffhanger/config"
	"github.com/futurehomeno/cliffhanger/lifecycle"
	"github.com/futurehomeno/cliffhanger/manifest"
	"github.com/futurehomeno/cliffhanger/notification"
	cliffRouter "github.com/futurehomeno/cliffhanger/router"
	"github.com/futurehomeno/cliffhanger/task"
	"github.com/futurehomeno/fimpgo"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/app"
	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
	"github.com/futurehomeno/edge-niu-adapter/internal/routing"
	"github.com/futurehomeno/edge-niu-adapter/internal/scooter"
	"github.com/futurehomeno/edge-niu-adapter/internal/tasks"
	"github.com/futurehomeno/edge-niu-adapter/internal/worker"
)

// services is a container for services that are common dependencies.
var services = &serviceContainer{}

// serviceContainer is a type representing a dependency injection container to be used during bootstrap of the application.
type serviceContainer struct {
	configService *config.Service
	lifecycle     *lifecycle.Lifecycle
	mqtt          *fimpgo.MqttTransport

	application    app.Application
	manifestLoader manifest.Loader
	worker         worker.Worker
	scooterService scooter.Service
	httpFactory    scooter.HTTPClientFactory
}

func resetContainer() {
	services = &serviceContainer{}
}

// getConfigService initiates a configuration service and loads the config.
func getConfigService() *config.Service {
	if services.configService == nil {
		workDir := bootstrap.GetConfigurationDirectory()
		cfg := config.New(workDir)
		services.configService = config.NewService(cliffCfg.NewStorage(cfg, workDir))

		err := services.configService.Load()
		if err != nil {
			log.WithError(err).Fatal("failed to load configuration")
		}
	}

	return services.configService
}

// getLifecycle creates or returns existing lifecycle service.
func getLifecycle() *lifecycle.Lifecycle {
	if services.lifecycle == nil {
		services.lifecycle = lifecycle.New()
	}

	return services.lifecycle
}

// getMQTT creates or returns existing MQTT broker service.
func getMQTT(cfg *config.Config) *fimpgo.MqttTransport {
	if services.mqtt == nil {
		services.mqtt = fimpgo.NewMqttTransport(
			cfg.MQTTServerURI,
			cfg.MQTTClientIDPrefix,
			cfg.MQTTUsername,
			cfg.MQTTPassword,
			true,
			1,
			1,
		)
	}

	services.mqtt.SetDefaultSource(routing.ResourceName)

	return services.mqtt
}

// getApplication creates or returns existing application.
func getApplication(cfg *config.Config) app.Application {
	if services.application == nil {
		services.application = app.New(
			getConfigService(),
			getLifecycle(),
			getManifestLoader(),
			getScooterService(cfg),
		)
	}

	return services.application
}

// getManifestLoader creates or returns existing application manifestLoader.
func getManifestLoader() manifest.Loader {
	if services.manifestLoader == nil {
		services.manifestLoader = manifest.NewLoader(getConfigService().GetWorkDir())
	}

	return services.manifestLoader
}

// getWorker creates or returns existing worker serializing calls to the NIU cloud.
func getWorker() worker.Worker {
	if services.worker == nil {
		services.worker = worker.New()
	}

	return services.worker
}

// getHTTPClientFactory returns the factory of NIU HTTP clients.
func getHTTPClientFactory() scooter.HTTPClientFactory {
	if services.httpFactory == nil {
		services.httpFactory = niu.NewHTTPClient
	}

	return services.httpFactory
}

// getScooterService creates or returns existing scooter service.
func getScooterService(cfg *config.Config) scooter.Service {
	if services.scooterService == nil {
		services.scooterService = scooter.NewService(
			getConfigService(),
			getWorker(),
			getHTTPClientFactory(),
			notification.NewNotification(getMQTT(cfg)),
			getMQTT(cfg),
			routing.ServiceName,
		)
	}

	return services.scooterService
}

// newRouting creates new set of routing.
func newRouting(cfg *config.Config) []*cliffRouter.Routing {
	return routing.New(
		getConfigService(),
		getLifecycle(),
		getApplication(cfg),
		getScooterService(cfg),
	)
}

// newTasks creates new set of tasks.
func newTasks(cfg *config.Config) []*task.Task {
	return tasks.New(
		getConfigService(),
		getLifecycle(),
		getApplication(cfg),
		getScooterService(cfg),
		getMQTT(cfg),
	)
}
