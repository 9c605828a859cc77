package test

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	brokerImage = "eclipse-mosquitto:1.6.8" //nolint:misspell
	brokerPort  = nat.Port("1883/tcp")

	brokerStartupTimeout = time.Minute
)

// SetupMQTTContainer starts the broker the adapter connects to in integration tests and returns its tcp:// address.
// The container is terminated when the test finishes.
func SetupMQTTContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	broker, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        brokerImage,
			ExposedPorts: []string{string(brokerPort)},
			WaitingFor: wait.ForAll(
				wait.ForLog("Opening ipv4 listen socket on port 1883"),
				wait.ForListeningPort(brokerPort),
			).WithDeadline(brokerStartupTimeout),
		},
	})
	require.NoError(t, err, "niu: failed to start the MQTT broker")

	t.Cleanup(func() {
		require.NoError(t, broker.Terminate(ctx))
	})

	addr, err := broker.PortEndpoint(ctx, brokerPort, "tcp")
	require.NoError(t, err)

	t.Logf("niu: MQTT broker listening at %s", addr)

	return addr
}
