//go:build integration

// internal/entitlement/counter_integration_test.go
package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a disposable Redis and returns a client for it.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisCounterCountsPerGuestAndFeature(t *testing.T) {
	rdb := startRedis(t)
	counter := NewRedisCounter(rdb, time.Minute)
	ctx := context.Background()
	guest := Anonymous(uuid.NewString(), 0)

	prior, err := counter.Increment(ctx, guest, FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, 0, prior)

	prior, err = counter.Increment(ctx, guest, FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, 1, prior)

	prior, err = counter.Increment(ctx, guest, FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, 0, prior)

	other, err := counter.Increment(ctx, Anonymous(uuid.NewString(), 0), FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, 0, other, "guests are counted separately")

	ttl, err := rdb.TTL(ctx, counter.key(FeatureTarot, guest.GuestToken)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestGateWithRedisCounter(t *testing.T) {
	rdb := startRedis(t)
	logger, _ := test.NewNullLogger()
	gate := NewGate(NewRedisCounter(rdb, time.Minute), logger)
	ctx := context.Background()

	// The server-side count wins over what the client reports.
	guest := Anonymous(uuid.NewString(), 0)
	first, err := gate.Classify(ctx, guest, FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, Full, first.Access)

	second, err := gate.Classify(ctx, guest, FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, TrialLimited, second.Access)
	assert.Equal(t, 2, second.Uses)
}
