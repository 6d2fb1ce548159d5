//go:build integration

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestResetThrottle_Redis(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := NewRedisClient(ctx, fmt.Sprintf("redis://%s/0", endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	th := NewResetThrottle(client, time.Minute)
	ok, err := th.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = th.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "second link inside the window")

	ok, err = th.Allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok, "other users are independent")

	require.NoError(t, th.Release(ctx, "u1"))
	ok, err = th.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
