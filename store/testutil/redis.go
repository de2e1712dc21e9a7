package testutil

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// TestRedis represents a Redis test container instance
type TestRedis struct {
	Container *tcredis.RedisContainer
	Client    *goredis.Client
	URL       string
}

// SetupTestRedis creates a new Redis test container and a connected client
func SetupTestRedis(t *testing.T) *TestRedis {
	ctx := context.Background()

	labels := map[string]string{
		"test":      "diamondpay-store",
		"test-name": t.Name(),
		"timestamp": time.Now().Format("20060102-150405"),
		"cleanup":   "auto",
	}

	redisContainer, err := tcredis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithLabels(labels),
	)
	require.NoError(t, err)

	testRedis := &TestRedis{
		Container: redisContainer,
	}

	t.Cleanup(func() {
		testRedis.cleanup(t)
	})

	connStr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(connStr)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	testRedis.Client = client
	testRedis.URL = connStr

	return testRedis
}

// cleanup closes the client and terminates the container
func (tr *TestRedis) cleanup(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Logf("Panic during container cleanup (recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if tr.Client != nil {
		if err := tr.Client.Close(); err != nil {
			t.Logf("Warning: Failed to close redis client: %v", err)
		}
	}

	if tr.Container != nil {
		if err := tr.Container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate test container: %v", err)
		}
	}
}
