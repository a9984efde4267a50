package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pathlight/debt-engine/session/storetest"
	"github.com/pathlight/debt-engine/store/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set PATHLIGHT_TEST_REDIS to the address of a disposable Redis
// (e.g. localhost:6379) to run these.
func newTestStore(t *testing.T, ttl time.Duration) *redis.Store {
	addr := os.Getenv("PATHLIGHT_TEST_REDIS")
	if addr == "" {
		t.Skip("PATHLIGHT_TEST_REDIS not set")
	}
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "pathlight-test:" + t.Name() + ":"
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})
	return redis.NewWithClient(client, prefix, ttl)
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, newTestStore(t, time.Hour), storetest.Options{NoSweep: true})
}

func TestStore_KeysExpire(t *testing.T) {
	// GIVEN: A store with a one second TTL
	// WHEN: A session is not touched for longer than that
	// THEN: Redis has dropped it

	store := newTestStore(t, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storetest.Sample("short-lived", time.Now())))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, "short-lived")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
