package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublishReachesSubscriber(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := newRedis(t)

	sub, err := Subscribe(ctx, client)
	require.NoError(t, err)
	defer sub.Close()

	pub := NewPublisher(client)
	require.NoError(t, pub.Publish(ctx, Change{Entity: "quote", ID: "a1b2c3d4", Op: OpUpdate}))

	select {
	case change := <-sub.Events():
		assert.Equal(t, Change{Entity: "quote", ID: "a1b2c3d4", Op: OpUpdate}, change)
	case <-ctx.Done():
		t.Fatal("change not delivered")
	}
}

func TestPublishWithoutClient(t *testing.T) {
	var pub *RedisPublisher
	assert.Error(t, pub.Publish(context.Background(), Change{}))
	assert.NoError(t, Discard{}.Publish(context.Background(), Change{}))
}

func TestCloseReleasesBlockedPump(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := newRedis(t)

	sub, err := Subscribe(ctx, client)
	require.NoError(t, err)

	pub := NewPublisher(client)
	for i := 0; i < cap(sub.events)+4; i++ {
		require.NoError(t, pub.Publish(ctx, Change{Entity: "quote", ID: "a1b2c3d4", Op: OpUpdate}))
	}
	require.Eventually(t, func() bool { return len(sub.events) == cap(sub.events) }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-ctx.Done():
			t.Fatal("events channel not closed after Close")
		}
	}
}
