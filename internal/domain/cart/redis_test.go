package cart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Требует запущенный Redis на localhost:6379, иначе пропускается.
func TestRedisStore_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer func() { _ = client.Close() }()

	s := NewRedisStore(client, time.Minute)
	id := "test-" + NewSessionID()
	defer func() { _ = s.Delete(ctx, id) }()

	c, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, c.Codes)

	c.Codes = []string{"SHIRT001", "JEANS001"}
	require.NoError(t, s.Save(ctx, c))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"SHIRT001", "JEANS001"}, got.Codes)

	ttl, err := client.TTL(ctx, "cart:"+id).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, id))
	got, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Codes)
}
