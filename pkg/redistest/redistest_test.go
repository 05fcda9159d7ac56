// SPDX-License-Identifier: Apache-2.0

package redistest_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xataio/testkit/pkg/redistest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunProvidesWorkingClient(t *testing.T) {
	_, client := redistest.Run(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "greeting", "hello", 0).Err())

	got, err := client.Get(ctx, "greeting").Result()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestSeedHash(t *testing.T) {
	srv, client := redistest.Run(t)
	ctx := context.Background()

	redistest.SeedHash(t, srv, "user:1", map[string]string{
		"name":  "ada",
		"email": "ada@example.org",
	})

	got, err := client.HGetAll(ctx, "user:1").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":  "ada",
		"email": "ada@example.org",
	}, got)
}

func TestSeedJSON(t *testing.T) {
	_, client := redistest.Run(t)
	ctx := context.Background()

	redistest.SeedJSON(t, client, "order:42", map[string]any{
		"id":    42,
		"items": []string{"apple", "banana"},
	})

	raw, err := client.Get(ctx, "order:42").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 42, "items": ["apple", "banana"]}`, raw)
}

func TestExpiryWithFastForward(t *testing.T) {
	srv, client := redistest.Run(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "session", "token", time.Minute).Err())

	srv.FastForward(2 * time.Minute)

	err := client.Get(ctx, "session").Err()
	assert.ErrorIs(t, err, redis.Nil)
}
