// SPDX-License-Identifier: Apache-2.0

// Package redistest provides an in-process Redis server for tests, backed by
// miniredis. No container or external process is involved, so tests using it
// stay fast enough for tight feedback loops.
package redistest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Run starts an in-process Redis server and returns it together with a
// client wired to it. Both are torn down when the test finishes.
func Run(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	srv := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: srv.Addr(),
	})

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("Failed to close redis client: %v", err)
		}
	})

	return srv, client
}

// SeedHash populates a hash key with the given fields.
func SeedHash(t *testing.T, srv *miniredis.Miniredis, key string, fields map[string]string) {
	t.Helper()

	for field, value := range fields {
		srv.HSet(key, field, value)
	}
}

// SeedJSON marshals v and stores it under key.
func SeedJSON(t *testing.T, client *redis.Client, key string, v any) {
	t.Helper()
	ctx := context.Background()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal seed value for %s: %v", key, err)
	}

	if err := client.Set(ctx, key, data, 0).Err(); err != nil {
		t.Fatalf("Failed to seed key %s: %v", key, err)
	}
}
