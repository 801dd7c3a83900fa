package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/storage/sessionstore/redis"
	"github.com/trezcool/niva/tests"
)

// Requires a disposable Redis server: NIVA_TEST_REDIS_ADDR=127.0.0.1:6379
func TestStore(t *testing.T) {
	addr := os.Getenv("NIVA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NIVA_TEST_REDIS_ADDR not set")
	}

	store, err := redisstore.Open(context.Background(), core.SessionConfig{RedisAddr: addr, RedisDB: 15})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	testutil.TestStore(t, store)
}
