package testutil

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/core/session"
)

// TestStore runs the behaviour every session.Store must share against store.
func TestStore(t *testing.T, store session.Store) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		if _, err := store.Get(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("Get() error = %v, wantErr %v", err, session.ErrNotFound)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := store.Set(ctx, "k1", "v1"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		got, err := store.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got != "v1" {
			t.Errorf("Get() = %q, want %q", got, "v1")
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := store.Set(ctx, "k1", "v2"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		if got, _ := store.Get(ctx, "k1"); got != "v2" {
			t.Errorf("Get() = %q, want %q", got, "v2")
		}
	})

	t.Run("delete many", func(t *testing.T) {
		_ = store.Set(ctx, "k2", "v")
		_ = store.Set(ctx, "k3", "v")
		if err := store.Delete(ctx, "k1", "k2", "never-set"); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		for _, k := range []string{"k1", "k2"} {
			if _, err := store.Get(ctx, k); !errors.Is(err, session.ErrNotFound) {
				t.Errorf("Get(%q) error = %v, wantErr %v", k, err, session.ErrNotFound)
			}
		}
		if got, _ := store.Get(ctx, "k3"); got != "v" {
			t.Errorf("Get(%q) = %q, want %q", "k3", got, "v")
		}
		_ = store.Delete(ctx, "k3")
	})

	t.Run("delete nothing", func(t *testing.T) {
		if err := store.Delete(ctx); err != nil {
			t.Errorf("Delete() unexpected error = %v", err)
		}
	})
}
