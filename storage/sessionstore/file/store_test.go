package filestore_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/niva/storage/sessionstore/file"
	"github.com/trezcool/niva/tests"
)

func newStore(t *testing.T) *filestore.Store {
	dir, err := ioutil.TempDir("", "niva-session")
	if err != nil {
		t.Fatalf("TempDir() failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filestore.New(filepath.Join(dir, "nested", "session.json"))
}

func TestStore(t *testing.T) {
	testutil.TestStore(t, newStore(t))
}

func TestStore_persistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	assert.NoError(t, store.Set(ctx, "niva_auth_token", "tok"))

	info, err := os.Stat(store.Path())
	if assert.NoError(t, err) {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	reopened := filestore.New(store.Path())
	got, err := reopened.Get(ctx, "niva_auth_token")
	assert.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestStore_corruptFile(t *testing.T) {
	store := newStore(t)
	assert.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	assert.NoError(t, ioutil.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Get(context.Background(), "any")
	assert.Error(t, err)
}
