package filestore

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/core/session"
)

// Store keeps the session as a single JSON document on disk.
// Every write replaces the whole document (temp file + rename), so a multi-key Delete is atomic.
type Store struct {
	mutex sync.Mutex
	path  string
}

var _ session.Store = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// load returns an empty document when the file does not exist yet.
func (s *Store) load() (map[string]string, error) {
	doc := make(map[string]string)
	b, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding session file %s", s.path)
	}
	return doc, nil
}

func (s *Store) save(doc map[string]string) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}
	tmp, err := ioutil.TempFile(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp session file")
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp session file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp session file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing session file")
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if val, ok := doc[key]; ok {
		return val, nil
	}
	return "", session.ErrNotFound
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return s.save(doc)
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(doc, key)
	}
	return s.save(doc)
}
