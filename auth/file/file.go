// Package file implements a credential store as a JSON file,
// mapping each username to its password hash.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync/auth"
)

var _ auth.Store = &Store{}

// Store is a file-based implementation of a credential store.
type Store struct {
	path string
	mu   sync.Mutex
}

// New produces a new Store reading and writing the JSON file at path.
// A missing file reads as an empty table.
func New(path string) *Store {
	return &Store{path: path}
}

// Lookup returns the stored password hash for username.
func (s *Store) Lookup(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return "", err
	}
	h, ok := users[username]
	if !ok {
		return "", auth.ErrNotFound
	}
	return h, nil
}

// Add inserts or replaces the credentials for username.
func (s *Store) Add(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	users[username] = auth.HashPassword(password)
	return s.save(users)
}

// List calls f for each username, in lexicographic order.
func (s *Store) List(_ context.Context, f func(string) error) error {
	s.mu.Lock()
	users, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		err = f(name)
		if err != nil {
			return err
		}
	}
	return nil
}

// Mutex must be held.
func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}

	users := make(map[string]string)
	err = json.Unmarshal(b, &users)
	return users, errors.Wrapf(err, "decoding %s", s.path)
}

// Mutex must be held.
func (s *Store) save(users map[string]string) error {
	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring dir %s exists", dir)
	}

	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding users")
	}
	return errors.Wrapf(os.WriteFile(s.path, b, 0600), "writing %s", s.path)
}

func init() {
	auth.Register("file", func(_ context.Context, conf map[string]interface{}) (auth.Store, error) {
		path, ok := conf["path"].(string)
		if !ok {
			return nil, errors.New(`missing "path" parameter`)
		}
		return New(path), nil
	})
}
