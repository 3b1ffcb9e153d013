// Package mem implements an in-memory credential store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/mfsync/mfsync/auth"
)

var _ auth.Store = &Store{}

// Store is a memory-based implementation of a credential store.
type Store struct {
	mu    sync.Mutex
	users map[string]string // username -> password hash
}

// New produces a new Store.
func New() *Store {
	return &Store{users: make(map[string]string)}
}

// Lookup returns the stored password hash for username.
func (s *Store) Lookup(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.users[username]
	if !ok {
		return "", auth.ErrNotFound
	}
	return h, nil
}

// Add inserts or replaces the credentials for username.
func (s *Store) Add(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = auth.HashPassword(password)
	return nil
}

// List calls f for each username, in lexicographic order.
func (s *Store) List(_ context.Context, f func(string) error) error {
	s.mu.Lock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		err := f(name)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	auth.Register("mem", func(context.Context, map[string]interface{}) (auth.Store, error) {
		return New(), nil
	})
}
