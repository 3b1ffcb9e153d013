// Package file implements a document store backed by a single file on disk.
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/bobg/flock"
	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/doc"
)

var _ doc.Store = &Store{}

// DefaultContent is written to the master file when it is first created.
const DefaultContent = "# Master document\n# Initial content created on server startup\nEdit this content to test synchronization.\n"

// Store is a file-based implementation of a document store.
// A process-local mutex serializes snapshots and writes;
// a file lock additionally excludes writers in other processes.
type Store struct {
	path    string
	mu      sync.Mutex
	flocker flock.Locker
}

// New produces a new Store for the document at path.
// The file is created with DefaultContent on first use if absent.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the document file.
func (s *Store) Path() string {
	return s.path
}

// Read returns a consistent snapshot of the document.
func (s *Store) Read(_ context.Context) (doc.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.ensure()
	if err != nil {
		return doc.Snapshot{}, err
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return doc.Snapshot{}, errors.Wrapf(err, "reading %s", s.path)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return doc.Snapshot{}, errors.Wrapf(err, "statting %s", s.path)
	}

	d := mfsync.Doc(content)
	return doc.Snapshot{Content: d, Ref: d.Ref(), ModTime: info.ModTime()}, nil
}

// Write replaces the document content.
func (s *Store) Write(_ context.Context, content mfsync.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.ensure()
	if err != nil {
		return err
	}

	err = s.flocker.Lock(s.path)
	if err != nil {
		return errors.Wrapf(err, "locking %s", s.path)
	}
	defer s.flocker.Unlock(s.path)

	return errors.Wrapf(os.WriteFile(s.path, content, 0644), "writing %s", s.path)
}

// Mutex must be held.
func (s *Store) ensure() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "statting %s", s.path)
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring dir %s exists", dir)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		// Another process created it in the window after our stat.
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "creating %s", s.path)
	}
	defer f.Close()

	_, err = f.Write([]byte(DefaultContent))
	return errors.Wrapf(err, "writing default content to %s", s.path)
}

func init() {
	doc.Register("file", func(_ context.Context, conf map[string]interface{}) (doc.Store, error) {
		path, ok := conf["path"].(string)
		if !ok {
			return nil, errors.New(`missing "path" parameter`)
		}
		return New(path), nil
	})
}
