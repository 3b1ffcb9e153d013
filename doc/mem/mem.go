// Package mem implements an in-memory document store.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/doc"
)

var _ doc.Store = &Store{}

// Store is a memory-based implementation of a document store.
type Store struct {
	mu      sync.Mutex
	content mfsync.Doc
	modtime time.Time
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for modification times.
// The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New produces a new Store holding content.
func New(content mfsync.Doc, opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.content = append(mfsync.Doc(nil), content...)
	s.modtime = s.now()
	return s
}

// Read returns a consistent snapshot of the document.
func (s *Store) Read(_ context.Context) (doc.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := append(mfsync.Doc(nil), s.content...)
	return doc.Snapshot{
		Content: content,
		Ref:     content.Ref(),
		ModTime: s.modtime,
	}, nil
}

// Write replaces the document content.
func (s *Store) Write(_ context.Context, content mfsync.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.content = append(mfsync.Doc(nil), content...)
	s.modtime = s.now()
	return nil
}

func init() {
	doc.Register("mem", func(_ context.Context, conf map[string]interface{}) (doc.Store, error) {
		content, _ := conf["content"].(string)
		return New(mfsync.Doc(content)), nil
	})
}
