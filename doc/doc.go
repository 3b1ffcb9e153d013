// Package doc defines the versioned store that owns the master document.
package doc

import (
	"context"
	"fmt"
	"time"

	"github.com/mfsync/mfsync"
)

// Snapshot is a consistent view of the master document.
// Ref is always the fingerprint of exactly the bytes in Content.
type Snapshot struct {
	Content mfsync.Doc
	Ref     mfsync.Ref
	ModTime time.Time
}

// Store holds the master document.
// All reads and the write are mutually exclusive within one store,
// so a snapshot never pairs content from one write
// with the fingerprint of another.
type Store interface {
	// Read returns a consistent snapshot of the document.
	Read(context.Context) (Snapshot, error)

	// Write replaces the document content,
	// atomically with respect to concurrent Reads.
	Write(context.Context, mfsync.Doc) error
}

// Factory builds a Store from configuration.
type Factory func(context.Context, map[string]interface{}) (Store, error)

var registry = make(map[string]Factory)

// Register associates a store type name with its factory.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create builds the store named by key using conf.
func Create(ctx context.Context, key string, conf map[string]interface{}) (Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}
