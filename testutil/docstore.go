// Package testutil provides shared exercises for store implementations.
package testutil

import (
	"context"
	"testing"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/doc"
)

// ReadWrite permits testing a document Store implementation
// by checking that fingerprints are stable across reads,
// track content changes, and always match the returned content.
func ReadWrite(ctx context.Context, t *testing.T, s doc.Store) {
	snap1, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap1.Ref != snap1.Content.Ref() {
		t.Error("fingerprint does not match content")
	}

	again, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Ref != snap1.Ref {
		t.Error("fingerprint changed without a write")
	}

	const updated = "updated content"
	err = s.Write(ctx, mfsync.Doc(updated))
	if err != nil {
		t.Fatal(err)
	}

	snap2, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(snap2.Content) != updated {
		t.Errorf("got content %q, want %q", snap2.Content, updated)
	}
	if snap2.Ref == snap1.Ref {
		t.Error("fingerprint unchanged after a content change")
	}
	if snap2.Ref != snap2.Content.Ref() {
		t.Error("fingerprint does not match content")
	}

	// A byte-identical rewrite must not change the fingerprint.
	err = s.Write(ctx, mfsync.Doc(updated))
	if err != nil {
		t.Fatal(err)
	}
	snap3, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap3.Ref != snap2.Ref {
		t.Error("fingerprint changed after an identical rewrite")
	}
}
