package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mfsync/mfsync/testutil"
)

func TestStore(t *testing.T) {
	dirname, err := os.MkdirTemp("", "docfilestore")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dirname)

	testutil.ReadWrite(context.Background(), t, New(filepath.Join(dirname, "master.txt")))
}

func TestCreatesDefaultContent(t *testing.T) {
	dirname, err := os.MkdirTemp("", "docfilestore")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dirname)

	s := New(filepath.Join(dirname, "server", "master.txt"))

	snap, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(snap.Content) != DefaultContent {
		t.Errorf("got content %q, want default", snap.Content)
	}
	if snap.Ref != snap.Content.Ref() {
		t.Error("fingerprint does not match content")
	}
	if snap.ModTime.IsZero() {
		t.Error("snapshot has no modification time")
	}
}
