package testutil

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/mfsync/mfsync/auth"
)

// Credentials permits testing a credential Store implementation:
// adding, replacing, looking up, verifying, and listing users.
func Credentials(ctx context.Context, t *testing.T, s auth.Store) {
	_, err := s.Lookup(ctx, "alice")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Errorf("got %v looking up an unknown user, want ErrNotFound", err)
	}

	if err = s.Add(ctx, "alice", "opensesame"); err != nil {
		t.Fatal(err)
	}
	if err = s.Add(ctx, "bob", "hunter2"); err != nil {
		t.Fatal(err)
	}

	h, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if h != auth.HashPassword("opensesame") {
		t.Error("stored hash does not match the password")
	}
	if h == "opensesame" {
		t.Error("password stored in cleartext")
	}

	ok, err := auth.Verify(ctx, s, "alice", "opensesame")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("correct credentials rejected")
	}

	ok, err = auth.Verify(ctx, s, "alice", "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("wrong password accepted")
	}

	ok, err = auth.Verify(ctx, s, "mallory", "opensesame")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown user accepted")
	}

	// Re-adding a user replaces the password.
	if err = s.Add(ctx, "alice", "newpass"); err != nil {
		t.Fatal(err)
	}
	ok, err = auth.Verify(ctx, s, "alice", "opensesame")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("replaced password still accepted")
	}
	ok, err = auth.Verify(ctx, s, "alice", "newpass")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("new password rejected")
	}

	var names []string
	err = s.List(ctx, func(name string) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, names); diff != "" {
		t.Errorf("usernames mismatch (-want +got):\n%s", diff)
	}
}
