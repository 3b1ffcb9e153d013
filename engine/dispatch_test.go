package engine

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/audit"
	authmem "github.com/mfsync/mfsync/auth/mem"
	docmem "github.com/mfsync/mfsync/doc/mem"
	"github.com/mfsync/mfsync/ledger"
	"github.com/mfsync/mfsync/wire"
)

func testDispatcher(ctx context.Context, t *testing.T) (*Dispatcher, *ledger.Ledger, *logrustest.Hook) {
	t.Helper()

	creds := authmem.New()
	err := creds.Add(ctx, "alice", "opensesame")
	if err != nil {
		t.Fatal(err)
	}

	logger, hook := logrustest.NewNullLogger()
	l := ledger.New()
	d := NewDispatcher(
		New(docmem.New(mfsync.Doc("hello")), l),
		creds,
		audit.FromLogger(logger),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
	return d, l, hook
}

func TestDispatchRoundtrip(t *testing.T) {
	ctx := context.Background()
	d, l, _ := testDispatcher(ctx, t)

	alice := Request{Username: "alice", Password: "opensesame", Origin: "10.0.0.1"}

	get := alice
	get.Protocol = "RR"
	resp := d.Handle(ctx, OpGetDocument, get)
	if !resp.Success {
		t.Fatalf("getDocument failed: %s", resp.Error)
	}
	var docData wire.DocumentData
	if err := resp.Decode(&docData); err != nil {
		t.Fatal(err)
	}
	if docData.Content != "hello" {
		t.Errorf("got content %q, want hello", docData.Content)
	}
	if docData.SyncID == "" {
		t.Fatal("RR delivery carries no sync id")
	}

	ver := d.Handle(ctx, OpCheckVersion, alice)
	if !ver.Success {
		t.Fatalf("checkVersion failed: %s", ver.Error)
	}
	var verData wire.VersionData
	if err := ver.Decode(&verData); err != nil {
		t.Fatal(err)
	}
	if verData.Version != docData.Version {
		t.Errorf("checkVersion reports %s, delivery reported %s", verData.Version, docData.Version)
	}

	confirm := alice
	confirm.SyncID = docData.SyncID
	resp = d.Handle(ctx, OpConfirmSync, confirm)
	if !resp.Success {
		t.Fatalf("confirmSync failed: %s", resp.Error)
	}
	op, ok := l.Get(docData.SyncID)
	if !ok || !op.Confirmed {
		t.Error("ledger does not show the operation confirmed")
	}
}

func TestDispatchAuthIndistinguishable(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDispatcher(ctx, t)

	wrongPassword := d.Handle(ctx, OpCheckVersion, Request{Username: "alice", Password: "nope"})
	unknownUser := d.Handle(ctx, OpCheckVersion, Request{Username: "mallory", Password: "nope"})

	if wrongPassword.Success || unknownUser.Success {
		t.Fatal("bad credentials accepted")
	}
	if wrongPassword.Error != unknownUser.Error {
		t.Errorf("wrong password yields %q, unknown user yields %q", wrongPassword.Error, unknownUser.Error)
	}
	if wrongPassword.Error != "authentication failed" {
		t.Errorf("got error %q, want the fixed authentication message", wrongPassword.Error)
	}
}

func TestDispatchMalformed(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDispatcher(ctx, t)

	alice := Request{Username: "alice", Password: "opensesame"}

	cases := []struct {
		name string
		op   Op
		req  Request
	}{
		{"missing protocol", OpGetDocument, alice},
		{"bad protocol", OpGetDocument, func() Request { r := alice; r.Protocol = "QQ"; return r }()},
		{"missing sync id on confirm", OpConfirmSync, alice},
		{"missing sync id on acknowledge", OpAcknowledgeSync, alice},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := d.Handle(ctx, c.op, c.req)
			if resp.Success {
				t.Fatal("malformed request accepted")
			}
			if resp.Error == "" {
				t.Error("failure carries no error message")
			}
		})
	}

	unknown := d.Handle(ctx, Op(99), alice)
	if unknown.Success {
		t.Fatal("unknown operation accepted")
	}
}

func TestDispatchAudits(t *testing.T) {
	ctx := context.Background()
	d, _, hook := testDispatcher(ctx, t)

	ok := Request{Username: "alice", Password: "opensesame", Origin: "10.0.0.1", Protocol: "R"}
	d.Handle(ctx, OpGetDocument, ok)

	bad := Request{Username: "mallory", Password: "nope", Origin: "10.0.0.2"}
	d.Handle(ctx, OpCheckVersion, bad)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["user"] != "alice" {
		t.Errorf("first entry: level %s, fields %v", entries[0].Level, entries[0].Data)
	}
	if entries[0].Data["operation"] != "get_document" {
		t.Errorf("first entry operation: %v", entries[0].Data["operation"])
	}
	if entries[1].Level != logrus.WarnLevel || entries[1].Data["origin"] != "10.0.0.2" {
		t.Errorf("second entry: level %s, fields %v", entries[1].Level, entries[1].Data)
	}
}
