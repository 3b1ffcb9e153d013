package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/audit"
	"github.com/mfsync/mfsync/auth"
	authmem "github.com/mfsync/mfsync/auth/mem"
	docmem "github.com/mfsync/mfsync/doc/mem"
	"github.com/mfsync/mfsync/engine"
	"github.com/mfsync/mfsync/ledger"
	"github.com/mfsync/mfsync/wire"
)

func testServer(ctx context.Context, t *testing.T) (*httptest.Server, *docmem.Store, *ledger.Ledger) {
	t.Helper()

	creds := authmem.New()
	err := creds.Add(ctx, "alice", "opensesame")
	if err != nil {
		t.Fatal(err)
	}

	docs := docmem.New(mfsync.Doc("hello"))
	l := ledger.New()
	d := engine.NewDispatcher(engine.New(docs, l), creds, audit.New(io.Discard))

	ts := httptest.NewServer(New(d).Handler())
	t.Cleanup(ts.Close)
	return ts, docs, l
}

func call(t *testing.T, method, url string, body []byte, username, password string) (int, wire.Response) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if username != "" {
		req.Header.Set("Authorization", auth.EncodeBasic(username, password))
	}
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()

	if ct := httpResp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("got Content-Type %s, want application/json", ct)
	}

	var resp wire.Response
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	if err != nil {
		t.Fatal(err)
	}
	return httpResp.StatusCode, resp
}

// TestSyncLifecycle walks one RR subscription through a document change:
// fetch and confirm, rewrite the master, observe the new fingerprint.
func TestSyncLifecycle(t *testing.T) {
	ctx := context.Background()
	ts, docs, l := testServer(ctx, t)

	status, resp := call(t, http.MethodGet, ts.URL+"/file/content?protocol=RR", nil, "alice", "opensesame")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("getDocument: status %d, error %q", status, resp.Error)
	}
	var docData wire.DocumentData
	if err := resp.Decode(&docData); err != nil {
		t.Fatal(err)
	}
	if docData.Content != "hello" {
		t.Errorf("got content %q, want hello", docData.Content)
	}
	f1 := docData.Version
	if f1 != mfsync.Doc("hello").Ref().String() {
		t.Errorf("version %s is not the fingerprint of the content", f1)
	}

	body, _ := json.Marshal(wire.SyncIDRequest{SyncID: docData.SyncID})
	status, resp = call(t, http.MethodPost, ts.URL+"/sync/confirm", body, "alice", "opensesame")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("confirmSync: status %d, error %q", status, resp.Error)
	}
	op, ok := l.Get(docData.SyncID)
	if !ok || !op.Confirmed {
		t.Error("ledger does not show the operation confirmed")
	}

	err := docs.Write(ctx, mfsync.Doc("world"))
	if err != nil {
		t.Fatal(err)
	}

	status, resp = call(t, http.MethodGet, ts.URL+"/file/version", nil, "alice", "opensesame")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("checkVersion: status %d, error %q", status, resp.Error)
	}
	var verData wire.VersionData
	if err := resp.Decode(&verData); err != nil {
		t.Fatal(err)
	}
	if verData.Version == f1 {
		t.Error("fingerprint unchanged after rewriting the document")
	}
	if verData.Version != mfsync.Doc("world").Ref().String() {
		t.Errorf("got version %s, want the fingerprint of the new content", verData.Version)
	}
	if verData.LastModified == 0 {
		t.Error("last_modified missing")
	}
}

func TestProtocolROmitsSyncID(t *testing.T) {
	ctx := context.Background()
	ts, _, l := testServer(ctx, t)

	status, resp := call(t, http.MethodGet, ts.URL+"/file/content?protocol=R", nil, "alice", "opensesame")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("getDocument: status %d, error %q", status, resp.Error)
	}

	// The sync_id key must be absent from the JSON, not just empty.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, present := raw["sync_id"]; present {
		t.Error("protocol R response carries a sync_id key")
	}
	if l.Len() != 0 {
		t.Errorf("protocol R left %d ledger entries", l.Len())
	}
}

func TestBadRequests(t *testing.T) {
	ctx := context.Background()
	ts, _, _ := testServer(ctx, t)

	cases := []struct {
		name       string
		method     string
		path       string
		body       []byte
		username   string
		password   string
		wantStatus int
		wantError  string
	}{
		{"no credentials", http.MethodGet, "/file/version", nil, "", "", http.StatusBadRequest, "authentication failed"},
		{"wrong password", http.MethodGet, "/file/version", nil, "alice", "nope", http.StatusBadRequest, "authentication failed"},
		{"unknown user", http.MethodGet, "/file/version", nil, "mallory", "nope", http.StatusBadRequest, "authentication failed"},
		{"missing protocol", http.MethodGet, "/file/content", nil, "alice", "opensesame", http.StatusBadRequest, ""},
		{"unknown sync id", http.MethodPost, "/sync/confirm", []byte(`{"sync_id":"nope"}`), "alice", "opensesame", http.StatusBadRequest, ""},
		{"garbage body", http.MethodPost, "/sync/acknowledge", []byte("{"), "alice", "opensesame", http.StatusBadRequest, ""},
		{"unknown path", http.MethodGet, "/nope", nil, "alice", "opensesame", http.StatusNotFound, "not found"},
		{"wrong method", http.MethodPost, "/file/version", nil, "alice", "opensesame", http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, resp := call(t, c.method, ts.URL+c.path, c.body, c.username, c.password)
			if status != c.wantStatus {
				t.Errorf("got status %d, want %d", status, c.wantStatus)
			}
			if resp.Success {
				t.Error("envelope reports success")
			}
			if c.wantError != "" && resp.Error != c.wantError {
				t.Errorf("got error %q, want %q", resp.Error, c.wantError)
			}
			if resp.Error == "" {
				t.Error("failure carries no error message")
			}
		})
	}
}

func TestForwardedOrigin(t *testing.T) {
	ctx := context.Background()
	ts, _, l := testServer(ctx, t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/file/content?protocol=RR", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", auth.EncodeBasic("alice", "opensesame"))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()

	var resp wire.Response
	if err = json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	var docData wire.DocumentData
	if err = resp.Decode(&docData); err != nil {
		t.Fatal(err)
	}

	op, ok := l.Get(docData.SyncID)
	if !ok {
		t.Fatal("delivered sync id not in ledger")
	}
	if op.Origin != "203.0.113.9" {
		t.Errorf("got origin %q, want the first forwarded hop", op.Origin)
	}
	if strings.Contains(op.Origin, ":") {
		t.Errorf("origin %q retains a port", op.Origin)
	}
}
