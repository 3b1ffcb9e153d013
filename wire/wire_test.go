package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEnvelope(t *testing.T) {
	at := time.Date(2021, 8, 1, 12, 0, 0, 500000000, time.UTC)

	resp := OK(at, VersionData{Version: "abc", LastModified: 42})
	if !resp.Success {
		t.Error("OK response is not successful")
	}
	if want := float64(at.Unix()) + 0.5; resp.Timestamp != want {
		t.Errorf("got timestamp %v, want %v", resp.Timestamp, want)
	}

	var got VersionData
	if err := resp.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Version != "abc" || got.LastModified != 42 {
		t.Errorf("got %+v after round trip", got)
	}

	fail := Err(at, "authentication failed")
	if fail.Success {
		t.Error("Err response is successful")
	}
	if err := fail.Decode(&got); err == nil {
		t.Error("got no error decoding an empty payload")
	}
}

func TestDocumentDataOmitsEmptySyncID(t *testing.T) {
	b, err := json.Marshal(DocumentData{Content: "hello", Version: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "sync_id") {
		t.Errorf("untracked delivery carries a sync_id: %s", b)
	}

	b, err = json.Marshal(DocumentData{Content: "hello", Version: "abc", SyncID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"sync_id":"s1"`) {
		t.Errorf("tracked delivery is missing its sync_id: %s", b)
	}
}
