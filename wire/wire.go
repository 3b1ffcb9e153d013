// Package wire defines the JSON messages exchanged between the
// synchronization server and its subscribers.
package wire

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Response is the envelope for every remote operation.
// Timestamps throughout are Unix seconds.
type Response struct {
	Success   bool            `json:"success"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// DocumentData is the payload of a successful getDocument call.
// SyncID is present only for RR and RRA deliveries.
type DocumentData struct {
	Content   string  `json:"content"`
	Version   string  `json:"version"`
	SyncID    string  `json:"sync_id,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

// VersionData is the payload of a successful checkVersion call.
type VersionData struct {
	Version      string  `json:"version"`
	LastModified float64 `json:"last_modified"`
}

// ConfirmData is the payload of a successful confirmSync call.
type ConfirmData struct {
	SyncID    string `json:"sync_id"`
	Confirmed bool   `json:"confirmed"`
}

// AcknowledgeData is the payload of a successful acknowledgeSync call.
type AcknowledgeData struct {
	SyncID       string `json:"sync_id"`
	Acknowledged bool   `json:"acknowledged"`
}

// SyncIDRequest is the body of a confirmSync or acknowledgeSync POST.
type SyncIDRequest struct {
	SyncID string `json:"sync_id"`
}

// OK builds a success response carrying data.
func OK(at time.Time, data interface{}) Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return Err(at, errors.Wrap(err, "encoding response data").Error())
	}
	return Response{Success: true, Timestamp: Seconds(at), Data: raw}
}

// Err builds a failure response.
func Err(at time.Time, msg string) Response {
	return Response{Timestamp: Seconds(at), Error: msg}
}

// Decode unmarshals the response payload into v.
func (r Response) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("response has no data")
	}
	return errors.Wrap(json.Unmarshal(r.Data, v), "decoding response data")
}

// Seconds converts a time to Unix seconds. The zero time maps to 0.
func Seconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
