// Package client implements the subscriber side of the synchronization
// protocol: a typed HTTP client for the four remote operations and a
// Monitor that keeps a local mirror of the master document.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/auth"
	"github.com/mfsync/mfsync/wire"
)

// Client calls a synchronization server.
// Credentials are attached to every request; there are no sessions.
type Client struct {
	base     string
	username string
	password string
	hc       *http.Client
}

// New produces a Client for the server at serverURL.
func New(serverURL, username, password string) *Client {
	return &Client{
		base:     strings.TrimRight(serverURL, "/"),
		username: username,
		password: password,
		hc:       http.DefaultClient,
	}
}

// GetDocument fetches the master document under the given protocol.
func (c *Client) GetDocument(ctx context.Context, p mfsync.Protocol) (wire.DocumentData, error) {
	var data wire.DocumentData
	resp, err := c.get(ctx, "/file/content", url.Values{"protocol": {p.String()}})
	if err != nil {
		return data, err
	}
	return data, resp.Decode(&data)
}

// CheckVersion fetches the current fingerprint of the master document.
func (c *Client) CheckVersion(ctx context.Context) (wire.VersionData, error) {
	var data wire.VersionData
	resp, err := c.get(ctx, "/file/version", nil)
	if err != nil {
		return data, err
	}
	return data, resp.Decode(&data)
}

// ConfirmSync reports receipt of an RR delivery.
func (c *Client) ConfirmSync(ctx context.Context, syncID string) error {
	_, err := c.post(ctx, "/sync/confirm", wire.SyncIDRequest{SyncID: syncID})
	return err
}

// AcknowledgeSync reports application of an RRA delivery.
func (c *Client) AcknowledgeSync(ctx context.Context, syncID string) error {
	_, err := c.post(ctx, "/sync/acknowledge", wire.SyncIDRequest{SyncID: syncID})
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (wire.Response, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wire.Response{}, errors.Wrapf(err, "building request for %s", path)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (wire.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return wire.Response{}, errors.Wrapf(err, "encoding body for %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(encoded))
	if err != nil {
		return wire.Response{}, errors.Wrapf(err, "building request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (wire.Response, error) {
	req.Header.Set("Authorization", auth.EncodeBasic(c.username, c.password))

	httpResp, err := c.hc.Do(req)
	if err != nil {
		return wire.Response{}, errors.Wrapf(err, "calling %s", req.URL.Path)
	}
	defer httpResp.Body.Close()

	var resp wire.Response
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	if err != nil {
		return wire.Response{}, errors.Wrapf(err, "decoding response from %s", req.URL.Path)
	}
	if !resp.Success {
		return resp, errors.Errorf("server error from %s: %s", req.URL.Path, resp.Error)
	}
	return resp, nil
}
