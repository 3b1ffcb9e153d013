package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/audit"
	"github.com/mfsync/mfsync/auth"
	"github.com/mfsync/mfsync/wire"
)

// Op identifies one of the four remote operations.
// The set is closed: dispatch is an explicit switch, never reflection.
type Op int

const (
	OpGetDocument Op = iota
	OpCheckVersion
	OpConfirmSync
	OpAcknowledgeSync
)

func (o Op) String() string {
	switch o {
	case OpGetDocument:
		return "get_document"
	case OpCheckVersion:
		return "check_version"
	case OpConfirmSync:
		return "confirm_sync"
	case OpAcknowledgeSync:
		return "acknowledge_sync"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Request carries the raw parameters of one remote call.
// Protocol and SyncID arrive as untrusted strings
// and are validated here, not by the transport.
type Request struct {
	Username string
	Password string
	Origin   string
	Protocol string // getDocument only
	SyncID   string // confirmSync and acknowledgeSync only
}

// Dispatcher authenticates each call, routes it to the engine,
// and records the outcome in the audit trail.
type Dispatcher struct {
	engine *Engine
	creds  auth.Store
	trail  *audit.Trail
	now    func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets the time source for response timestamps.
// The default is time.Now.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher produces a Dispatcher over the given engine,
// credential store, and audit trail.
func NewDispatcher(e *Engine, creds auth.Store, trail *audit.Trail, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine: e,
		creds:  creds,
		trail:  trail,
		now:    time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Handle executes one remote call and always returns a well-formed response.
// Faults never escape: every failure becomes a {success:false} response,
// and every outcome is audited before the response is returned.
func (d *Dispatcher) Handle(ctx context.Context, op Op, req Request) wire.Response {
	resp, err := d.handle(ctx, op, req)

	e := audit.Entry{
		User:      req.Username,
		Origin:    req.Origin,
		Operation: op.String(),
		Success:   err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	d.trail.Record(e)

	if err != nil {
		return wire.Err(d.now(), errText(err))
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, op Op, req Request) (wire.Response, error) {
	ok, err := auth.Verify(ctx, d.creds, req.Username, req.Password)
	if err != nil || !ok {
		return wire.Response{}, ErrAuthenticationFailed
	}

	switch op {
	case OpGetDocument:
		p, err := mfsync.ParseProtocol(req.Protocol)
		if err != nil {
			return wire.Response{}, errors.WithMessage(ErrMalformedRequest, err.Error())
		}
		del, err := d.engine.GetDocument(ctx, p, req.Username, req.Origin)
		if err != nil {
			return wire.Response{}, err
		}
		now := d.now()
		return wire.OK(now, wire.DocumentData{
			Content:   string(del.Content),
			Version:   del.Version.String(),
			SyncID:    del.SyncID,
			Timestamp: wire.Seconds(now),
		}), nil

	case OpCheckVersion:
		ref, modtime, err := d.engine.CheckVersion(ctx)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.OK(d.now(), wire.VersionData{
			Version:      ref.String(),
			LastModified: wire.Seconds(modtime),
		}), nil

	case OpConfirmSync:
		if req.SyncID == "" {
			return wire.Response{}, errors.WithMessage(ErrMalformedRequest, "missing sync_id")
		}
		_, err := d.engine.ConfirmSync(ctx, req.SyncID)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.OK(d.now(), wire.ConfirmData{SyncID: req.SyncID, Confirmed: true}), nil

	case OpAcknowledgeSync:
		if req.SyncID == "" {
			return wire.Response{}, errors.WithMessage(ErrMalformedRequest, "missing sync_id")
		}
		_, err := d.engine.AcknowledgeSync(ctx, req.SyncID)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.OK(d.now(), wire.AcknowledgeData{SyncID: req.SyncID, Acknowledged: true}), nil
	}

	return wire.Response{}, errors.WithMessagef(ErrUnknownOperation, "%s", op)
}

// errText is the failure message sent to the caller.
// Authentication failures are flattened to a fixed string:
// the caller learns nothing about which part of the check failed.
func errText(err error) string {
	if errors.Is(err, ErrAuthenticationFailed) {
		return ErrAuthenticationFailed.Error()
	}
	return err.Error()
}
