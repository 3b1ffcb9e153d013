// Package engine implements the synchronization protocol:
// three delivery-guarantee modes over a versioned document store
// and a ledger of outstanding operations,
// plus the dispatcher that authenticates and routes remote calls.
package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/doc"
	"github.com/mfsync/mfsync/ledger"
)

// Delivery is the result of a getDocument call.
// SyncID is empty for protocol R, under which nothing is tracked.
type Delivery struct {
	Content mfsync.Doc
	Version mfsync.Ref
	SyncID  string
}

// Engine enforces the delivery-guarantee contracts.
type Engine struct {
	docs   doc.Store
	ledger *ledger.Ledger
}

// New produces an Engine over the given document store and ledger.
func New(docs doc.Store, l *ledger.Ledger) *Engine {
	return &Engine{docs: docs, ledger: l}
}

// GetDocument delivers a snapshot of the master document.
// Under RR and RRA it also opens a ledger entry whose id the subscriber
// must later pass to ConfirmSync or AcknowledgeSync.
// Under R no ledger state is created.
func (e *Engine) GetDocument(ctx context.Context, p mfsync.Protocol, requester, origin string) (Delivery, error) {
	snap, err := e.docs.Read(ctx)
	if err != nil {
		return Delivery{}, &StoreIOError{Err: err}
	}

	d := Delivery{Content: snap.Content, Version: snap.Ref}
	if p.Tracked() {
		op := e.ledger.Open(requester, origin, snap.Ref)
		d.SyncID = op.ID
	}
	return d, nil
}

// CheckVersion is the lightweight poll primitive:
// the current fingerprint and last-modified time, with no ledger involvement.
func (e *Engine) CheckVersion(ctx context.Context) (mfsync.Ref, time.Time, error) {
	snap, err := e.docs.Read(ctx)
	if err != nil {
		return mfsync.Zero, time.Time{}, &StoreIOError{Err: err}
	}
	return snap.Ref, snap.ModTime, nil
}

// ConfirmSync completes an RR delivery.
// Confirming twice is not an error; the first timestamp wins.
func (e *Engine) ConfirmSync(_ context.Context, id string) (ledger.Op, error) {
	op, err := e.ledger.Confirm(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Op{}, errors.WithMessagef(ErrUnknownSyncID, "sync id %s", id)
	}
	return op, err
}

// AcknowledgeSync completes an RRA delivery.
// There is no deadline: an acknowledgment is accepted
// arbitrarily long after the delivery it refers to.
func (e *Engine) AcknowledgeSync(_ context.Context, id string) (ledger.Op, error) {
	op, err := e.ledger.Acknowledge(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Op{}, errors.WithMessagef(ErrUnknownSyncID, "sync id %s", id)
	}
	return op, err
}
