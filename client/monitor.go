package client

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
)

// A Monitor keeps a local mirror file synchronized with the master
// document by polling the server's version endpoint and fetching the
// document when the fingerprints diverge.
type Monitor struct {
	// C calls the server.
	C *Client

	// Path is the local mirror file.
	Path string

	// Protocol selects the delivery guarantee for fetches.
	Protocol mfsync.Protocol

	// Interval is the polling period. Zero means DefaultInterval.
	Interval time.Duration

	// AckDelay is how long after writing the mirror an RRA
	// acknowledgment is sent. Zero means acknowledge immediately.
	AckDelay time.Duration

	// pending is a confirm that failed after the mirror was already
	// written, awaiting retry on the next poll.
	pending string
}

// DefaultInterval is the polling period when Monitor.Interval is zero.
const DefaultInterval = 30 * time.Second

// Run polls until ctx is canceled.
// A failed poll is logged and the next tick tries again.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := m.Poll(ctx)
		if err != nil {
			log.Printf("poll: %s", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll performs one synchronization pass:
// compare the mirror's fingerprint to the server's,
// fetch and rewrite the mirror if they differ,
// and complete the protocol handshake for tracked deliveries.
func (m *Monitor) Poll(ctx context.Context) error {
	// A confirm that failed after the mirror was written would be
	// lost otherwise: the fingerprints match on the next poll, so no
	// new delivery (and no new sync id) happens.
	if m.pending != "" {
		err := m.C.ConfirmSync(ctx, m.pending)
		if err != nil {
			return err
		}
		m.pending = ""
	}

	ver, err := m.C.CheckVersion(ctx)
	if err != nil {
		return err
	}

	local, err := m.localRef()
	if err != nil {
		return err
	}
	if !local.IsZero() && local.String() == ver.Version {
		return nil
	}

	del, err := m.C.GetDocument(ctx, m.Protocol)
	if err != nil {
		return err
	}
	err = m.writeMirror(mfsync.Doc(del.Content))
	if err != nil {
		return err
	}

	switch m.Protocol {
	case mfsync.RR:
		err = m.C.ConfirmSync(ctx, del.SyncID)
		if err != nil {
			m.pending = del.SyncID
			return err
		}
	case mfsync.RRA:
		m.acknowledgeLater(ctx, del.SyncID)
	}
	return nil
}

// localRef fingerprints the mirror file.
// A missing mirror yields the zero ref, which never matches
// the server's version and so forces a fetch.
func (m *Monitor) localRef() (mfsync.Ref, error) {
	content, err := os.ReadFile(m.Path)
	if os.IsNotExist(err) {
		return mfsync.Zero, nil
	}
	if err != nil {
		return mfsync.Zero, errors.Wrapf(err, "reading mirror %s", m.Path)
	}
	return mfsync.Doc(content).Ref(), nil
}

func (m *Monitor) writeMirror(content mfsync.Doc) error {
	err := os.MkdirAll(filepath.Dir(m.Path), 0755)
	if err != nil {
		return errors.Wrapf(err, "creating mirror dir for %s", m.Path)
	}
	return errors.Wrapf(os.WriteFile(m.Path, content, 0644), "writing mirror %s", m.Path)
}

// acknowledgeLater sends the RRA acknowledgment after AckDelay.
// The server accepts acknowledgments arbitrarily late, so a
// canceled context simply abandons the attempt.
func (m *Monitor) acknowledgeLater(ctx context.Context, syncID string) {
	go func() {
		if m.AckDelay > 0 {
			timer := time.NewTimer(m.AckDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		err := m.C.AcknowledgeSync(ctx, syncID)
		if err != nil {
			log.Printf("acknowledge %s: %s", syncID, err)
		}
	}()
}
