// Package ledger tracks outstanding synchronization operations
// for the RR and RRA delivery protocols.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
)

// ErrNotFound is the error returned when confirming or acknowledging
// a sync id that was never opened (or that the table has evicted).
var ErrNotFound = errors.New("unknown sync id")

// Op is one tracked delivery of the master document to one subscriber.
// DocRef records the fingerprint of the snapshot that was delivered;
// the live document may change afterward.
// Confirmed and Acknowledged move from false to true exactly once
// and never move back.
type Op struct {
	ID             string
	Requester      string
	Origin         string
	DocRef         mfsync.Ref
	CreatedAt      time.Time
	Confirmed      bool
	ConfirmedAt    time.Time
	Acknowledged   bool
	AcknowledgedAt time.Time
}

// Table stores ledger entries. Implementations choose the retention policy.
type Table interface {
	Add(id string, op *Op)
	Get(id string) (*Op, bool)
	Len() int
}

// MapTable retains every entry for the life of the process.
// This is the default: an operation that is never confirmed or
// acknowledged stays open forever, and the server imposes no timeout.
type MapTable map[string]*Op

func NewMapTable() MapTable {
	return make(MapTable)
}

func (t MapTable) Add(id string, op *Op) { t[id] = op }

func (t MapTable) Get(id string) (*Op, bool) {
	op, ok := t[id]
	return op, ok
}

func (t MapTable) Len() int { return len(t) }

var _ Table = MapTable(nil)

// LRUTable caps the number of retained entries,
// evicting the least recently used when full.
// Confirming or acknowledging an evicted operation yields ErrNotFound.
type LRUTable struct {
	c *lru.Cache
}

// NewLRUTable produces a Table retaining up to size entries.
func NewLRUTable(size int) (*LRUTable, error) {
	c, err := lru.New(size)
	return &LRUTable{c: c}, err
}

func (t *LRUTable) Add(id string, op *Op) { t.c.Add(id, op) }

func (t *LRUTable) Get(id string) (*Op, bool) {
	v, ok := t.c.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Op), true
}

func (t *LRUTable) Len() int { return t.c.Len() }

var _ Table = &LRUTable{}

// Ledger is the in-memory table of outstanding synchronization operations.
type Ledger struct {
	mu    sync.Mutex
	table Table
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTable sets the retention policy. The default is NewMapTable().
func WithTable(t Table) Option {
	return func(l *Ledger) { l.table = t }
}

// WithClock sets the time source. The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New produces a new Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		table: NewMapTable(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Open allocates a new operation with a globally unique id,
// unconfirmed and unacknowledged, and returns a copy of it.
func (l *Ledger) Open(requester, origin string, docRef mfsync.Ref) Op {
	l.mu.Lock()
	defer l.mu.Unlock()

	op := &Op{
		ID:        uuid.New().String(),
		Requester: requester,
		Origin:    origin,
		DocRef:    docRef,
		CreatedAt: l.now(),
	}
	l.table.Add(op.ID, op)
	return *op
}

// Confirm marks the operation confirmed and returns a copy of it.
// Confirming an already-confirmed operation is not an error
// and keeps the timestamp of the first confirmation.
func (l *Ledger) Confirm(id string) (Op, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	op, ok := l.table.Get(id)
	if !ok {
		return Op{}, ErrNotFound
	}
	if !op.Confirmed {
		op.Confirmed = true
		op.ConfirmedAt = l.now()
	}
	return *op, nil
}

// Acknowledge marks the operation acknowledged and returns a copy of it.
// Like Confirm, it is idempotent with set-once timestamps,
// and it accepts acknowledgments arbitrarily long after Open.
func (l *Ledger) Acknowledge(id string) (Op, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	op, ok := l.table.Get(id)
	if !ok {
		return Op{}, ErrNotFound
	}
	if !op.Acknowledged {
		op.Acknowledged = true
		op.AcknowledgedAt = l.now()
	}
	return *op, nil
}

// Get returns a copy of the operation with the given id.
func (l *Ledger) Get(id string) (Op, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	op, ok := l.table.Get(id)
	if !ok {
		return Op{}, false
	}
	return *op, true
}

// Len reports the number of retained operations.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.table.Len()
}
