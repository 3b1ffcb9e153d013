package mfsync

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

type (
	// Doc is the byte content of the master document.
	Doc []byte

	// Ref is the fingerprint of a document: the sha256 hash of its content.
	Ref [sha256.Size]byte
)

// Ref computes the fingerprint of a document.
func (d Doc) Ref() Ref {
	return sha256.Sum256(d)
}

// Zero is the zero value of a Ref.
var Zero Ref

func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

func (r Ref) IsZero() bool {
	return r == Zero
}

func (r *Ref) FromHex(s string) error {
	if len(s) != 2*sha256.Size {
		return errors.New("wrong length")
	}
	_, err := hex.Decode(r[:], []byte(s))
	return err
}

func RefFromHex(s string) (Ref, error) {
	var out Ref
	err := out.FromHex(s)
	return out, err
}

// Protocol selects the delivery guarantee for a single document request.
type Protocol int

const (
	// R is a simple request. The server delivers the document and tracks nothing.
	R Protocol = iota

	// RR is a confirmed request-response.
	// The server records the delivery
	// and the subscriber confirms it after storing the content.
	RR

	// RRA is a request-response with asynchronous acknowledgment.
	// Like RR, but the acknowledgment may arrive arbitrarily later.
	RRA
)

func (p Protocol) String() string {
	switch p {
	case R:
		return "R"
	case RR:
		return "RR"
	case RRA:
		return "RRA"
	}
	return "invalid"
}

// Tracked tells whether deliveries under p are recorded in the sync ledger.
func (p Protocol) Tracked() bool {
	return p == RR || p == RRA
}

// ParseProtocol parses the wire name of a protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "R":
		return R, nil
	case "RR":
		return RR, nil
	case "RRA":
		return RRA, nil
	}
	return R, errors.Errorf("unknown protocol %q", s)
}
