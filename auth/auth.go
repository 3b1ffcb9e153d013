// Package auth verifies subscriber credentials.
//
// Every remote call is authenticated independently;
// there are no sessions.
// Credentials travel in an HTTP Basic Authorization header
// and are checked against a credential store
// that holds only password hashes, never plaintext.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is the error returned by Store.Lookup for an unknown username.
var ErrNotFound = errors.New("user not found")

// Store is a credential table keyed by username.
type Store interface {
	// Lookup returns the stored password hash for username, or ErrNotFound.
	Lookup(ctx context.Context, username string) (string, error)

	// Add inserts or replaces the credentials for username.
	// The password is hashed before storage.
	Add(ctx context.Context, username, password string) error

	// List calls f for each username, in lexicographic order.
	// If f returns an error, List exits with that error.
	List(ctx context.Context, f func(username string) error) error
}

// HashPassword returns the hex-encoded sha256 hash of password.
func HashPassword(password string) string {
	h := sha256.Sum256([]byte(password))
	return hex.EncodeToString(h[:])
}

// Verify reports whether the presented credentials are valid.
// A wrong password and an unknown username are indistinguishable to the caller.
func Verify(ctx context.Context, s Store, username, password string) (bool, error) {
	stored, err := s.Lookup(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Hash anyway, so the unknown-user path costs about as much
		// as the wrong-password path.
		HashPassword(password)
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "looking up user")
	}

	presented := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1, nil
}

// EncodeBasic returns the Authorization header value carrying the credentials.
func EncodeBasic(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// ParseBasic extracts credentials from an Authorization header value.
// Absent or malformed headers yield empty credentials,
// which fail verification like any other bad credentials.
func ParseBasic(header string) (username, password string) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", ""
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", ""
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// Factory builds a Store from configuration.
type Factory func(context.Context, map[string]interface{}) (Store, error)

var registry = make(map[string]Factory)

// Register associates a store type name with its factory.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create builds the store named by key using conf.
func Create(ctx context.Context, key string, conf map[string]interface{}) (Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}
