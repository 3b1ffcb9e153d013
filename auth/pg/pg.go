// Package pg implements a Postgresql-based credential store.
package pg

import (
	"context"
	"database/sql"
	stderrs "errors"

	"github.com/bobg/sqlutil"
	_ "github.com/lib/pq" // register the postgres type for sql.Open
	"github.com/pkg/errors"

	"github.com/mfsync/mfsync/auth"
)

var _ auth.Store = &Store{}

// Store is a Postgresql-based credential store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `users` table if it does not exist.
// (If it does exist, it must have the columns and constraints described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY NOT NULL,
  password_hash TEXT NOT NULL
);
`

// New produces a new Store using `db` for storage.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Lookup returns the stored password hash for username.
func (s *Store) Lookup(ctx context.Context, username string) (string, error) {
	const q = `SELECT password_hash FROM users WHERE username = $1`

	var h string
	err := s.db.QueryRowContext(ctx, q, username).Scan(&h)
	if stderrs.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNotFound
	}
	return h, errors.Wrapf(err, "querying user %s", username)
}

// Add inserts or replaces the credentials for username.
func (s *Store) Add(ctx context.Context, username, password string) error {
	const q = `
		INSERT INTO users (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`

	_, err := s.db.ExecContext(ctx, q, username, auth.HashPassword(password))
	return errors.Wrapf(err, "upserting user %s", username)
}

// List calls f for each username, in lexicographic order.
func (s *Store) List(ctx context.Context, f func(string) error) error {
	const q = `SELECT username FROM users ORDER BY username`
	return sqlutil.ForQueryRows(ctx, s.db, q, f)
}

func init() {
	auth.Register("postgres", func(ctx context.Context, conf map[string]interface{}) (auth.Store, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		db, err := sql.Open("postgres", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
