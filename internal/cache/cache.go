// Package cache provides a persistent TTL key-value store backed by a
// local SQLite file. It exists so repeated sync runs against the same
// remote sources are cheap: fetched documents are kept until their
// server-advertised lifetime expires.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Pure Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	topic      TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (topic, key)
);
`

// Store is a persistent cache holding opaque payloads grouped into
// topics. A Store must be created with Open and released with Close;
// it is not a process-wide singleton, so tests and callers control its
// lifetime and location explicitly.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for TTL decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens the cache database at path and ensures the
// schema exists.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Topic scopes cache entries under a namespace so unrelated payload
// families never collide on key.
func (s *Store) Topic(name string) *Topic {
	return &Topic{store: s, name: name}
}

// Topic is a namespaced view of the store.
type Topic struct {
	store *Store
	name  string
}

// Updater writes a payload back to the slot a GetForUpdate call
// resolved. Writing is optional: callers that fail to produce a
// payload simply drop the updater, leaving the cache untouched.
type Updater struct {
	store *Store
	topic string
	key   string
}

// GetForUpdate looks up key in the topic. When a live entry exists its
// payload is returned and the caller needs nothing else. On a miss or
// an expired entry the payload is nil and the returned Updater stores
// the refreshed payload. Expired rows are removed lazily here rather
// than by a background sweeper.
func (t *Topic) GetForUpdate(ctx context.Context, key string) (*Updater, []byte, error) {
	updater := &Updater{store: t.store, topic: t.name, key: key}

	var data []byte
	var expiresAt int64
	err := t.store.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM cache_entries WHERE topic = ? AND key = ?",
		t.name, key,
	).Scan(&data, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return updater, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if t.store.now().UnixMilli() >= expiresAt {
		if _, err := t.store.db.ExecContext(ctx,
			"DELETE FROM cache_entries WHERE topic = ? AND key = ?", t.name, key,
		); err != nil {
			return nil, nil, fmt.Errorf("evicting expired cache entry: %w", err)
		}
		return updater, nil, nil
	}

	return updater, data, nil
}

// Write stores data under the updater's slot with the given lifetime.
// The upsert is a single statement, so readers never observe a
// partially written entry.
func (u *Updater) Write(ctx context.Context, data []byte, ttl time.Duration) error {
	expiresAt := u.store.now().Add(ttl).UnixMilli()
	_, err := u.store.db.ExecContext(ctx,
		`INSERT INTO cache_entries (topic, key, data, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (topic, key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		u.topic, u.key, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
