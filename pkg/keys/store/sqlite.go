package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"palisade-hq/palisade/pkg/keys"
)

// Schema contains the SQL statements to create the credential table.
// The table name is namespaced so the database file can be shared with
// unrelated application tables.
const Schema = `
CREATE TABLE IF NOT EXISTS palisade_api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT '',
	prefix TEXT NOT NULL,
	secret_hash BLOB NOT NULL,
	salt BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	revoked_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_palisade_api_keys_prefix ON palisade_api_keys(prefix, revoked_at);
`

// SQLiteStore implements Store using SQLite for persistence.
//
// SQLiteStore uses a write-ahead log for better concurrent read performance.
// Writes are serialized by the single-writer connection limit; identifier
// assignment relies on AUTOINCREMENT, so two concurrent issuances can never
// collide on an id.
type SQLiteStore struct {
	db    *sql.DB
	codec *keys.Codec

	issueStmt  *sql.Stmt
	activeStmt *sql.Stmt
	revokeStmt *sql.Stmt
	getStmt    *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteConfig configures the SQLite credential store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the credential database at cfg.Path and
// prepares the store's statements. Keys are generated and parsed with codec.
func NewSQLiteStore(cfg SQLiteConfig, codec *keys.Codec) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:    db,
		codec: codec,
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, NewStorageError("sqlite", "create_schema", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.issueStmt, err = s.db.Prepare(`
		INSERT INTO palisade_api_keys (name, prefix, secret_hash, salt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_issue", err)
	}

	s.activeStmt, err = s.db.Prepare(`
		SELECT id, name, prefix, secret_hash, salt, created_at, revoked_at
		FROM palisade_api_keys
		WHERE prefix = ? AND revoked_at IS NULL
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_active", err)
	}

	// Atomic set-if-null keeps concurrent revokes of the same key consistent
	// without explicit locking.
	s.revokeStmt, err = s.db.Prepare(`
		UPDATE palisade_api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_revoke", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT id, name, prefix, secret_hash, salt, created_at, revoked_at
		FROM palisade_api_keys
		WHERE id = ?
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_get", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, name, prefix, created_at, revoked_at
		FROM palisade_api_keys
		ORDER BY id DESC
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_list", err)
	}

	return nil
}

// Issue creates a new credential and returns the record plus the one-time
// plaintext secret. The write is a single INSERT: either the record exists
// fully or not at all.
func (s *SQLiteStore) Issue(ctx context.Context, name string) (*keys.Key, string, error) {
	plaintext, err := s.codec.Generate()
	if err != nil {
		return nil, "", NewStorageError("sqlite", "issue", err)
	}

	salt, err := keys.NewSalt()
	if err != nil {
		return nil, "", NewStorageError("sqlite", "issue", err)
	}
	hash := keys.HashSecret(salt, plaintext)
	now := time.Now().UTC()

	res, err := s.issueStmt.ExecContext(ctx, name, s.codec.Prefix(), hash, salt, now.Unix())
	if err != nil {
		return nil, "", NewStorageError("sqlite", "issue", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, "", NewStorageError("sqlite", "issue", err)
	}

	key := &keys.Key{
		ID:         id,
		Name:       name,
		Prefix:     s.codec.Prefix(),
		SecretHash: hash,
		Salt:       salt,
		CreatedAt:  now,
	}

	return key, plaintext, nil
}

// Resolve parses the candidate and scans the active credentials under the
// matching prefix, re-deriving the salted hash for each until one compares
// equal in constant time.
func (s *SQLiteStore) Resolve(ctx context.Context, candidate string) (*keys.Key, error) {
	if _, err := s.codec.Parse(candidate); err != nil {
		return nil, err
	}

	rows, err := s.activeStmt.QueryContext(ctx, s.codec.Prefix())
	if err != nil {
		return nil, NewStorageError("sqlite", "resolve", err)
	}
	defer rows.Close()

	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "resolve", err)
		}
		if keys.VerifySecret(key.Salt, key.SecretHash, candidate) {
			return key, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "resolve", err)
	}

	return nil, keys.ErrKeyNotFound
}

// Revoke sets RevokedAt if it is currently null. Revoking twice is a no-op.
func (s *SQLiteStore) Revoke(ctx context.Context, id int64) error {
	res, err := s.revokeStmt.ExecContext(ctx, time.Now().UTC().Unix(), id)
	if err != nil {
		return NewStorageError("sqlite", "revoke", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return NewStorageError("sqlite", "revoke", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the key is already revoked (no-op) or it
	// does not exist.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return nil
}

// Get returns the credential with the given id, revoked or not.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*keys.Key, error) {
	row := s.getStmt.QueryRowContext(ctx, id)

	key, err := scanKeyRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, keys.ErrKeyNotFound
	}
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}

	return key, nil
}

// List returns all credentials newest first, redacted for admin display.
func (s *SQLiteStore) List(ctx context.Context) ([]keys.Redacted, error) {
	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	out := []keys.Redacted{}
	for rows.Next() {
		var (
			id        int64
			name      string
			prefix    string
			createdAt int64
			revokedAt sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &prefix, &createdAt, &revokedAt); err != nil {
			return nil, NewStorageError("sqlite", "list", err)
		}

		r := keys.Redacted{
			ID:        id,
			Name:      name,
			Prefix:    prefix,
			Active:    !revokedAt.Valid,
			CreatedAt: time.Unix(createdAt, 0).UTC(),
		}
		if revokedAt.Valid {
			t := time.Unix(revokedAt.Int64, 0).UTC()
			r.RevokedAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}

	return out, nil
}

// Close releases the prepared statements and the database connection.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.issueStmt, s.activeStmt, s.revokeStmt, s.getStmt, s.listStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKey(rows *sql.Rows) (*keys.Key, error) {
	return scanKeyRow(rows)
}

func scanKeyRow(row rowScanner) (*keys.Key, error) {
	var (
		key       keys.Key
		createdAt int64
		revokedAt sql.NullInt64
	)

	err := row.Scan(&key.ID, &key.Name, &key.Prefix, &key.SecretHash, &key.Salt, &createdAt, &revokedAt)
	if err != nil {
		return nil, err
	}

	key.CreatedAt = time.Unix(createdAt, 0).UTC()
	if revokedAt.Valid {
		t := time.Unix(revokedAt.Int64, 0).UTC()
		key.RevokedAt = &t
	}

	return &key, nil
}
