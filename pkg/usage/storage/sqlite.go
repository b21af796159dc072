package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"palisade-hq/palisade/pkg/usage"
)

// SQLiteConfig contains configuration for the SQLite request log backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/usage.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements usage.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	appendStmt *sql.Stmt
	getStmt    *sql.Stmt
}

// NewSQLiteStorage creates a new SQLite request log backend.
// It initializes the schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "usage.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite request log storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the schema and database pragmas.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return usage.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if busyTimeoutMs == 0 {
		busyTimeoutMs = 5000
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return usage.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return usage.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return usage.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return usage.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return usage.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	var perr error
	s.appendStmt, perr = s.db.Prepare(`
		INSERT INTO palisade_request_logs (uid, key_id, timestamp, endpoint, status, result, duration_ms, request_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if perr != nil {
		return usage.NewStorageError("sqlite", "prepare_append", perr)
	}

	s.getStmt, perr = s.db.Prepare(`
		SELECT id, uid, key_id, timestamp, endpoint, status, result, duration_ms, request_bytes
		FROM palisade_request_logs WHERE id = ?
	`)
	if perr != nil {
		return usage.NewStorageError("sqlite", "prepare_get", perr)
	}

	return nil
}

// Append persists a record and fills in its storage-assigned ID.
func (s *SQLiteStorage) Append(ctx context.Context, record *usage.Record) error {
	var result interface{}
	if len(record.Result) > 0 {
		result = string(record.Result)
	}

	res, err := s.appendStmt.ExecContext(ctx,
		record.UID, record.KeyID, record.Timestamp, record.Endpoint,
		string(record.Status), result, record.DurationMs, record.RequestBytes,
	)
	if err != nil {
		return usage.NewStorageError("sqlite", "append", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return usage.NewStorageError("sqlite", "append", err)
	}
	record.ID = id

	return nil
}

// Query retrieves records matching the filters, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *usage.Query) ([]*usage.Record, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT id, uid, key_id, timestamp, endpoint, status, result, duration_ms, request_bytes FROM palisade_request_logs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY id DESC"

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*usage.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, usage.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Get returns a single record by storage id.
func (s *SQLiteStorage) Get(ctx context.Context, id int64) (*usage.Record, error) {
	record, err := scanRecord(s.getStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usage.ErrRecordNotFound
	}
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// Count returns the number of records matching the filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM palisade_request_logs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, usage.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records older than the given time.
// Used only by retention pruning; the request path never deletes.
func (s *SQLiteStorage) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM palisade_request_logs WHERE timestamp < ?", olderThan)
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases resources held by the backend.
func (s *SQLiteStorage) Close() error {
	for _, stmt := range []*sql.Stmt{s.appendStmt, s.getStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if err := s.db.Close(); err != nil {
		return usage.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite request log storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without "WHERE") and the query arguments.
func buildWhereClause(query *usage.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.KeyID != nil {
		conditions = append(conditions, "key_id = ?")
		args = append(args, *query.KeyID)
	}
	if query.Endpoint != "" {
		conditions = append(conditions, "endpoint = ?")
		args = append(args, query.Endpoint)
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(query.Status))
	}
	if query.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *query.EndTime)
	}
	if query.Contains != "" {
		conditions = append(conditions, "result LIKE ?")
		args = append(args, "%"+query.Contains+"%")
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*usage.Record, error) {
	var (
		record usage.Record
		status string
		result sql.NullString
	)

	err := row.Scan(&record.ID, &record.UID, &record.KeyID, &record.Timestamp,
		&record.Endpoint, &status, &result, &record.DurationMs, &record.RequestBytes)
	if err != nil {
		return nil, err
	}

	record.Status = usage.Status(status)
	if result.Valid {
		record.Result = []byte(result.String)
	}

	return &record, nil
}
