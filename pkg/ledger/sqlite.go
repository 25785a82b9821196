package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver, registered as "sqlite"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverCGO     = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver is the database/sql driver name: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	Driver string

	// Path is the database file path. ":memory:" opens a private in-memory
	// database.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database and applies the
// schema.
func NewSQLiteStorage(config SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger.sqlite")

	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.Driver != DriverModernc && config.Driver != DriverCGO {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}
	if config.Path == "" {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("database path is required"))
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	if config.Path != ":memory:" {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStorageError("sqlite", "mkdir", err)
			}
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// SQLite only supports a single writer; one connection also keeps an
	// in-memory database alive for the life of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite ledger initialized",
		"driver", config.Driver,
		"path", config.Path,
	)

	return s, nil
}

// initialize applies pragmas and the schema, then verifies its version.
func (s *SQLiteStorage) initialize() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.config.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous=NORMAL",
	}
	if s.config.Path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return NewStorageError("sqlite", "pragma", fmt.Errorf("%s: %w", pragma, err))
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

// Store persists a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, request_id, kind, session_id, scene, model,
			status, error_type, input_chars, output_chars, chunks,
			created_at, latency_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, nullString(record.RequestID), record.Kind,
		nullString(record.SessionID), nullString(record.Scene), record.Model,
		record.Status, nullString(record.ErrorType),
		record.InputChars, record.OutputChars, record.Chunks,
		record.CreatedAt.UnixNano(), record.Latency.Milliseconds(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	where, args := buildWhere(query)
	order := "DESC"
	if query.Ascending {
		order = "ASC"
	}

	stmt := `SELECT id, request_id, kind, session_id, scene, model,
		status, error_type, input_chars, output_chars, chunks,
		created_at, latency_ms
		FROM generations` + where + ` ORDER BY created_at ` + order

	if query.Limit > 0 {
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, query.Limit, query.Offset)
	} else if query.Offset > 0 {
		stmt += " LIMIT -1 OFFSET ?"
		args = append(args, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	results := make([]*Record, 0)
	for rows.Next() {
		var (
			r                                      Record
			requestID, sessionID, scene, errorType sql.NullString
			createdAt, latencyMS                   int64
		)
		if err := rows.Scan(
			&r.ID, &requestID, &r.Kind, &sessionID, &scene, &r.Model,
			&r.Status, &errorType, &r.InputChars, &r.OutputChars, &r.Chunks,
			&createdAt, &latencyMS,
		); err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		r.RequestID = requestID.String
		r.SessionID = sessionID.String
		r.Scene = scene.String
		r.ErrorType = errorType.String
		r.CreatedAt = time.Unix(0, createdAt)
		r.Latency = time.Duration(latencyMS) * time.Millisecond
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhere(query)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations"+where, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhere(query)

	result, err := s.db.ExecContext(ctx, "DELETE FROM generations"+where, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	return deleted, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildWhere turns query filters into a WHERE clause.
func buildWhere(query *Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		clauses = append(clauses, clause)
		args = append(args, arg)
	}

	if query.StartTime != nil {
		add("created_at >= ?", query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		add("created_at <= ?", query.EndTime.UnixNano())
	}
	if query.Kind != "" {
		add("kind = ?", query.Kind)
	}
	if query.Status != "" {
		add("status = ?", query.Status)
	}
	if query.SessionID != "" {
		add("session_id = ?", query.SessionID)
	}
	if query.Scene != "" {
		add("scene = ?", query.Scene)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
