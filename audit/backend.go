// backend.go: Storage backends for audit records
//
// SQLite is the default: a single database shared by every process using
// rcfg, WAL mode for concurrent writers, versioned schema migrations and
// retention maintenance. JSONL is kept for explicit .jsonl outputs and as
// a fallback when SQLite cannot be opened.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	j "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

const (
	currentSchemaVersion = 2
	// Fixed-width UTC layout so timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

type backend interface {
	Write(records []Record) error
	Maintenance() error
	Stats() (*Stats, error)
	Close() error
}

// Stats summarizes stored audit history.
type Stats struct {
	TotalRecords   int64            `json:"total_records"`
	RecordsByLevel map[string]int64 `json:"records_by_level"`
	RecordsByEvent map[string]int64 `json:"records_by_event"`
	Generations    int64            `json:"generations"`
	OldestRecord   time.Time        `json:"oldest_record,omitempty"`
	NewestRecord   time.Time        `json:"newest_record,omitempty"`
	StorageBytes   int64            `json:"storage_bytes"`
	SchemaVersion  int              `json:"schema_version"`
}

func createBackend(config Config) (backend, error) {
	if strings.HasSuffix(strings.ToLower(config.OutputFile), ".jsonl") {
		return newJSONLBackend(config.OutputFile)
	}
	b, err := newSQLiteBackend(config)
	if err == nil {
		return b, nil
	}
	if config.OutputFile == "" {
		return nil, err
	}
	// Fall back to an append-only file next to the requested database.
	fallback, ferr := newJSONLBackend(config.OutputFile + ".jsonl")
	if ferr != nil {
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to open any audit backend").
			WithContext("jsonl_error", ferr.Error())
	}
	return fallback, nil
}

func databasePath(config Config) string {
	if config.OutputFile != "" {
		return config.OutputFile
	}
	return DefaultDatabasePath()
}

func openDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to create audit directory").
			WithContext("path", path)
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to open audit database").
			WithContext("path", path)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to connect to audit database").
			WithContext("path", path)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_info (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to create schema_info table")
	}
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	migrations := []func(*sql.Tx) error{migrateToV1, migrateToV2}
	for v := version; v < currentSchemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return errors.Wrap(err, ErrCodeBackend, "audit schema migration failed").
				WithContext("target_version", v+1)
		}
		if _, err := tx.Exec(`INSERT INTO schema_info (version, applied_at) VALUES (?, ?)`,
			v+1, time.Now().UTC().Format(timeLayout)); err != nil {
			return errors.Wrap(err, ErrCodeBackend, "failed to record schema version")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to commit migration")
	}
	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_info`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, ErrCodeBackend, "failed to read schema version")
	}
	return int(v.Int64), nil
}

func migrateToV1(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			severity INTEGER NOT NULL,
			level TEXT NOT NULL,
			event TEXT NOT NULL,
			component TEXT NOT NULL,
			source TEXT,
			path TEXT,
			old_value TEXT,
			new_value TEXT,
			is_default INTEGER NOT NULL DEFAULT 0,
			message TEXT,
			code TEXT,
			generation TEXT,
			process_id INTEGER NOT NULL,
			process_name TEXT NOT NULL,
			checksum TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_path ON audit_records(path)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_records(event)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func migrateToV2(tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_audit_generation ON audit_records(generation, id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_component_time ON audit_records(component, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

type sqliteBackend struct {
	db         *sql.DB
	path       string
	insertStmt *sql.Stmt
	retention  time.Duration
	mu         sync.Mutex
	closed     bool
}

func newSQLiteBackend(config Config) (*sqliteBackend, error) {
	path := databasePath(config)
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	stmt, err := db.Prepare(`INSERT INTO audit_records (
		timestamp, severity, level, event, component, source, path,
		old_value, new_value, is_default, message, code, generation,
		process_id, process_name, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to prepare audit insert")
	}
	b := &sqliteBackend{
		db:         db,
		path:       path,
		insertStmt: stmt,
		retention:  time.Duration(config.RetentionDays) * 24 * time.Hour,
	}
	if err := b.Maintenance(); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *sqliteBackend) Write(records []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New(ErrCodeClosed, "audit backend is closed")
	}
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to begin audit transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt := tx.Stmt(b.insertStmt)
	for _, r := range records {
		if _, err := stmt.Exec(
			r.Timestamp.UTC().Format(timeLayout), int(r.Level), r.Level.String(),
			r.Event, r.Component, r.Source, r.Path,
			r.OldValue, r.NewValue, r.Default, r.Message, r.Code, r.Generation,
			r.ProcessID, r.ProcessName, r.Checksum,
		); err != nil {
			return errors.Wrap(err, ErrCodeBackend, "failed to insert audit record").
				WithContext("event", r.Event).
				WithContext("path", r.Path)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to commit audit records")
	}
	return nil
}

// Maintenance drops records past retention and checkpoints the WAL.
func (b *sqliteBackend) Maintenance() error {
	if b.retention > 0 {
		cutoff := time.Now().Add(-b.retention).UTC().Format(timeLayout)
		if _, err := b.db.Exec(`DELETE FROM audit_records WHERE timestamp < ?`, cutoff); err != nil {
			return errors.Wrap(err, ErrCodeBackend, "failed to apply audit retention")
		}
	}
	if _, err := b.db.Exec(`PRAGMA optimize`); err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to optimize audit database")
	}
	return nil
}

func (b *sqliteBackend) Stats() (*Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New(ErrCodeClosed, "audit backend is closed")
	}
	return collectStats(b.db, b.path)
}

func (b *sqliteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	_, _ = b.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	if b.insertStmt != nil {
		_ = b.insertStmt.Close()
	}
	return b.db.Close()
}

func collectStats(db *sql.DB, path string) (*Stats, error) {
	s := &Stats{
		RecordsByLevel: make(map[string]int64),
		RecordsByEvent: make(map[string]int64),
	}
	if err := db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT generation) FROM audit_records`).
		Scan(&s.TotalRecords, &s.Generations); err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to count audit records")
	}
	if err := countBy(db, "level", s.RecordsByLevel); err != nil {
		return nil, err
	}
	if err := countBy(db, "event", s.RecordsByEvent); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullString
	if err := db.QueryRow(`SELECT MIN(timestamp), MAX(timestamp) FROM audit_records`).
		Scan(&oldest, &newest); err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to read audit time range")
	}
	if oldest.Valid {
		s.OldestRecord, _ = time.Parse(timeLayout, oldest.String)
	}
	if newest.Valid {
		s.NewestRecord, _ = time.Parse(timeLayout, newest.String)
	}

	version, err := schemaVersion(db)
	if err != nil {
		return nil, err
	}
	s.SchemaVersion = version
	if info, err := os.Stat(path); err == nil {
		s.StorageBytes = info.Size()
	}
	return s, nil
}

// countBy only ever receives fixed column names.
func countBy(db *sql.DB, column string, into map[string]int64) error {
	rows, err := db.Query(`SELECT ` + column + `, COUNT(*) FROM audit_records GROUP BY ` + column)
	if err != nil {
		return errors.Wrap(err, ErrCodeQuery, "failed to group audit records").
			WithContext("column", column)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return errors.Wrap(err, ErrCodeQuery, "failed to scan audit group")
		}
		into[key] = n
	}
	return rows.Err()
}

type jsonlBackend struct {
	file   *os.File
	path   string
	mu     sync.Mutex
	closed bool
	stats  Stats
}

func newJSONLBackend(path string) (*jsonlBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to create audit directory").
			WithContext("path", path)
	}
	// #nosec G304 -- path comes from operator configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeBackend, "failed to open audit file").
			WithContext("path", path)
	}
	return &jsonlBackend{
		file: f,
		path: path,
		stats: Stats{
			RecordsByLevel: make(map[string]int64),
			RecordsByEvent: make(map[string]int64),
		},
	}, nil
}

func (b *jsonlBackend) Write(records []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New(ErrCodeClosed, "audit backend is closed")
	}
	for _, r := range records {
		data, err := j.Marshal(r)
		if err != nil {
			return errors.Wrap(err, ErrCodeBackend, "failed to encode audit record")
		}
		if _, err := b.file.Write(append(data, '\n')); err != nil {
			return errors.Wrap(err, ErrCodeBackend, "failed to append audit record").
				WithContext("path", b.path)
		}
		b.account(r)
	}
	return b.file.Sync()
}

// account tracks what this process wrote; JSONL history is not reread.
func (b *jsonlBackend) account(r Record) {
	b.stats.TotalRecords++
	b.stats.RecordsByLevel[r.Level.String()]++
	b.stats.RecordsByEvent[r.Event]++
	if b.stats.OldestRecord.IsZero() || r.Timestamp.Before(b.stats.OldestRecord) {
		b.stats.OldestRecord = r.Timestamp
	}
	if r.Timestamp.After(b.stats.NewestRecord) {
		b.stats.NewestRecord = r.Timestamp
	}
}

func (b *jsonlBackend) Maintenance() error { return nil }

func (b *jsonlBackend) Stats() (*Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.RecordsByLevel = make(map[string]int64, len(b.stats.RecordsByLevel))
	for k, v := range b.stats.RecordsByLevel {
		s.RecordsByLevel[k] = v
	}
	s.RecordsByEvent = make(map[string]int64, len(b.stats.RecordsByEvent))
	for k, v := range b.stats.RecordsByEvent {
		s.RecordsByEvent[k] = v
	}
	if info, err := b.file.Stat(); err == nil {
		s.StorageBytes = info.Size()
	}
	return &s, nil
}

func (b *jsonlBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	_ = b.file.Sync()
	return b.file.Close()
}
