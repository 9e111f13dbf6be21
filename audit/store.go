// store.go: Read access to stored audit history
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package audit

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	j "github.com/goccy/go-json"
)

// Filter selects audit records. Zero fields match everything.
type Filter struct {
	PathPrefix string
	Event      string
	Generation string
	MinLevel   Level
	Since      time.Time
	// Limit keeps the newest Limit records; 0 means no limit.
	Limit int
}

func (f Filter) match(r Record) bool {
	if f.PathPrefix != "" && !strings.HasPrefix(r.Path, f.PathPrefix) {
		return false
	}
	if f.Event != "" && r.Event != f.Event {
		return false
	}
	if f.Generation != "" && r.Generation != f.Generation {
		return false
	}
	if r.Level < f.MinLevel {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	if f.PathPrefix != "" {
		conds = append(conds, "substr(path, 1, ?) = ?")
		args = append(args, len(f.PathPrefix), f.PathPrefix)
	}
	if f.Event != "" {
		conds = append(conds, "event = ?")
		args = append(args, f.Event)
	}
	if f.Generation != "" {
		conds = append(conds, "generation = ?")
		args = append(args, f.Generation)
	}
	if f.MinLevel > Info {
		conds = append(conds, "severity >= ?")
		args = append(args, int(f.MinLevel))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Store queries a SQLite audit database.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (and migrates if needed) the database at path. An empty
// path opens DefaultDatabasePath.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultDatabasePath()
	}
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Query returns matching records oldest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Record, error) {
	where, args := f.where()
	query := `SELECT timestamp, severity, event, component, source, path,
		old_value, new_value, is_default, message, code, generation,
		process_id, process_name, checksum FROM audit_records` + where + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to query audit records")
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			r                                            Record
			ts                                           string
			severity                                     int
			source, path, oldV, newV, msg, code, genName sql.NullString
		)
		if err := rows.Scan(&ts, &severity, &r.Event, &r.Component, &source, &path,
			&oldV, &newV, &r.Default, &msg, &code, &genName,
			&r.ProcessID, &r.ProcessName, &r.Checksum); err != nil {
			return nil, errors.Wrap(err, ErrCodeQuery, "failed to scan audit record")
		}
		r.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeQuery, "invalid audit timestamp").
				WithContext("timestamp", ts)
		}
		r.Level = Level(severity)
		r.Source, r.Path = source.String, path.String
		r.OldValue, r.NewValue = oldV.String, newV.String
		r.Message, r.Code, r.Generation = msg.String, code.String, genName.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to read audit records")
	}
	reverse(out)
	return out, nil
}

// Stats summarizes the database.
func (s *Store) Stats() (*Stats, error) { return collectStats(s.db, s.path) }

// Path is the database file backing s.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

// ReadJSONL filters records from a JSONL audit stream, oldest first.
func ReadJSONL(r io.Reader, f Filter) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := j.Unmarshal([]byte(text), &rec); err != nil {
			return nil, errors.Wrap(err, ErrCodeQuery, "invalid audit line").
				WithContext("line", line)
		}
		if f.match(rec) {
			out = append(out, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to read audit stream")
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// ReadJSONLFile is ReadJSONL over a file.
func ReadJSONLFile(path string, f Filter) ([]Record, error) {
	// #nosec G304 -- path comes from the operator
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeQuery, "failed to open audit file").
			WithContext("path", path)
	}
	defer func() { _ = file.Close() }()
	return ReadJSONL(file, f)
}

func reverse(rs []Record) {
	for i, k := 0, len(rs)-1; i < k; i, k = i+1, k-1 {
		rs[i], rs[k] = rs[k], rs[i]
	}
}
