// backend_test.go: Tests for the SQLite backend and Store queries
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func sqliteConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "audit.db")
	cfg.FlushInterval = 0
	return cfg
}

func seedDatabase(t *testing.T, cfg Config) {
	t.Helper()
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create SQLite logger: %v", err)
	}
	logger.Log(Record{Level: Info, Event: "set", Path: "server.port", NewValue: "80", Generation: "g1"})
	logger.Log(Record{Level: Info, Event: "set", Path: "server.host", NewValue: "localhost", Generation: "g1"})
	logger.Log(Record{Level: Warn, Event: "not_updatable", Path: "server.port", OldValue: "80", NewValue: "81", Generation: "g2"})
	logger.Log(Record{Level: Critical, Event: "error", Path: "workers", Message: "should be >= 1", Code: "RCFG_VALIDATION_FAILED", Generation: "g2"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
}

func TestSQLiteBackendQuery(t *testing.T) {
	cfg := sqliteConfig(t)
	seedDatabase(t, cfg)

	store, err := OpenStore(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	}()
	ctx := context.Background()

	all, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(all))
	}
	if all[0].Path != "server.port" || all[3].Path != "workers" {
		t.Errorf("Records should come back oldest first, got %s .. %s", all[0].Path, all[3].Path)
	}
	for _, r := range all {
		if !Verify(r) {
			t.Errorf("Stored record %s/%s failed verification", r.Event, r.Path)
		}
	}
	if all[3].Code != "RCFG_VALIDATION_FAILED" || all[3].Level != Critical {
		t.Errorf("Unexpected error record: %+v", all[3])
	}

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"path prefix", Filter{PathPrefix: "server."}, 3},
		{"event", Filter{Event: "set"}, 2},
		{"generation", Filter{Generation: "g2"}, 2},
		{"min level", Filter{MinLevel: Warn}, 2},
		{"limit", Filter{Limit: 1}, 1},
		{"future", Filter{Since: time.Now().Add(time.Hour)}, 0},
		{"combined", Filter{PathPrefix: "server.port", Generation: "g2"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Query(ctx, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.want {
				t.Errorf("Expected %d records, got %d", tc.want, len(got))
			}
		})
	}

	latest, err := store.Query(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if latest[0].Path != "workers" {
		t.Errorf("Limit should keep the newest record, got %s", latest[0].Path)
	}
}

func TestSQLiteStats(t *testing.T) {
	cfg := sqliteConfig(t)
	seedDatabase(t, cfg)

	store, err := OpenStore(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 4 {
		t.Errorf("Expected 4 records, got %d", stats.TotalRecords)
	}
	if stats.RecordsByLevel["INFO"] != 2 || stats.RecordsByLevel["CRITICAL"] != 1 {
		t.Errorf("Unexpected level breakdown: %v", stats.RecordsByLevel)
	}
	if stats.RecordsByEvent["set"] != 2 {
		t.Errorf("Unexpected event breakdown: %v", stats.RecordsByEvent)
	}
	if stats.Generations != 2 {
		t.Errorf("Expected 2 generations, got %d", stats.Generations)
	}
	if stats.SchemaVersion != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, stats.SchemaVersion)
	}
	if stats.OldestRecord.IsZero() || stats.NewestRecord.Before(stats.OldestRecord) {
		t.Errorf("Invalid time range %v .. %v", stats.OldestRecord, stats.NewestRecord)
	}
	if stats.StorageBytes == 0 {
		t.Error("Storage size should be reported")
	}
}

func TestSQLiteReopenKeepsHistory(t *testing.T) {
	cfg := sqliteConfig(t)
	seedDatabase(t, cfg)
	seedDatabase(t, cfg)

	store, err := OpenStore(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 8 {
		t.Errorf("Expected 8 records after two sessions, got %d", stats.TotalRecords)
	}
	if stats.SchemaVersion != currentSchemaVersion {
		t.Errorf("Migrations should not run twice, version %d", stats.SchemaVersion)
	}
}

func TestSQLiteLoggerStats(t *testing.T) {
	logger, err := NewLogger(sqliteConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(Record{Level: Info, Event: "set", Path: "a"})
	stats, err := logger.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 1 {
		t.Errorf("Stats should include buffered records, got %d", stats.TotalRecords)
	}
}

func TestBackendSelection(t *testing.T) {
	dir := t.TempDir()

	b, err := createBackend(Config{OutputFile: filepath.Join(dir, "trail.JSONL")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*jsonlBackend); !ok {
		t.Errorf("Expected JSONL backend, got %T", b)
	}
	_ = b.Close()

	b, err = createBackend(Config{OutputFile: filepath.Join(dir, "trail.db")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*sqliteBackend); !ok {
		t.Errorf("Expected SQLite backend, got %T", b)
	}
	_ = b.Close()
}

func TestClosedBackendRejectsWrites(t *testing.T) {
	b, err := newSQLiteBackend(sqliteConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Write([]Record{{Event: "set"}}); err == nil {
		t.Error("Expected error writing to closed backend")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second close should be a no-op: %v", err)
	}
}
