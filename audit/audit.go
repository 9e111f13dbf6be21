// audit.go: Audit trail of configuration decisions
//
// Every event reported while binding a configuration document can be kept
// as a tamper-evident audit record, so operators can answer what changed,
// when, and which reload did it.
//
// Features:
// - Buffered writes with background flushing
// - SHA-256 checksums for tamper detection
// - SQLite (queryable) and JSONL (grep-able) backends
// - Level filtering
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package audit records configuration events produced by rcfg schemas.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// Error codes returned by this package.
const (
	ErrCodeInvalidConfig = "RCFG_AUDIT_INVALID_CONFIG"
	ErrCodeBackend       = "RCFG_AUDIT_BACKEND_ERROR"
	ErrCodeClosed        = "RCFG_AUDIT_CLOSED"
	ErrCodeQuery         = "RCFG_AUDIT_QUERY_ERROR"
)

// Level is the severity of an audit record.
type Level int

const (
	Info Level = iota
	Warn
	Critical
	Security
)

func (l Level) String() string {
	switch l {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Critical:
		return "CRITICAL"
	case Security:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel is the inverse of Level.String, case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "CRITICAL", "ERROR":
		return Critical, nil
	case "SECURITY":
		return Security, nil
	}
	return Info, errors.New(ErrCodeInvalidConfig, "unknown audit level").WithContext("level", s)
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Record is a single audited event.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Level       Level     `json:"level"`
	Event       string    `json:"event"`
	Component   string    `json:"component"`
	Source      string    `json:"source,omitempty"`
	Path        string    `json:"path,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Default     bool      `json:"default,omitempty"`
	Message     string    `json:"message,omitempty"`
	Code        string    `json:"code,omitempty"`
	Generation  string    `json:"generation,omitempty"`
	ProcessID   int       `json:"process_id"`
	ProcessName string    `json:"process_name"`
	Checksum    string    `json:"checksum"`
}

// Checksum computes the tamper-detection hash of r.
func Checksum(r Record) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%t:%s:%s",
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Event, r.Component, r.Source, r.Path,
		r.OldValue, r.NewValue, r.Default, r.Message, r.Generation)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether r still matches its checksum.
func Verify(r Record) bool { return r.Checksum != "" && r.Checksum == Checksum(r) }

// Config configures the audit logger.
type Config struct {
	Enabled bool `json:"enabled"`
	// OutputFile selects the backend: a .jsonl file uses JSONL, anything
	// else is a SQLite database (DefaultDatabasePath when empty).
	OutputFile    string        `json:"output_file"`
	MinLevel      Level         `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
	// Component tags every record, typically the service name.
	Component string `json:"component"`
	// RetentionDays bounds SQLite history; 0 keeps everything.
	RetentionDays int `json:"retention_days"`
}

// DefaultConfig returns an enabled configuration using the shared SQLite
// database.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MinLevel:      Info,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		Component:     "rcfg",
		RetentionDays: 90,
	}
}

// DefaultDatabasePath is where records go when no OutputFile is set.
func DefaultDatabasePath() string {
	return filepath.Join(os.TempDir(), "rcfg", "audit.db")
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.Component == "" {
		c.Component = d.Component
	}
	return c
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	if c.BufferSize < 0 {
		return errors.New(ErrCodeInvalidConfig, "buffer size cannot be negative").
			WithContext("buffer_size", c.BufferSize)
	}
	if c.FlushInterval < 0 {
		return errors.New(ErrCodeInvalidConfig, "flush interval cannot be negative").
			WithContext("flush_interval", c.FlushInterval.String())
	}
	if c.RetentionDays < 0 {
		return errors.New(ErrCodeInvalidConfig, "retention cannot be negative").
			WithContext("retention_days", c.RetentionDays)
	}
	if c.MinLevel < Info || c.MinLevel > Security {
		return errors.New(ErrCodeInvalidConfig, "invalid minimum level").
			WithContext("min_level", int(c.MinLevel))
	}
	return nil
}

// Logger buffers records and writes them to a backend.
type Logger struct {
	config      Config
	backend     backend
	buffer      []Record
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closeOnce   sync.Once
	processID   int
	processName string
}

// NewLogger opens the configured backend and starts the background flusher.
func NewLogger(config Config) (*Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	b, err := createBackend(config)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		config:      config,
		backend:     b,
		buffer:      make([]Record, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: filepath.Base(os.Args[0]),
	}
	if config.FlushInterval > 0 {
		l.flushTicker = time.NewTicker(config.FlushInterval)
		go l.flushLoop()
	}
	return l, nil
}

// Log stamps and buffers r. Records below MinLevel are dropped.
func (l *Logger) Log(r Record) {
	if l == nil || l.backend == nil || !l.config.Enabled || r.Level < l.config.MinLevel {
		return
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = timecache.CachedTime()
	}
	if r.Component == "" {
		r.Component = l.config.Component
	}
	r.ProcessID = l.processID
	r.ProcessName = l.processName
	r.Checksum = Checksum(r)

	l.bufferMu.Lock()
	l.buffer = append(l.buffer, r)
	if len(l.buffer) >= l.config.BufferSize {
		_ = l.flushBufferUnsafe()
	}
	l.bufferMu.Unlock()
}

// Flush writes buffered records now.
func (l *Logger) Flush() error {
	l.bufferMu.Lock()
	defer l.bufferMu.Unlock()
	return l.flushBufferUnsafe()
}

// Stats reports backend statistics after flushing pending records.
func (l *Logger) Stats() (*Stats, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}
	return l.backend.Stats()
}

// Close flushes and releases the backend. It is safe to call twice.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.stopCh)
		if l.flushTicker != nil {
			l.flushTicker.Stop()
		}
		if ferr := l.Flush(); ferr != nil {
			err = ferr
			_ = l.backend.Close()
			return
		}
		if cerr := l.backend.Close(); cerr != nil {
			err = errors.Wrap(cerr, ErrCodeBackend, "failed to close audit backend")
		}
	})
	return err
}

func (l *Logger) flushLoop() {
	for {
		select {
		case <-l.flushTicker.C:
			_ = l.Flush()
		case <-l.stopCh:
			return
		}
	}
}

// flushBufferUnsafe requires bufferMu.
func (l *Logger) flushBufferUnsafe() error {
	if len(l.buffer) == 0 {
		return nil
	}
	if err := l.backend.Write(l.buffer); err != nil {
		return errors.Wrap(err, ErrCodeBackend, "failed to write audit records")
	}
	l.buffer = l.buffer[:0]
	return nil
}
