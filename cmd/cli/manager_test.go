// Tests for the CLI manager and its helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agilira/go-errors"

	"github.com/dmitryikh/rcfg/audit"
)

// TestNewManager verifies proper initialization of the CLI manager.
func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.app == nil {
		t.Fatal("Manager.app not initialized")
	}
	if manager.out != os.Stdout {
		t.Error("Manager should write to stdout by default")
	}
	if manager.auditLogger != nil {
		t.Error("Manager.auditLogger should be nil by default")
	}
}

// TestManagerWithAudit verifies the fluent audit setter.
func TestManagerWithAudit(t *testing.T) {
	cfg := audit.DefaultConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "manager_audit.jsonl")
	cfg.FlushInterval = 0

	auditLogger, err := audit.NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			t.Logf("Failed to close auditLogger: %v", err)
		}
	}()

	baseManager := NewManager()
	manager := baseManager.WithAudit(auditLogger)
	if manager != baseManager {
		t.Error("WithAudit() should return the same manager for chaining")
	}
	if manager.auditLogger == nil {
		t.Error("WithAudit() did not set audit logger")
	}
}

func TestHelpAndVersion(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"--version"}} {
		if err := NewManager().WithOutput(&strings.Builder{}).Run(args); err != nil {
			t.Errorf("Run(%v) failed: %v", args, err)
		}
	}
}

func TestParseExtendedDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"30s", 30 * time.Second, false},
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"30x", 0, true},
		{"d", 0, true},
	}
	for _, tt := range tests {
		got, err := parseExtendedDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseExtendedDuration(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseExtendedDuration(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("parseExtendedDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestRequireArgs(t *testing.T) {
	if err := requireArgs("diff <a> <b>", "x", "y"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	err := requireArgs("diff <a> <b>", "x", "")
	if err == nil {
		t.Fatal("Expected usage error")
	}
	if coder, ok := err.(errors.ErrorCoder); !ok || string(coder.ErrorCode()) != ErrCodeUsage {
		t.Errorf("Expected %s, got %v", ErrCodeUsage, err)
	}
	if !strings.Contains(err.Error(), "usage: rcfg diff <a> <b>") {
		t.Errorf("Usage line missing from %q", err.Error())
	}
}

func TestFormatRecord(t *testing.T) {
	r := audit.Record{
		Timestamp:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Level:      audit.Warn,
		Event:      "not_updatable",
		Path:       "server.port",
		OldValue:   "80",
		NewValue:   "81",
		Generation: "g1",
	}
	r.Checksum = audit.Checksum(r)

	line := formatRecord(r)
	for _, want := range []string{"2025-05-01T10:00:00Z", "WARN", "not_updatable", "server.port 80->81", "gen=g1"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "MISMATCH") {
		t.Errorf("Valid record flagged: %q", line)
	}

	r.NewValue = "82"
	if !strings.Contains(formatRecord(r), "[CHECKSUM MISMATCH]") {
		t.Error("Tampered record should be flagged")
	}
}
