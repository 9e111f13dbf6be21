// Utility functions for the rcfg CLI
//
// This file provides argument checks, extended duration parsing and the
// plain-text rendering of audit records and statistics.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"

	"github.com/dmitryikh/rcfg/audit"
)

var extendedDuration = regexp.MustCompile(`^(\d+)(d|w)$`)

// requireArgs fails with the usage line when any positional argument is empty.
func requireArgs(usage string, args ...string) error {
	for _, a := range args {
		if a == "" {
			return errors.New(ErrCodeUsage, "usage: rcfg "+usage)
		}
	}
	return nil
}

// parseExtendedDuration parses duration strings with extended units (d, w).
// Supports all Go standard units (ns, us, ms, s, m, h) plus:
// - d: days (24 hours)
// - w: weeks (7 days)
//
// Examples: "30d", "2w", "7d", "24h", "5m", "30s"
func parseExtendedDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	matches := extendedDuration.FindStringSubmatch(s)
	if len(matches) != 3 {
		_, err := time.ParseDuration(s)
		return 0, err
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", matches[1])
	}

	switch matches[2] {
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	}
}

// formatRecord renders one audit record per line.
func formatRecord(r audit.Record) string {
	var b strings.Builder
	b.WriteString(r.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " %-8s %-13s %s", r.Level, r.Event, r.Path)
	switch {
	case r.OldValue != "" && r.NewValue != "":
		fmt.Fprintf(&b, " %s->%s", r.OldValue, r.NewValue)
	case r.NewValue != "":
		fmt.Fprintf(&b, " =%s", r.NewValue)
	case r.OldValue != "":
		fmt.Fprintf(&b, " -%s", r.OldValue)
	}
	if r.Default {
		b.WriteString(" (default)")
	}
	if r.Message != "" {
		fmt.Fprintf(&b, " %q", r.Message)
	}
	if r.Generation != "" {
		fmt.Fprintf(&b, " gen=%s", r.Generation)
	}
	if !audit.Verify(r) {
		b.WriteString(" [CHECKSUM MISMATCH]")
	}
	return b.String()
}

func writeStats(w io.Writer, path string, s *audit.Stats) {
	fmt.Fprintf(w, "Database:       %s\n", path)
	fmt.Fprintf(w, "Schema version: %d\n", s.SchemaVersion)
	fmt.Fprintf(w, "Records:        %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Generations:    %d\n", s.Generations)
	if s.TotalRecords > 0 {
		fmt.Fprintf(w, "Oldest:         %s\n", s.OldestRecord.Format(time.RFC3339))
		fmt.Fprintf(w, "Newest:         %s\n", s.NewestRecord.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Size:           %d bytes\n", s.StorageBytes)
	writeCounts(w, "By level", s.RecordsByLevel)
	writeCounts(w, "By event", s.RecordsByEvent)
}

func writeCounts(w io.Writer, title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-14s %d\n", k, counts[k])
	}
}
