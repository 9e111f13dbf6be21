// Command handlers for the rcfg CLI
//
// Every document command binds files against the gateway schema from
// internal/demo through a reload.Holder, so the CLI applies exactly the
// rules a running service would.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/rs/zerolog"

	"github.com/dmitryikh/rcfg"
	"github.com/dmitryikh/rcfg/audit"
	loader "github.com/dmitryikh/rcfg/internal/cli"
	"github.com/dmitryikh/rcfg/internal/demo"
	"github.com/dmitryikh/rcfg/logsink"
	"github.com/dmitryikh/rcfg/reload"
)

// Error codes returned by command handlers.
const (
	ErrCodeUsage   = "RCFG_CLI_USAGE"
	ErrCodeInvalid = "RCFG_CLI_INVALID_DOCUMENT"
)

func (m *Manager) newHolder(name string, sinks []rcfg.Sink, strict bool) *reload.Holder[demo.Config] {
	return reload.New[demo.Config](demo.Schema(), reload.Options[demo.Config]{
		Name:          name,
		Logger:        m.logger,
		Sinks:         sinks,
		RejectOnError: strict,
	})
}

// eventSink renders binding events on the command output.
func (m *Manager) eventSink(logFormat string) (rcfg.Sink, error) {
	switch strings.ToLower(logFormat) {
	case "", "text":
		return rcfg.NewLoggerSink(func(line string) { fmt.Fprintln(m.out, line) }), nil
	case "json":
		return logsink.New(zerolog.New(m.out)), nil
	default:
		return nil, errors.New(ErrCodeUsage, fmt.Sprintf("unknown log format %q", logFormat))
	}
}

// handleCheck validates a document and lists every parameter it sets.
func (m *Manager) handleCheck(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if err := requireArgs("check <file>", path); err != nil {
		return err
	}

	doc, err := loader.LoadDocument(path, ctx.GetFlagString("format"), ctx.GetFlagString("env"))
	if err != nil {
		return err
	}
	sink, err := m.eventSink(ctx.GetFlagString("log-format"))
	if err != nil {
		return err
	}

	report, err := m.newHolder(path, []rcfg.Sink{sink}, true).Load(doc)
	if err != nil {
		return errors.Wrap(err, ErrCodeInvalid, fmt.Sprintf("%s: %d invalid parameter(s)", path, report.Errors))
	}

	fmt.Fprintf(m.out, "OK: %s (%d parameters)\n", path, len(report.Events))
	return nil
}

// handleDiff applies the current document, then previews reloading the next
// one and prints every resulting event.
func (m *Manager) handleDiff(ctx *orpheus.Context) error {
	currentPath, nextPath := ctx.GetArg(0), ctx.GetArg(1)
	if err := requireArgs("diff <current> <next>", currentPath, nextPath); err != nil {
		return err
	}

	format, env := ctx.GetFlagString("format"), ctx.GetFlagString("env")
	currentDoc, err := loader.LoadDocument(currentPath, format, env)
	if err != nil {
		return err
	}
	nextDoc, err := loader.LoadDocument(nextPath, format, env)
	if err != nil {
		return err
	}

	holder := m.newHolder(nextPath, nil, ctx.GetFlagBool("strict"))
	initial, err := holder.Load(currentDoc)
	if err == nil && initial.Errors > 0 {
		err = errors.New(ErrCodeInvalid, fmt.Sprintf("%d invalid parameter(s)", initial.Errors))
	}
	if err != nil {
		fmt.Fprint(m.out, initial.Lines())
		return errors.Wrap(err, ErrCodeInvalid, "current document is invalid").
			WithContext("path", currentPath)
	}

	report, err := holder.Load(nextDoc)
	if auditErr := m.recordAudit(nextPath, report); auditErr != nil {
		m.logger.Warn().Err(auditErr).Msg("failed to record audit trail")
	}

	fmt.Fprint(m.out, report.Lines())
	if err != nil {
		return err
	}
	if len(report.Events) == 0 {
		fmt.Fprintln(m.out, "No changes")
		return nil
	}
	fmt.Fprintf(m.out, "%d change(s), %d require restart, %d error(s)\n",
		report.Changes, report.NotUpdatable, report.Errors)
	return nil
}

// recordAudit replays a reload report into the audit trail.
func (m *Manager) recordAudit(source string, report reload.Report) error {
	if m.auditLogger == nil {
		return nil
	}
	sink := audit.NewSink(m.auditLogger, source)
	sink.BeginGeneration(report.Generation)
	for _, e := range report.Events {
		e.Replay(sink)
	}
	return m.auditLogger.Flush()
}

// handleDump prints the effective configuration. Secrets are masked.
func (m *Manager) handleDump(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if err := requireArgs("dump <file>", path); err != nil {
		return err
	}

	output := rcfg.ParseFormat(ctx.GetFlagString("output"))
	if output == rcfg.FormatUnknown {
		return errors.New(ErrCodeUsage, fmt.Sprintf("unknown output format %q", ctx.GetFlagString("output")))
	}

	doc, err := loader.LoadDocument(path, ctx.GetFlagString("format"), ctx.GetFlagString("env"))
	if err != nil {
		return err
	}

	holder := m.newHolder(path, nil, true)
	report, err := holder.Load(doc)
	if err != nil {
		fmt.Fprint(m.out, report.Lines())
		return errors.Wrap(err, ErrCodeInvalid, fmt.Sprintf("%s: %d invalid parameter(s)", path, report.Errors))
	}

	data, err := loader.EncodeDocument(holder.Snapshot(), output)
	if err != nil {
		return err
	}
	_, err = m.out.Write(data)
	return err
}

// handleInit writes the sample gateway configuration.
func (m *Manager) handleInit(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if err := requireArgs("init <file>", path); err != nil {
		return err
	}

	format := loader.ResolveFormat(path, ctx.GetFlagString("format"))
	if _, err := os.Stat(path); err == nil && !ctx.GetFlagBool("force") {
		return errors.New(ErrCodeUsage, fmt.Sprintf("%s already exists, use --force to overwrite", path))
	}

	sample, err := rcfg.ParseJSON([]byte(demo.Sample))
	if err != nil {
		return err
	}
	data, err := loader.EncodeDocument(sample, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, loader.ErrCodeIO, "failed to write sample configuration").
			WithContext("path", path)
	}

	fmt.Fprintf(m.out, "Created %s configuration: %s\n", format, path)
	return nil
}

// handleAuditQuery lists audit records matching the filters.
func (m *Manager) handleAuditQuery(ctx *orpheus.Context) error {
	since, err := parseExtendedDuration(ctx.GetFlagString("since"))
	if err != nil {
		return errors.New(ErrCodeUsage, fmt.Sprintf("invalid time range: %v", err))
	}
	level, err := audit.ParseLevel(ctx.GetFlagString("level"))
	if err != nil {
		return err
	}

	filter := audit.Filter{
		PathPrefix: ctx.GetFlagString("path"),
		Event:      ctx.GetFlagString("event"),
		Generation: ctx.GetFlagString("generation"),
		MinLevel:   level,
		Since:      time.Now().Add(-since),
		Limit:      ctx.GetFlagInt("limit"),
	}

	db := ctx.GetFlagString("db")
	var records []audit.Record
	if strings.HasSuffix(strings.ToLower(db), ".jsonl") {
		records, err = audit.ReadJSONLFile(db, filter)
	} else {
		records, err = queryStore(db, filter)
	}
	if err != nil {
		return err
	}

	for _, r := range records {
		fmt.Fprintln(m.out, formatRecord(r))
	}
	fmt.Fprintf(m.out, "%d record(s)\n", len(records))
	return nil
}

func queryStore(db string, filter audit.Filter) ([]audit.Record, error) {
	store, err := audit.OpenStore(db)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Query(context.Background(), filter)
}

// handleAuditStats summarizes the audit database.
func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	store, err := audit.OpenStore(ctx.GetFlagString("db"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	writeStats(m.out, store.Path(), stats)
	return nil
}
