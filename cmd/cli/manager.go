// Package cli provides the rcfg command-line interface.
//
// The command validates configuration documents against a schema, shows
// what a reload would change, dumps the effective configuration and reads
// back the audit trail, all on top of the Orpheus framework.
//
// Architecture:
// - Manager: command registration and shared state
// - Handlers: one function per command
// - Utils: argument checks and output formatting
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/rs/zerolog"

	"github.com/dmitryikh/rcfg/audit"
)

// Version of the rcfg command.
const Version = "1.0.0"

// Manager wires the rcfg commands to their handlers.
type Manager struct {
	app         *orpheus.App
	out         io.Writer
	logger      zerolog.Logger
	auditLogger *audit.Logger // optional, records diff results
}

// NewManager creates a Manager writing results to stdout.
func NewManager() *Manager {
	app := orpheus.New("rcfg").
		SetDescription("Typed configuration checks, reload previews and audit trail").
		SetVersion(Version)

	m := &Manager{
		app:    app,
		out:    os.Stdout,
		logger: zerolog.Nop(),
	}

	m.setupDocumentCommands()
	m.setupAuditCommands()
	return m
}

// WithOutput redirects command results to w.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// WithLogger sets the logger used for reload lifecycle messages.
func (m *Manager) WithLogger(logger zerolog.Logger) *Manager {
	m.logger = logger
	return m
}

// WithAudit records every diff into auditLogger.
func (m *Manager) WithAudit(auditLogger *audit.Logger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// Run executes the command line in args (without the program name).
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupDocumentCommands registers commands working on configuration files.
func (m *Manager) setupDocumentCommands() {
	// check <file>
	checkCmd := orpheus.NewCommand("check", "Validate a configuration document").
		AddFlag("format", "f", "auto", "Document format (auto|json|yaml)").
		AddFlag("env", "e", "", "Overlay environment variables with this prefix").
		AddFlag("log-format", "l", "text", "Event output (text|json)").
		SetHandler(m.handleCheck)
	m.app.AddCommand(checkCmd)

	// diff <current> <next>
	diffCmd := orpheus.NewCommand("diff", "Show what reloading a new document would change").
		AddFlag("format", "f", "auto", "Document format (auto|json|yaml)").
		AddFlag("env", "e", "", "Overlay environment variables with this prefix").
		SetHandler(m.handleDiff)
	diffCmd.AddBoolFlag("strict", "s", false, "Fail when the new document has errors")
	m.app.AddCommand(diffCmd)

	// dump <file>
	dumpCmd := orpheus.NewCommand("dump", "Print the effective configuration with defaults applied").
		AddFlag("format", "f", "auto", "Document format (auto|json|yaml)").
		AddFlag("env", "e", "", "Overlay environment variables with this prefix").
		AddFlag("output", "o", "json", "Output format (json|yaml)").
		SetHandler(m.handleDump)
	m.app.AddCommand(dumpCmd)

	// init <file>
	initCmd := orpheus.NewCommand("init", "Write a sample configuration document").
		AddFlag("format", "f", "auto", "Output format (auto|json|yaml)").
		SetHandler(m.handleInit)
	initCmd.AddBoolFlag("force", "", false, "Overwrite an existing file")
	m.app.AddCommand(initCmd)
}

// setupAuditCommands registers the audit trail readers.
func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail inspection")

	queryCmd := auditCmd.Subcommand("query", "Query audit records", m.handleAuditQuery)
	queryCmd.AddFlag("db", "d", "", "Audit database or .jsonl file (default: shared database)")
	queryCmd.AddFlag("since", "s", "24h", "Time range (e.g., 24h, 7d, 2w)")
	queryCmd.AddFlag("event", "e", "", "Event filter (set|changed|not_updatable|error|remove)")
	queryCmd.AddFlag("path", "p", "", "Parameter path prefix")
	queryCmd.AddFlag("generation", "g", "", "Reload generation id")
	queryCmd.AddFlag("level", "", "info", "Minimum level (info|warn|critical|security)")
	queryCmd.AddIntFlag("limit", "l", 100, "Maximum results")

	statsCmd := auditCmd.Subcommand("stats", "Summarize the audit trail", m.handleAuditStats)
	statsCmd.AddFlag("db", "d", "", "Audit database (default: shared database)")

	m.app.AddCommand(auditCmd)
}
