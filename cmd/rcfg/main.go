// rcfg command: validate, diff and dump configuration documents
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dmitryikh/rcfg/audit"
	"github.com/dmitryikh/rcfg/cmd/cli"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
	if os.Getenv("RCFG_DEBUG") != "" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	manager := cli.NewManager().WithLogger(logger)

	// RCFG_AUDIT names a database or .jsonl file that records every diff.
	if out := os.Getenv("RCFG_AUDIT"); out != "" {
		cfg := audit.DefaultConfig()
		cfg.OutputFile = out
		cfg.Component = "rcfg-cli"
		auditLogger, err := audit.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := auditLogger.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close audit logger")
			}
		}()
		manager.WithAudit(auditLogger)
	}

	return manager.Run(args)
}
