// doc.go: Package documentation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package rcfg binds untyped configuration documents to typed Go values and
// reconciles later documents against the live value, field by field.
//
// # Schemas
//
// A schema is assembled from five binding rules: NewField for scalars,
// NewObject for structs, NewSequence for slices, NewMap for maps and
// NewOrderedSet/NewSet for deduplicated sets. Every rule implements the same
// Parse, Dump and Remove protocol, so rules nest freely:
//
//	schema := rcfg.NewObject(
//		rcfg.Bind("port", func(c *Config) *int { return &c.Port },
//			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
//				Default:    rcfg.Ptr(8080),
//				Validators: []rcfg.Validator[int]{rcfg.Bounds(1, 65535)},
//			})),
//		rcfg.Bind("workers", func(c *Config) *int { return &c.Workers },
//			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{Updatable: true})),
//	)
//
// # Initial load and update
//
// Parse with isUpdate false fills the target from scratch and applies
// defaults. Parse with isUpdate true compares the document with the current
// target: updatable parameters change in place, restart-only parameters keep
// their value and are reported as NotUpdatable, and invalid values are
// reported as errors while the previous value stays.
//
// # Sinks
//
// Every decision taken during a traversal is reported to a Sink: Set,
// Changed, NotUpdatable, Error and Remove, bracketed by Push and Pop for the
// parameter path. LoggerSink renders the one-line text format and Recorder
// keeps events for later replay, as DryRun does. The audit,
// logsink and metrics packages provide further sinks, and package reload
// wraps a schema and its target in a concurrency-safe Holder.
//
// # Documents
//
// Node is an ordered document tree. ParseJSON, ParseYAML and ParseDocument
// build one from bytes, FromValue from plain Go data; EncodeJSON and
// EncodeYAML write one back. DumpNode renders a bound value with secret
// parameters masked.
//
// The engine itself performs no I/O and takes no locks; callers serialize
// access to a target.
package rcfg
