// logsink.go: rcfg.Sink that writes binding events to a zerolog logger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package logsink reports rcfg binding events as structured log lines.
package logsink

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
	"github.com/rs/zerolog"

	"github.com/dmitryikh/rcfg"
)

// Sink logs Set, Changed and Remove at info, NotUpdatable at warn and Error
// at error. Every line carries the parameter path in the "path" field.
type Sink struct {
	rcfg.PathStack
	logger     zerolog.Logger
	generation string
	errors     int
}

// New returns a Sink writing to logger.
func New(logger zerolog.Logger) *Sink {
	return &Sink{logger: logger}
}

// BeginGeneration adds a "generation" field to subsequent lines.
func (s *Sink) BeginGeneration(id string) { s.generation = id }

// Errors returns how many errors were logged.
func (s *Sink) Errors() int { return s.errors }

func (s *Sink) with(e *zerolog.Event) *zerolog.Event {
	e = e.Str("path", s.Key())
	if s.generation != "" {
		e = e.Str("generation", s.generation)
	}
	return e
}

func (s *Sink) Error(err error) {
	s.errors++
	e := s.with(s.logger.Error()).Err(err)
	if kind, ok := rcfg.KindOf(err); ok {
		e = e.Str("kind", kind.String())
	}
	var coder errors.ErrorCoder
	if stderrors.As(err, &coder) {
		e = e.Str("code", string(coder.ErrorCode()))
	}
	e.Msg("invalid parameter")
}

func (s *Sink) NotUpdatable(old, new string) {
	s.with(s.logger.Warn()).
		Str("old", old).
		Str("new", new).
		Msg("parameter changed but takes effect only after restart")
}

func (s *Sink) Changed(old, new string, isDefault bool) {
	s.with(s.logger.Info()).
		Str("old", old).
		Str("new", new).
		Bool("default", isDefault).
		Msg("parameter changed")
}

func (s *Sink) Set(value string, isDefault bool) {
	s.with(s.logger.Info()).
		Str("value", value).
		Bool("default", isDefault).
		Msg("parameter set")
}

func (s *Sink) Remove(value string) {
	s.with(s.logger.Info()).Str("value", value).Msg("parameter removed")
}
