// sink.go: rcfg.Sink that turns binding events into audit records
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package audit

import (
	stderrors "errors"

	"github.com/agilira/go-errors"

	"github.com/dmitryikh/rcfg"
)

// Sink records every event reported by a schema. Set, Changed and Remove
// are INFO, NotUpdatable is WARN and Error is CRITICAL.
type Sink struct {
	rcfg.PathStack
	logger     *Logger
	source     string
	generation string
}

// NewSink returns a Sink writing to logger. source names the document being
// applied (usually a file path) and may be empty.
func NewSink(logger *Logger, source string) *Sink {
	return &Sink{logger: logger, source: source}
}

// BeginGeneration tags subsequent records with a reload generation id.
func (s *Sink) BeginGeneration(id string) { s.generation = id }

// Generation returns the id set by BeginGeneration.
func (s *Sink) Generation() string { return s.generation }

func (s *Sink) log(r Record) {
	r.Source = s.source
	r.Path = s.Key()
	r.Generation = s.generation
	s.logger.Log(r)
}

func (s *Sink) Error(err error) {
	r := Record{Level: Critical, Event: rcfg.EventError.String()}
	if err != nil {
		r.Message = err.Error()
		r.Code = codeOf(err)
	}
	s.log(r)
}

func (s *Sink) NotUpdatable(old, new string) {
	s.log(Record{
		Level:    Warn,
		Event:    rcfg.EventNotUpdatable.String(),
		OldValue: old,
		NewValue: new,
		Message:  "takes effect after restart",
	})
}

func (s *Sink) Changed(old, new string, isDefault bool) {
	s.log(Record{
		Level:    Info,
		Event:    rcfg.EventChanged.String(),
		OldValue: old,
		NewValue: new,
		Default:  isDefault,
	})
}

func (s *Sink) Set(value string, isDefault bool) {
	s.log(Record{Level: Info, Event: rcfg.EventSet.String(), NewValue: value, Default: isDefault})
}

func (s *Sink) Remove(value string) {
	s.log(Record{Level: Info, Event: rcfg.EventRemove.String(), OldValue: value})
}

func codeOf(err error) string {
	var coder errors.ErrorCoder
	if stderrors.As(err, &coder) {
		return string(coder.ErrorCode())
	}
	return ""
}
