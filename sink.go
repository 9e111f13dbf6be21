// sink.go: Observer protocol notified of every decision taken while parsing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import "strings"

// Sink receives the events produced by Parse and Remove. Push and Pop
// bracket nested keys; every other notification refers to the current path.
//
// Implementations that only care about a few events can embed NopSink.
type Sink interface {
	Push(key string)
	Pop()

	// Error reports a rejected value. err is usually a *ParamError.
	Error(err error)
	// NotUpdatable reports a change to a parameter that only takes effect
	// after a restart. The parameter keeps its old value.
	NotUpdatable(old, new string)
	Changed(old, new string, isDefault bool)
	Set(value string, isDefault bool)
	// Remove reports a value dropped from a collection during an update.
	Remove(value string)
}

// NopSink ignores every notification.
type NopSink struct{}

func (NopSink) Push(string)                  {}
func (NopSink) Pop()                         {}
func (NopSink) Error(error)                  {}
func (NopSink) NotUpdatable(string, string)  {}
func (NopSink) Changed(string, string, bool) {}
func (NopSink) Set(string, bool)             {}
func (NopSink) Remove(string)                {}

// PathStack tracks the current parameter path. Sinks embed it to get Push
// and Pop for free.
type PathStack struct {
	keys []string
}

func (p *PathStack) Push(key string) { p.keys = append(p.keys, key) }

func (p *PathStack) Pop() {
	if len(p.keys) > 0 {
		p.keys = p.keys[:len(p.keys)-1]
	}
}

// Path returns a copy of the current path segments.
func (p *PathStack) Path() []string {
	return append([]string(nil), p.keys...)
}

// Key returns the current path joined with dots.
func (p *PathStack) Key() string { return strings.Join(p.keys, ".") }

// Depth returns the number of segments on the stack.
func (p *PathStack) Depth() int { return len(p.keys) }

// CountingSink counts notifications by kind. It is what a silent dry run
// uses to find out whether a document would be accepted.
type CountingSink struct {
	NopSink
	Errors        int
	NotUpdatables int
	Changes       int
	Sets          int
	Removes       int
}

func (c *CountingSink) Error(error)                  { c.Errors++ }
func (c *CountingSink) NotUpdatable(string, string)  { c.NotUpdatables++ }
func (c *CountingSink) Changed(string, string, bool) { c.Changes++ }
func (c *CountingSink) Set(string, bool)             { c.Sets++ }
func (c *CountingSink) Remove(string)                { c.Removes++ }

// IsError reports whether any Error notification was received.
func (c *CountingSink) IsError() bool { return c.Errors > 0 }

// Total returns the number of events received.
func (c *CountingSink) Total() int {
	return c.Errors + c.NotUpdatables + c.Changes + c.Sets + c.Removes
}

// LogFunc receives one rendered event line.
type LogFunc func(line string)

// LoggerSink renders every event as a single line:
//
//	+path=value (default)
//	+path=old->new
//	!path changed old->new but will make effect only after RESTART
//	!!!path: message
//	-path=value
//
// Warnings and errors go to their own functions when set, otherwise to Info.
type LoggerSink struct {
	PathStack
	Info    LogFunc
	Warning LogFunc
	Err     LogFunc

	isError bool
}

// NewLoggerSink returns a sink sending every line to info.
func NewLoggerSink(info LogFunc) *LoggerSink {
	return &LoggerSink{Info: info}
}

func (l *LoggerSink) emit(f LogFunc, e Event) {
	if f == nil {
		f = l.Info
	}
	if f != nil {
		f(e.String())
	}
}

func (l *LoggerSink) Error(err error) {
	l.isError = true
	l.emit(l.Err, Event{Kind: EventError, Path: l.keys, Err: err})
}

func (l *LoggerSink) NotUpdatable(old, new string) {
	l.emit(l.Warning, Event{Kind: EventNotUpdatable, Path: l.keys, Old: old, New: new})
}

func (l *LoggerSink) Changed(old, new string, isDefault bool) {
	l.emit(l.Info, Event{Kind: EventChanged, Path: l.keys, Old: old, New: new, Default: isDefault})
}

func (l *LoggerSink) Set(value string, isDefault bool) {
	l.emit(l.Info, Event{Kind: EventSet, Path: l.keys, Value: value, Default: isDefault})
}

func (l *LoggerSink) Remove(value string) {
	l.emit(l.Info, Event{Kind: EventRemove, Path: l.keys, Value: value})
}

// IsError reports whether any Error notification was received.
func (l *LoggerSink) IsError() bool { return l.isError }

type teeSink []Sink

// Tee forwards every notification to all sinks in order.
func Tee(sinks ...Sink) Sink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t teeSink) Push(key string) {
	for _, s := range t {
		s.Push(key)
	}
}

func (t teeSink) Pop() {
	for _, s := range t {
		s.Pop()
	}
}

func (t teeSink) Error(err error) {
	for _, s := range t {
		s.Error(err)
	}
}

func (t teeSink) NotUpdatable(old, new string) {
	for _, s := range t {
		s.NotUpdatable(old, new)
	}
}

func (t teeSink) Changed(old, new string, isDefault bool) {
	for _, s := range t {
		s.Changed(old, new, isDefault)
	}
}

func (t teeSink) Set(value string, isDefault bool) {
	for _, s := range t {
		s.Set(value, isDefault)
	}
}

func (t teeSink) Remove(value string) {
	for _, s := range t {
		s.Remove(value)
	}
}
