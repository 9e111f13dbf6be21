// event.go: Recorded form of sink notifications
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import "strings"

// EventKind identifies a sink notification.
type EventKind int

const (
	EventSet EventKind = iota + 1
	EventChanged
	EventNotUpdatable
	EventError
	EventRemove
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventChanged:
		return "changed"
	case EventNotUpdatable:
		return "not_updatable"
	case EventError:
		return "error"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one notification together with the path it was reported at.
type Event struct {
	Kind    EventKind
	Path    []string
	Value   string
	Old     string
	New     string
	Default bool
	Err     error
}

// Key returns the path joined with dots.
func (e Event) Key() string { return strings.Join(e.Path, ".") }

// Message returns the plain error message of an error event.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return messageOf(e.Err)
}

// String renders the event in the LoggerSink line format.
func (e Event) String() string {
	var b strings.Builder
	key := e.Key()
	switch e.Kind {
	case EventSet:
		b.WriteString("+" + key + "=" + e.Value)
		if e.Default {
			b.WriteString(" (default)")
		}
	case EventChanged:
		b.WriteString("+" + key + "=" + e.Old + "->" + e.New)
		if e.Default {
			b.WriteString(" (default)")
		}
	case EventNotUpdatable:
		b.WriteString("!" + key + " changed " + e.Old + "->" + e.New + " but will make effect only after RESTART")
	case EventError:
		b.WriteString("!!!" + key + ": " + e.Message())
	case EventRemove:
		b.WriteString("-" + key + "=" + e.Value)
	}
	return b.String()
}

// Replay sends the event to s, pushing and popping its path around it.
func (e Event) Replay(s Sink) {
	for _, k := range e.Path {
		s.Push(k)
	}
	switch e.Kind {
	case EventSet:
		s.Set(e.Value, e.Default)
	case EventChanged:
		s.Changed(e.Old, e.New, e.Default)
	case EventNotUpdatable:
		s.NotUpdatable(e.Old, e.New)
	case EventError:
		s.Error(e.Err)
	case EventRemove:
		s.Remove(e.Value)
	}
	for range e.Path {
		s.Pop()
	}
}

// Recorder keeps every notification in order.
type Recorder struct {
	PathStack
	Events []Event
}

func (r *Recorder) add(e Event) {
	e.Path = r.Path()
	r.Events = append(r.Events, e)
}

func (r *Recorder) Error(err error) { r.add(Event{Kind: EventError, Err: err}) }

func (r *Recorder) NotUpdatable(old, new string) {
	r.add(Event{Kind: EventNotUpdatable, Old: old, New: new})
}

func (r *Recorder) Changed(old, new string, isDefault bool) {
	r.add(Event{Kind: EventChanged, Old: old, New: new, Default: isDefault})
}

func (r *Recorder) Set(value string, isDefault bool) {
	r.add(Event{Kind: EventSet, Value: value, Default: isDefault})
}

func (r *Recorder) Remove(value string) { r.add(Event{Kind: EventRemove, Value: value}) }

// Count returns the number of recorded events of kind k.
func (r *Recorder) Count(k EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// IsError reports whether an error was recorded.
func (r *Recorder) IsError() bool { return r.Count(EventError) > 0 }

// Lines renders all events, one per line, each terminated by a newline.
func (r *Recorder) Lines() string {
	var b strings.Builder
	for _, e := range r.Events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Replay forwards the recorded events to s.
func (r *Recorder) Replay(s Sink) {
	for _, e := range r.Events {
		e.Replay(s)
	}
}

// Reset drops recorded events and the current path.
func (r *Recorder) Reset() {
	r.Events = nil
	r.keys = nil
}
