// holder.go: Serialized load and reload of a bound configuration value
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package reload keeps a configuration value current across document
// reloads. Updates are parsed into a private copy and published atomically,
// so readers never observe a half-applied document.
package reload

import (
	"os"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmitryikh/rcfg"
)

// Error codes returned by this package.
const (
	ErrCodeRejected = "RCFG_RELOAD_REJECTED"
	ErrCodeSource   = "RCFG_RELOAD_SOURCE_ERROR"
)

// GenerationSink is implemented by sinks that tag events with the id of the
// load attempt producing them.
type GenerationSink interface {
	BeginGeneration(id string)
}

// Observer receives the outcome of every load attempt.
type Observer interface {
	ObserveReload(applied bool, took time.Duration)
}

// Options configures a Holder.
type Options[T any] struct {
	// Name identifies the configuration in log lines.
	Name   string
	Logger zerolog.Logger
	// Sinks receive every binding event, in order.
	Sinks    []rcfg.Sink
	Observer Observer
	// RejectOnError discards a document that produced any error and keeps
	// the current value. Otherwise invalid parameters keep their previous
	// value and the rest of the document is applied.
	RejectOnError bool
	// Clone copies the current value before an update is parsed into it.
	// The default deep-copies slices, maps and pointers reachable through
	// exported fields.
	Clone func(T) T
}

// Report describes one load attempt.
type Report struct {
	Generation   string
	Initial      bool
	Applied      bool
	Events       []rcfg.Event
	Errors       int
	NotUpdatable int
	Changes      int
	Took         time.Duration
}

// Changed reports whether the published value differs from the previous
// one. The first successful load always counts as a change.
func (r Report) Changed() bool { return r.Applied && (r.Initial || r.Changes > 0) }

// Lines renders the report events one per line.
func (r Report) Lines() string {
	rec := rcfg.Recorder{Events: r.Events}
	return rec.Lines()
}

// Holder owns a configuration value bound by a schema.
type Holder[T any] struct {
	schema rcfg.Schema[T]
	opts   Options[T]

	loadMu sync.Mutex // serializes Load

	mu         sync.RWMutex
	current    T
	generation string
	loaded     bool
	onChange   []func(old, new T)
}

// New returns an empty Holder. Call Load before Get.
func New[T any](schema rcfg.Schema[T], opts Options[T]) *Holder[T] {
	if opts.Name == "" {
		opts.Name = "config"
	}
	if opts.Clone == nil {
		opts.Clone = DeepCopy[T]
	}
	return &Holder[T]{schema: schema, opts: opts}
}

// Get returns the current value. Treat it as read-only.
func (h *Holder[T]) Get() T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Loaded reports whether a document has been applied.
func (h *Holder[T]) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// Generation returns the id of the load that produced the current value.
func (h *Holder[T]) Generation() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation
}

// OnChange registers fn to run after a load that changed the value.
func (h *Holder[T]) OnChange(fn func(old, new T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Snapshot dumps the current value. Secrets are masked.
func (h *Holder[T]) Snapshot() *rcfg.Node {
	return rcfg.DumpNode(h.schema, h.Get())
}

// Load applies doc. The first successful call is an initial load, later
// calls are updates.
func (h *Holder[T]) Load(doc *rcfg.Node) (Report, error) {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()

	start := time.Now()
	id := uuid.NewString()

	h.mu.RLock()
	isUpdate := h.loaded
	var next T
	if isUpdate {
		next = h.opts.Clone(h.current)
	}
	h.mu.RUnlock()

	rec := &rcfg.Recorder{}
	sinks := make([]rcfg.Sink, 0, len(h.opts.Sinks)+1)
	sinks = append(sinks, rec)
	for _, s := range h.opts.Sinks {
		if g, ok := s.(GenerationSink); ok {
			g.BeginGeneration(id)
		}
		sinks = append(sinks, s)
	}

	h.schema.Parse(rcfg.Tee(sinks...), &next, doc, isUpdate)

	report := Report{
		Generation:   id,
		Initial:      !isUpdate,
		Events:       rec.Events,
		Errors:       rec.Count(rcfg.EventError),
		NotUpdatable: rec.Count(rcfg.EventNotUpdatable),
		Changes:      rec.Count(rcfg.EventChanged) + rec.Count(rcfg.EventRemove),
	}
	// Sets during an update come from new collection elements.
	report.Changes += rec.Count(rcfg.EventSet)

	if report.Errors > 0 && h.opts.RejectOnError {
		report.Took = time.Since(start)
		h.observe(false, report.Took)
		h.opts.Logger.Error().
			Str("name", h.opts.Name).
			Str("generation", id).
			Int("errors", report.Errors).
			Msg("configuration rejected, keeping current value")
		return report, errors.New(ErrCodeRejected, "configuration document rejected").
			WithContext("name", h.opts.Name).
			WithContext("generation", id).
			WithContext("errors", report.Errors)
	}

	h.mu.Lock()
	old := h.current
	h.current = next
	h.generation = id
	h.loaded = true
	callbacks := append([]func(old, new T){}, h.onChange...)
	h.mu.Unlock()

	report.Applied = true
	report.Took = time.Since(start)
	h.observe(true, report.Took)

	level := zerolog.InfoLevel
	if report.Errors > 0 {
		level = zerolog.WarnLevel
	}
	h.opts.Logger.WithLevel(level).
		Str("name", h.opts.Name).
		Str("generation", id).
		Bool("initial", report.Initial).
		Int("changes", report.Changes).
		Int("errors", report.Errors).
		Int("not_updatable", report.NotUpdatable).
		Dur("took", report.Took).
		Msg("configuration applied")

	if report.Changed() {
		for _, fn := range callbacks {
			fn(old, next)
		}
	}
	return report, nil
}

// LoadBytes parses data in the given format and applies it.
func (h *Holder[T]) LoadBytes(data []byte, format rcfg.Format) (Report, error) {
	doc, err := rcfg.ParseDocument(data, format)
	if err != nil {
		h.opts.Logger.Error().Err(err).Str("name", h.opts.Name).Msg("configuration document is invalid")
		return Report{}, err
	}
	return h.Load(doc)
}

// LoadFile reads path, detects its format from the extension and applies it.
func (h *Holder[T]) LoadFile(path string) (Report, error) {
	// #nosec G304 -- path comes from the caller
	data, err := os.ReadFile(path)
	if err != nil {
		h.opts.Logger.Error().Err(err).Str("path", path).Msg("failed to read configuration")
		return Report{}, errors.Wrap(err, ErrCodeSource, "failed to read configuration file").
			WithContext("path", path)
	}
	return h.LoadBytes(data, rcfg.DetectFormat(path))
}

func (h *Holder[T]) observe(applied bool, took time.Duration) {
	if h.opts.Observer != nil {
		h.opts.Observer.ObserveReload(applied, took)
	}
}
