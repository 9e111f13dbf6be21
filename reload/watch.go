// watch.go: Polling file watcher that reloads a Holder on change
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// Watcher error codes.
const (
	ErrCodeWatcherBusy    = "RCFG_RELOAD_WATCHER_BUSY"
	ErrCodeWatcherStopped = "RCFG_RELOAD_WATCHER_STOPPED"
	ErrCodeFileRemoved    = "RCFG_RELOAD_FILE_REMOVED"
)

// DefaultPollInterval balances responsiveness against stat overhead.
const DefaultPollInterval = 5 * time.Second

// ErrorHandler receives failures met while polling or reloading path.
type ErrorHandler func(err error, path string)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// PollInterval is how often the file is checked. Default: 5 seconds.
	PollInterval time.Duration
	// OnError is called for stat, read and rejected-document failures.
	OnError ErrorHandler
	// OnReload is called after every load attempt triggered by a change.
	OnReload func(Report)
}

type fileStat struct {
	modTime   time.Time
	size      int64
	exists    bool
	checkedAt int64
}

func (s fileStat) differs(o fileStat) bool {
	return s.exists != o.exists || !s.modTime.Equal(o.modTime) || s.size != o.size
}

// Watcher polls one file and loads it into a Holder whenever its
// modification time or size changes.
type Watcher[T any] struct {
	holder *Holder[T]
	path   string
	opts   WatchOptions

	last      fileStat
	running   atomic.Bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewWatcher returns a stopped watcher for path. The file state seen now is
// the baseline, so a document already loaded into h is not loaded again.
func NewWatcher[T any](h *Holder[T], path string, opts WatchOptions) *Watcher[T] {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	w := &Watcher[T]{holder: h, path: path, opts: opts}
	w.last, _ = w.stat()
	return w
}

func (w *Watcher[T]) stat() (fileStat, error) {
	info, err := os.Stat(w.path)
	st := fileStat{checkedAt: timecache.CachedTimeNano(), exists: err == nil}
	if err == nil {
		st.modTime = info.ModTime()
		st.size = info.Size()
	}
	return st, err
}

// LastChecked returns when the file was last examined. It is not
// synchronized with a running loop.
func (w *Watcher[T]) LastChecked() time.Time {
	return time.Unix(0, w.last.checkedAt)
}

// Poll checks the file once and reloads it when it changed. It reports
// whether a load was attempted.
func (w *Watcher[T]) Poll() bool {
	current, err := w.stat()
	if err != nil && !os.IsNotExist(err) {
		w.fail(errors.Wrap(err, ErrCodeSource, "failed to stat configuration file").
			WithContext("path", w.path))
		return false
	}
	if !current.differs(w.last) {
		w.last.checkedAt = current.checkedAt
		return false
	}
	w.last = current

	if !current.exists {
		// The current value stays published until the file comes back.
		w.fail(errors.New(ErrCodeFileRemoved, "configuration file removed").
			WithContext("path", w.path))
		return false
	}

	report, err := w.holder.LoadFile(w.path)
	if err != nil {
		w.fail(err)
	}
	w.notify(report)
	return true
}

func (w *Watcher[T]) fail(err error) {
	w.holder.opts.Logger.Warn().Err(err).Str("path", w.path).Msg("configuration watch failed")
	if w.opts.OnError != nil {
		w.opts.OnError(err, w.path)
	}
}

func (w *Watcher[T]) notify(report Report) {
	if w.opts.OnReload == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.holder.opts.Logger.Error().Interface("panic", r).Str("path", w.path).Msg("reload callback panicked")
		}
	}()
	w.opts.OnReload(report)
}

// Start begins polling in the background until ctx is done or Stop is called.
func (w *Watcher[T]) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New(ErrCodeWatcherBusy, "watcher is already running")
	}
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	go w.loop(ctx, w.stopCh, w.stoppedCh)
	return nil
}

func (w *Watcher[T]) loop(ctx context.Context, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Stop halts polling and waits for the loop to exit.
func (w *Watcher[T]) Stop() error {
	if !w.running.CompareAndSwap(true, false) {
		return errors.New(ErrCodeWatcherStopped, "watcher is not running")
	}
	close(w.stopCh)
	<-w.stoppedCh
	return nil
}

// IsRunning reports whether Start was called without a matching Stop.
func (w *Watcher[T]) IsRunning() bool { return w.running.Load() }

// Close is Stop for use with defer.
func (w *Watcher[T]) Close() error { return w.Stop() }
