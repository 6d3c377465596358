package tally

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	logx "comelec/pkg/logx"
)

const watchDebounce = 250 * time.Millisecond

// Job tallies Input into Output.
type Job struct {
	Input  string
	Output string
	Skip   []string
	Log    logx.Logger
}

func (j Job) logger() logx.Logger {
	if j.Log.IsZero() {
		return logx.Nop()
	}
	return j.Log
}

// Run performs one tally and writes the JSON summary.
func (j Job) Run() (*Result, error) {
	start := time.Now()
	r, err := Load(j.Input, j.Skip)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(j.Output, r); err != nil {
		return nil, err
	}
	j.logger().Info("tally written",
		logx.String("input", j.Input),
		logx.String("output", j.Output),
		logx.String("responses", humanize.Comma(int64(r.Responses))),
		logx.Int("questions", len(r.questions)),
		logx.Duration("took", time.Since(start)),
	)
	return r, nil
}

// Watch re-runs the tally whenever Input changes, until ctx is done.
// Failed runs are logged and the watch continues.
func (j Job) Watch(ctx context.Context) error {
	log := j.logger()
	dir := filepath.Dir(j.Input)
	file := filepath.Base(j.Input)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory: spreadsheet exports and editors often replace
	// the file instead of writing in place.
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Info("watching for changes", logx.String("input", j.Input))

	deb := newDebouncer(watchDebounce, func() {
		if _, err := j.Run(); err != nil {
			log.Warn("tally failed", logx.String("input", j.Input), logx.Err(err))
		}
	})
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("input changed; scheduling tally", logx.String("op", ev.Op.String()))
			deb.trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			log.Warn("watch error", logx.Err(err))
		}
	}
}

// debouncer runs fn once a burst of triggers has been quiet for delay.
// Runs never overlap: a run that outlasts the next burst finishes first.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer

	runMu sync.Mutex
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.run)
}

func (d *debouncer) run() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.fn()
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
