package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/ingest"
)

// Watcher re-validates a data directory on change. Bursts of file events
// collapse into one run per debounce window.
type Watcher struct {
	dir      string
	debounce time.Duration
	notify   bool
	logger   *slog.Logger
	runner   *Runner

	lastErrors int
}

func New(dir string, debounce time.Duration, notify bool, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		notify:   notify,
		logger:   logger,
		runner:   NewRunner(),
	}
}

func dataFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".json":
		return true
	}
	return false
}

// Run watches until ctx is done, invoking onResult for every completed
// validation, newest first and stale runs already dropped.
func (w *Watcher) Run(ctx context.Context, onResult func(Result)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer fw.Close()
	defer w.runner.Stop()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	load := func(ctx context.Context) (entity.DataSet, error) {
		if err := ctx.Err(); err != nil {
			return entity.DataSet{}, err
		}
		return ingest.LoadDir(w.dir)
	}

	// Validate once on startup so the first report does not wait for an
	// edit.
	w.runner.Submit(ctx, load)

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !dataFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("data file changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())
			debounce.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-debounce.C:
			w.runner.Submit(ctx, load)

		case res := <-w.runner.Results():
			w.handleResult(res)
			if onResult != nil {
				onResult(res)
			}
		}
	}
}

func (w *Watcher) handleResult(res Result) {
	if res.Err != nil {
		w.logger.Warn("reload failed", "error", res.Err)
		return
	}

	errs := res.Report.Summary().Errors
	w.logger.Info("validation finished",
		"generation", res.Generation,
		"errors", errs,
		"warnings", res.Report.Summary().Warnings,
	)

	if w.notify && errs > w.lastErrors {
		msg := fmt.Sprintf("%d validation errors (was %d)", errs, w.lastErrors)
		if err := beeep.Notify("preflight", msg, ""); err != nil {
			w.logger.Warn("notification failed", "error", err)
		}
	}
	w.lastErrors = errs
}
