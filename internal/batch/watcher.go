package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultSettleDelay = 500 * time.Millisecond
	settlePollInterval = 100 * time.Millisecond
	settleTimeout      = 30 * time.Second
	watchQueueSize     = 256
)

// Watcher processes PDFs as they appear in an input directory. Files still
// being written are debounced by waiting for their size to settle before
// handing them to the processor. Settling and processing happen off the event
// loop so a slow document never backs up event delivery.
type Watcher struct {
	proc   *Processor
	settle time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSettleDelay overrides how long a file's size must remain stable before
// it is processed.
func WithSettleDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.settle = d }
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a Watcher feeding the given Processor.
func NewWatcher(proc *Processor, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		proc:    proc,
		settle:  defaultSettleDelay,
		logger:  slog.Default(),
		pending: make(map[string]bool),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Watch blocks, processing new PDFs in dir until the context is cancelled.
// The event loop only enqueues paths; a worker drains the queue so events
// arriving mid-document are never lost to a blocked loop.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("batch: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("batch: watch %s: %w", dir, err)
	}
	w.logger.Info("watching for documents", "dir", dir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan string, watchQueueSize)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-queue:
				// Pending clears only after handling, so the Create+Write
				// burst for one file collapses into a single run.
				w.handle(ctx, path)
				w.clearPending(path)
			}
		}
	}()
	defer func() {
		cancel()
		<-workerDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".pdf") {
				continue
			}
			w.enqueue(queue, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// enqueue adds a path to the work queue unless it is already waiting.
func (w *Watcher) enqueue(queue chan<- string, path string) {
	w.mu.Lock()
	if w.pending[path] {
		w.mu.Unlock()
		return
	}
	w.pending[path] = true
	w.mu.Unlock()

	select {
	case queue <- path:
	default:
		w.clearPending(path)
		w.logger.Warn("event queue full, dropping document", "path", path)
	}
}

func (w *Watcher) clearPending(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// handle settles and processes a single document. Failures are logged, never
// fatal to the watch loop.
func (w *Watcher) handle(ctx context.Context, path string) {
	if err := w.waitSettled(ctx, path); err != nil {
		w.logger.Warn("skipping unsettled file", "path", path, "error", err)
		return
	}
	if _, err := w.proc.Process(ctx, path); err != nil {
		w.logger.Error("document failed", "path", path, "error", err)
	}
}

// waitSettled polls the file size until it stops changing for the settle
// window, so partially copied PDFs are not fed into the extractor.
func (w *Watcher) waitSettled(ctx context.Context, path string) error {
	deadline := time.Now().Add(settleTimeout)
	var lastSize int64 = -1
	stableSince := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollInterval):
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() != lastSize {
			lastSize = info.Size()
			stableSince = time.Now()
		} else if time.Since(stableSince) >= w.settle {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("file %s did not settle within %s", path, settleTimeout)
		}
	}
}
