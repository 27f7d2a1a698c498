// Package limitswatcher provides hot reloading of the validation limits
// file. When enabled, it watches the limits TOML file and swaps the live
// limit set whenever the file changes, so an updated instrument envelope
// applies to the next proposal without a restart.
package limitswatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nanoforge-io/synthctl/internal/validate"
	"github.com/nanoforge-io/synthctl/pkg/log"
)

// Config holds configuration options for the limits watcher.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before
	// reloading. Editors often produce bursts of write events.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// Watcher reloads a limits file into a validate.Store on change.
type Watcher struct {
	mu sync.Mutex

	path          string
	store         *validate.Store
	logger        log.Logger
	debounceDelay time.Duration

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// New creates a watcher for the given limits file, updating the given store.
func New(path string, store *validate.Store, logger log.Logger, cfg Config) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	return &Watcher{
		path:          path,
		store:         store,
		logger:        logger,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Start performs an initial load and begins watching the file's directory.
// Watching the directory rather than the file survives editors that replace
// the file by rename.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.reload(); err != nil {
		return fmt.Errorf("initial limits load: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(runCtx, fw)

	w.logger.Info("limits watcher started", log.String("path", w.path))
	return nil
}

// Stop shuts the watcher down and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("limits watcher error", log.Err(err))
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if err := w.reload(); err != nil {
			w.logger.Warn("limits reload failed, keeping previous limits", log.Err(err))
		}
	})
}

func (w *Watcher) reload() error {
	lim, err := validate.LoadLimitsFile(w.path)
	if err != nil {
		return err
	}
	w.store.Replace(lim)
	w.logger.Info("limits loaded",
		log.String("path", w.path),
		log.Float64("tfr_min", lim.TFRMin),
		log.Float64("tfr_max", lim.TFRMax),
	)
	return nil
}
