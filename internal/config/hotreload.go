package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called when the config file changes.
// It receives the newly loaded config.
type ChangeHandler func(cfg *Config)

// Watcher watches a config file for changes and reloads it.
// Changes are debounced (300ms) to avoid rapid reloads. Files that fail to
// load are logged and ignored; handlers only ever see valid configs.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handlers []ChangeHandler
	debounce time.Duration
	logger   *slog.Logger
	mu       sync.Mutex
	done     chan struct{}
}

// NewWatcher creates a config file watcher.
func NewWatcher(configPath string, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		path:     configPath,
		watcher:  w,
		debounce: 300 * time.Millisecond,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers a handler to be called when config changes.
func (cw *Watcher) OnChange(handler ChangeHandler) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.handlers = append(cw.handlers, handler)
}

// Start watches until ctx is done.
func (cw *Watcher) Start(ctx context.Context) error {
	if err := cw.watcher.Add(cw.path); err != nil {
		cw.watcher.Close()
		return err
	}

	go cw.watchLoop(ctx)

	cw.logger.Info("config watcher started", "path", cw.path)
	return nil
}

// Done is closed once the watcher has stopped.
func (cw *Watcher) Done() <-chan struct{} { return cw.done }

func (cw *Watcher) watchLoop(ctx context.Context) {
	defer close(cw.done)
	defer cw.watcher.Close()

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			cw.logger.Info("config watcher stopped")
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(cw.debounce, cw.reload)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("config watcher error", "error", err)
		}
	}
}

func (cw *Watcher) reload() {
	cw.logger.Info("config file changed, reloading", "path", cw.path)

	cfg, err := Load(cw.path)
	if err != nil {
		cw.logger.Error("config reload failed", "error", err)
		return
	}

	cw.mu.Lock()
	handlers := make([]ChangeHandler, len(cw.handlers))
	copy(handlers, cw.handlers)
	cw.mu.Unlock()

	for _, h := range handlers {
		h(cfg)
	}

	cw.logger.Info("config reloaded", "hash", cfg.Hash())
}
