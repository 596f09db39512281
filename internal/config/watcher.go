package config

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/siteway/siteway/internal/logging"
)

// EdgeWatcher watches the edge configuration file and notifies callbacks
// when it changes, so cache TTL and bypass prefixes can rotate without a
// restart. Listener and origin settings are fixed at process start.
type EdgeWatcher struct {
	watcher    *fsnotify.Watcher
	loader     *Loader
	configPath string
	callbacks  []func(*EdgeConfig)
	mu         sync.RWMutex
	debounce   time.Duration
}

// NewEdgeWatcher creates a watcher for the given config file.
func NewEdgeWatcher(configPath string) (*EdgeWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &EdgeWatcher{
		watcher:    fsWatcher,
		loader:     NewLoader(),
		configPath: configPath,
		debounce:   500 * time.Millisecond,
	}, nil
}

// OnChange registers a callback for config changes.
func (w *EdgeWatcher) OnChange(callback func(*EdgeConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching. Editors replace files rather than write in place,
// so the containing directory is watched, not the file itself.
func (w *EdgeWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return err
	}
	go w.watch()
	return nil
}

// Stop stops watching.
func (w *EdgeWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *EdgeWatcher) watch() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *EdgeWatcher) isConfigEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.configPath) ||
		strings.HasSuffix(event.Name, filepath.Base(w.configPath))
}

func (w *EdgeWatcher) reload() {
	cfg, err := w.loader.LoadEdge(w.configPath)
	if err != nil {
		logging.Warn("config reload failed, keeping previous config",
			zap.String("path", w.configPath),
			zap.Error(err),
		)
		return
	}

	logging.Info("config reloaded",
		zap.String("path", w.configPath),
		zap.Duration("cache_ttl", cfg.Cache.TTL()),
		zap.Int("bypass_prefixes", len(cfg.BypassPrefixes)),
	)

	w.mu.RLock()
	callbacks := append([]func(*EdgeConfig){}, w.callbacks...)
	w.mu.RUnlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}
