package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
)

// TunablesWatcher watches the tunables file and reloads the interaction
// configuration when it changes. Listeners receive the full new config;
// a file that fails to parse or validate keeps the current one.
type TunablesWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  *domaincfg.DomainConfig
	onChange []func(*domaincfg.DomainConfig)
}

// NewTunablesWatcher loads the initial configuration and sets up the file
// watcher. The directory is watched too, so editors that save via rename
// still trigger a reload.
func NewTunablesWatcher(path string, logger *zap.Logger) (*TunablesWatcher, error) {
	current, err := LoadDomainConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tunables: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tunables file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch tunables directory", zap.Error(err))
	}

	return &TunablesWatcher{
		path:    path,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: current,
	}, nil
}

// Start begins watching for changes.
func (w *TunablesWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("tunables watcher started", zap.String("path", w.path))
}

// Stop stops watching.
func (w *TunablesWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

// Current returns the active configuration.
func (w *TunablesWatcher) Current() *domaincfg.DomainConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *TunablesWatcher) OnChange(handler func(*domaincfg.DomainConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

func (w *TunablesWatcher) watchLoop() {
	// Editors fire several events per save; collapse them into one reload.
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("tunables watcher error", zap.Error(err))
		}
	}
}

func (w *TunablesWatcher) reload() {
	newConfig, err := LoadDomainConfig(w.path)
	if err != nil {
		w.logger.Error("failed to reload tunables, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = newConfig
	handlers := make([]func(*domaincfg.DomainConfig), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	w.logger.Info("tunables reloaded", zap.String("path", w.path))
	for _, handler := range handlers {
		handler(newConfig)
	}
}
