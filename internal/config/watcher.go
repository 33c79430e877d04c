package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the config file for changes and reloads it.
// Reloads are delivered through the OnChange callback; a failed reload keeps
// the previous configuration.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	logger   zerolog.Logger
	onChange func(*Config)

	mu   sync.Mutex
	done chan struct{}
}

// NewWatcher starts watching the config directory.
func NewWatcher(logger zerolog.Logger, onChange func(*Config)) (*Watcher, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(configDir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		path:     filepath.Join(configDir, "config.yaml"),
		logger:   logger.With().Str("component", "config-watcher").Logger(),
		onChange: onChange,
		done:     make(chan struct{}),
	}

	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path || !event.Has(fsnotify.Write) {
				continue
			}
			cfg, err := Load()
			if err != nil {
				w.logger.Warn().Err(err).Msg("Config reload failed, keeping previous settings")
				continue
			}
			w.logger.Info().Msg("Config reloaded")
			if w.onChange != nil {
				w.onChange(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	return w.watcher.Close()
}
