// Package config provides hot-reload of the monitor configuration file.
package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"statuspage-monitor/pkg/types"
)

// DefaultDebounceDelay coalesces the burst of filesystem events an editor
// or orchestrator emits when rewriting the config file.
const DefaultDebounceDelay = 2 * time.Second

// Manager provides thread-safe access to the monitor configuration with
// hot-reload support. A content hash suppresses reloads when the file is
// rewritten with identical contents.
type Manager struct {
	mu              sync.RWMutex
	config          *types.MonitorConfig
	configPath      string
	logger          *logrus.Logger
	watcher         *fsnotify.Watcher
	updateCallbacks []func(*types.MonitorConfig)
	debounceTimer   *time.Timer
	debounceDelay   time.Duration
	lastHash        string
}

// NewManager loads the config at configPath and prepares a file watcher.
func NewManager(configPath string, logger *logrus.Logger) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		configPath:    configPath,
		logger:        logger,
		watcher:       watcher,
		debounceDelay: DefaultDebounceDelay,
	}

	config, err := types.LoadMonitorConfig(configPath)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	manager.config = config

	if data, err := os.ReadFile(configPath); err == nil {
		manager.lastHash = contentHash(data)
	}

	return manager, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *types.MonitorConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnUpdate registers a callback invoked after each successful reload.
func (m *Manager) OnUpdate(callback func(*types.MonitorConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCallbacks = append(m.updateCallbacks, callback)
}

// Watch starts watching the config file's directory for changes. Watching
// the directory rather than the file survives rename-based rewrites.
func (m *Manager) Watch(ctx context.Context) error {
	if err := m.watcher.Add(filepath.Dir(m.configPath)); err != nil {
		return err
	}

	configPath := filepath.Clean(m.configPath)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-m.watcher.Events:
				if !ok {
					return
				}
				affectsFile := event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) ||
					(filepath.Clean(event.Name) == configPath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)))
				if !affectsFile {
					continue
				}
				m.logger.WithFields(logrus.Fields{
					"config_path": m.configPath,
					"event":       event,
				}).Info("Config file changed, scheduling reload")
				m.mu.Lock()
				if m.debounceTimer != nil {
					m.debounceTimer.Stop()
				}
				m.debounceTimer = time.AfterFunc(m.debounceDelay, m.reload)
				m.mu.Unlock()
			case err, ok := <-m.watcher.Errors:
				if !ok {
					return
				}
				m.logger.WithFields(logrus.Fields{
					"config_path": m.configPath,
					"error":       err,
				}).Error("Error watching config file")
			}
		}
	}()

	return nil
}

// reload re-reads the file and swaps the config if the content changed and
// still validates. A broken file keeps the existing config in place.
func (m *Manager) reload() {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{
			"config_path": m.configPath,
			"error":       err,
		}).Error("Failed to read config file")
		return
	}

	newHash := contentHash(data)
	if newHash == m.lastHash {
		m.mu.Unlock()
		m.logger.WithField("config_path", m.configPath).Info("Config content unchanged, skipping reload")
		return
	}

	newConfig, err := types.LoadMonitorConfig(m.configPath)
	if err != nil {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{
			"config_path": m.configPath,
			"error":       err,
		}).Error("Failed to reload config, keeping existing config")
		return
	}

	m.config = newConfig
	m.lastHash = newHash
	callbacks := make([]func(*types.MonitorConfig), len(m.updateCallbacks))
	copy(callbacks, m.updateCallbacks)

	m.logger.WithField("config_path", m.configPath).Info("Config reloaded successfully")

	// callbacks run outside the lock; they may be slow
	m.mu.Unlock()
	for _, callback := range callbacks {
		callback(newConfig)
	}
}

// Close stops the file watcher.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	return m.watcher.Close()
}

func contentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
