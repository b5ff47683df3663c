// Package repository holds the configuration file the engine is driven by and
// reloads it when the file changes on disk.
package repository

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 350 * time.Millisecond

// ChangeFunc is called with the reloaded configuration when the active
// cluster's connection settings changed.
type ChangeFunc func(cfg config.FileConfig)

// ConfigRepository loads, persists and watches the configuration file.
type ConfigRepository struct {
	mu         sync.RWMutex
	configData config.FileConfig
	configPath string
	watcher    *fsnotify.Watcher
	timer      *time.Timer
	debounce   time.Duration
	onChange   ChangeFunc
}

// NewConfigRepository creates a repository for the file at configPath.
func NewConfigRepository(configPath string) *ConfigRepository {
	return &ConfigRepository{
		configPath: configPath,
		configData: config.Default(),
		debounce:   defaultDebounce,
	}
}

// Path returns the configuration file path.
func (r *ConfigRepository) Path() string {
	return r.configPath
}

// OnChange registers the callback run after a reload changes the active
// cluster. It replaces any previous callback.
func (r *ConfigRepository) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// LoadFromFile reads the file, applies environment overrides and validates
// the result. A missing file yields the default configuration. On error the
// previously loaded configuration is kept.
func (r *ConfigRepository) LoadFromFile() (config.FileConfig, error) {
	cfg, err := config.ReadConfig(r.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		utils.Logger.Warn("config file not found, using defaults", "path", r.configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return config.FileConfig{}, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.FileConfig{}, err
	}

	r.mu.Lock()
	r.configData = cfg
	r.mu.Unlock()
	return cfg, nil
}

// Current returns the last successfully loaded configuration.
func (r *ConfigRepository) Current() config.FileConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configData
}

// ActiveCluster returns the monitored cluster of the current configuration.
func (r *ConfigRepository) ActiveCluster() config.ClusterConfig {
	c, err := r.Current().ActiveCluster()
	if err != nil {
		return config.ClusterConfig{}
	}
	return c
}

// Save persists cfg to the configuration file and makes it current.
func (r *ConfigRepository) Save(cfg config.FileConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0755); err != nil {
		return err
	}
	if err := config.WriteConfig(r.configPath, cfg); err != nil {
		return err
	}
	r.mu.Lock()
	r.configData = cfg
	r.mu.Unlock()
	return nil
}

// Watch sets a fsnotify watcher on the file for hot reload. Events are
// debounced; editors often write a file in several steps.
func (r *ConfigRepository) Watch() error {
	abs, err := filepath.Abs(r.configPath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return err
	}

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					r.scheduleReload(abs)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				utils.Logger.Error("fsnotify error", "err", err)
			}
		}
	}()

	utils.Logger.Info("watching config file", "path", abs)
	return nil
}

func (r *ConfigRepository) scheduleReload(abs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.reload(abs) })
}

func (r *ConfigRepository) reload(abs string) {
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(abs); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	prev := r.ActiveCluster()
	utils.Logger.Info("config file changed", "path", abs)
	cfg, err := r.LoadFromFile()
	if err != nil {
		utils.Logger.Error("failed to reload config, keeping previous", "err", err)
		return
	}

	next, _ := cfg.ActiveCluster()
	if clusterConfigEqual(prev, next) && prev.Name == next.Name {
		utils.Logger.Debug("active cluster unchanged", "cluster", next.Name)
		return
	}

	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn(cfg)
	}
}

// Close stops watching the file.
func (r *ConfigRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	r.watcher = nil
	return err
}

// clusterConfigEqual compares the connection settings of two clusters.
func clusterConfigEqual(a, b config.ClusterConfig) bool {
	if !equalStrings(a.Brokers, b.Brokers) || a.ClientID != b.ClientID {
		return false
	}
	if !equalTLS(a.TLS, b.TLS) || !equalSASL(a.SASL, b.SASL) {
		return false
	}
	return equalAWS(a.AWS, b.AWS)
}

// equalStrings compares a and b as multisets.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]int)
	for _, s := range a {
		m[s]++
	}
	for _, s := range b {
		if m[s] == 0 {
			return false
		}
		m[s]--
	}
	return true
}

func equalTLS(a, b *config.TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalSASL(a, b *config.SASLConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalAWS(a, b *config.AWSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
