package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultRefreshInterval  = 30 * time.Second
	DefaultRequestTimeout   = 10 * time.Second
	DefaultMaxAttempts      = 3
	DefaultInitialBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff       = 4 * time.Second
	DefaultInternalPrefix   = "__"
	DefaultGroupConcurrency = 8
	DefaultHTTPAddr         = ":8000"
	DefaultBroker           = "localhost:9092"
	DefaultClientID         = "infralens"
)

// EngineConfig tunes the refresh engine.
type EngineConfig struct {
	// Cluster selects one entry of clusters by name; empty means the first.
	Cluster          string        `yaml:"cluster,omitempty" json:"cluster,omitempty"`
	RefreshInterval  time.Duration `yaml:"refresh_interval,omitempty" json:"refresh_interval,omitempty"`
	RequestTimeout   time.Duration `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty"`
	MaxAttempts      int           `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	InitialBackoff   time.Duration `yaml:"initial_backoff,omitempty" json:"initial_backoff,omitempty"`
	MaxBackoff       time.Duration `yaml:"max_backoff,omitempty" json:"max_backoff,omitempty"`
	InternalPrefix   string        `yaml:"internal_prefix,omitempty" json:"internal_prefix,omitempty"`
	GroupConcurrency int           `yaml:"group_concurrency,omitempty" json:"group_concurrency,omitempty"`
	// AutoConnect connects the engine on startup.
	AutoConnect *bool `yaml:"auto_connect,omitempty" json:"auto_connect,omitempty"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// ShouldAutoConnect reports whether the engine connects on startup (default true).
func (e EngineConfig) ShouldAutoConnect() bool {
	return e.AutoConnect == nil || *e.AutoConnect
}

// sequentialCalls is the longest chain of dependent broker calls in one
// attempt: metadata, then describe groups, committed offsets and high-water
// marks.
const sequentialCalls = 4

// CycleDeadline is the overall budget of one refresh: every attempt may spend
// a full request timeout on each of its sequential calls, plus the backoff
// waits between attempts. Large clusters whose per-group work exceeds
// group_concurrency should raise request_timeout.
func (e EngineConfig) CycleDeadline() time.Duration {
	total := time.Duration(e.MaxAttempts*sequentialCalls) * e.RequestTimeout
	backoff := e.InitialBackoff
	for i := 1; i < e.MaxAttempts; i++ {
		total += backoff
		backoff *= 2
		if backoff > e.MaxBackoff {
			backoff = e.MaxBackoff
		}
	}
	return total
}

// ApplyDefaults fills zero values with their defaults.
func (f *FileConfig) ApplyDefaults() {
	e := &f.Engine
	if e.RefreshInterval <= 0 {
		e.RefreshInterval = DefaultRefreshInterval
	}
	if e.RequestTimeout <= 0 {
		e.RequestTimeout = DefaultRequestTimeout
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	if e.InitialBackoff <= 0 {
		e.InitialBackoff = DefaultInitialBackoff
	}
	if e.MaxBackoff <= 0 {
		e.MaxBackoff = DefaultMaxBackoff
	}
	if e.MaxBackoff < e.InitialBackoff {
		e.MaxBackoff = e.InitialBackoff
	}
	if e.InternalPrefix == "" {
		e.InternalPrefix = DefaultInternalPrefix
	}
	if e.GroupConcurrency <= 0 {
		e.GroupConcurrency = DefaultGroupConcurrency
	}
	if f.HTTP.Addr == "" {
		f.HTTP.Addr = DefaultHTTPAddr
	}
}

// ApplyEnv overrides configuration from the environment:
// INFRALENS_BROKERS (comma-separated) replaces the brokers of the active
// cluster, or defines a "default" cluster when none is configured, and
// INFRALENS_HTTP_ADDR replaces the listen address.
func (f *FileConfig) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("INFRALENS_BROKERS")); v != "" {
		brokers := splitBrokers(v)
		if len(f.Clusters) == 0 {
			f.Clusters = append(f.Clusters, ClusterConfig{Name: "default", ClientID: DefaultClientID})
		}
		idx := 0
		for i, c := range f.Clusters {
			if c.Name == f.Engine.Cluster {
				idx = i
			}
		}
		f.Clusters[idx].Brokers = brokers
	}
	if v := strings.TrimSpace(os.Getenv("INFRALENS_HTTP_ADDR")); v != "" {
		f.HTTP.Addr = v
	}
}

// Validate checks that the configuration can drive an engine.
func (f FileConfig) Validate() error {
	c, err := f.ActiveCluster()
	if err != nil {
		return err
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("cluster %q: no brokers configured", c.Name)
	}
	if f.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine.max_attempts must be at least 1, got %d", f.Engine.MaxAttempts)
	}
	return nil
}

// Default returns a configuration pointing at a local broker.
func Default() FileConfig {
	cfg := FileConfig{
		Clusters: []ClusterConfig{{
			Name:     "local",
			Brokers:  []string{DefaultBroker},
			ClientID: DefaultClientID,
		}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func splitBrokers(v string) []string {
	var out []string
	for _, b := range strings.Split(v, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
