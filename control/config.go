// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Layer configuration (TOML-loadable) and a thread-safe store with
// reload hooks for the values that may change at runtime.

package control

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/containerd/errdefs"
	"github.com/pelletier/go-toml"
)

// Stack selection values accepted in Config.Stack.
const (
	StackAuto = "auto"
	StackDual = "dual"
	StackIPv4 = "ipv4"
)

// DefaultSendBufferFloor is the minimum SO_SNDBUF a new socket is raised to.
const DefaultSendBufferFloor = 32 * 1024

// Config holds the transport layer parameters.
type Config struct {
	// Stack is "auto" (probe once at start), "dual" or "ipv4".
	Stack string `toml:"stack"`
	// SendBufferFloor is the SO_SNDBUF lower bound applied on socket creation.
	SendBufferFloor int `toml:"send_buffer_floor"`
	// LogLevel is a zap level name.
	LogLevel string `toml:"log_level"`
	// Metrics registers the go-metrics namespace with the default registry.
	Metrics bool `toml:"metrics"`
	// ScratchRoot is the parent of per-application scratch directories.
	ScratchRoot string `toml:"scratch_root"`
	// AppName enables the scratch directory when non-empty.
	AppName string `toml:"app_name"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Stack:           StackAuto,
		SendBufferFloor: DefaultSendBufferFloor,
		LogLevel:        "info",
		Metrics:         false,
		ScratchRoot:     os.TempDir(),
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML data on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Stack = strings.ToLower(strings.TrimSpace(c.Stack))
	switch c.Stack {
	case "":
		c.Stack = StackAuto
	case StackAuto, StackDual, StackIPv4:
	default:
		return fmt.Errorf("stack %q: must be auto, dual or ipv4: %w", c.Stack, errdefs.ErrInvalidArgument)
	}
	if c.SendBufferFloor < 0 {
		return fmt.Errorf("send_buffer_floor %d: %w", c.SendBufferFloor, errdefs.ErrInvalidArgument)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AppName != "" && strings.ContainsRune(c.AppName, os.PathSeparator) {
		return fmt.Errorf("app_name %q contains a path separator: %w", c.AppName, errdefs.ErrInvalidArgument)
	}
	return nil
}

// AsMap flattens the config for snapshots and debug probes.
func (c *Config) AsMap() map[string]any {
	return map[string]any{
		"stack":             c.Stack,
		"send_buffer_floor": c.SendBufferFloor,
		"log_level":         c.LogLevel,
		"metrics":           c.Metrics,
		"scratch_root":      c.ScratchRoot,
		"app_name":          c.AppName,
	}
}

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func(map[string]any)
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(map[string]any), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.snapshotLocked()
}

// SetConfig merges new values and synchronously notifies listeners with
// the merged snapshot.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	snap := cs.snapshotLocked()
	listeners := append([]func(map[string]any){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(map[string]any)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

func (cs *ConfigStore) snapshotLocked() map[string]any {
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}
