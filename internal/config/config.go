// Package config loads the discovery engine's runtime configuration:
// collector intervals, lifecycle thresholds, packet pipeline toggles, and
// nmap probe defaults. All fields are optional and defaulted, so a
// zero-value Config is still usable (SPEC_FULL.md "AMBIENT STACK").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, path, nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a process with no config
// file present.
func DefaultConfig() *Config {
	return &Config{
		Intervals:  DefaultIntervals(),
		Lifecycle:  DefaultLifecycle(),
		Packet:     DefaultPacket(),
		NmapProbe:  DefaultNmapProbe(),
		Transport:  DefaultTransport(),
	}
}

// applyDefaults fills in any zero-value fields left absent in a loaded
// file with the package defaults, so a partial config file is still
// fully usable.
func (c *Config) applyDefaults() {
	d := DefaultIntervals()
	if c.Intervals.LinkLayer == 0 {
		c.Intervals.LinkLayer = d.LinkLayer
	}
	if c.Intervals.WiFi == 0 {
		c.Intervals.WiFi = d.WiFi
	}
	if c.Intervals.Bluetooth == 0 {
		c.Intervals.Bluetooth = d.Bluetooth
	}
	if c.Intervals.Socket == 0 {
		c.Intervals.Socket = d.Socket
	}
	if c.Intervals.Topology == 0 {
		c.Intervals.Topology = d.Topology
	}
	if c.Intervals.Throughput == 0 {
		c.Intervals.Throughput = d.Throughput
	}
	if c.Intervals.Tick == 0 {
		c.Intervals.Tick = d.Tick
	}

	dl := DefaultLifecycle()
	if c.Lifecycle.Stale == 0 {
		c.Lifecycle.Stale = dl.Stale
	}
	if c.Lifecycle.Expired == 0 {
		c.Lifecycle.Expired = dl.Expired
	}
	if c.Lifecycle.Remove == 0 {
		c.Lifecycle.Remove = dl.Remove
	}

	if c.Transport.Addr == "" {
		c.Transport.Addr = DefaultTransport().Addr
	}
}
