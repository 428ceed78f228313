package config

import "time"

// Config is the discovery engine's runtime configuration.
type Config struct {
	Intervals IntervalConfig  `yaml:"intervals"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Packet    PacketConfig    `yaml:"packet"`
	NmapProbe NmapProbeConfig `yaml:"nmap_probe"`
	Transport TransportConfig `yaml:"transport"`
}

// IntervalConfig controls how often each polled collector runs, and the
// lifecycle tick cadence (spec.md §4.6 "Startup").
type IntervalConfig struct {
	LinkLayer  Duration `yaml:"link_layer,omitempty"`
	WiFi       Duration `yaml:"wifi,omitempty"`
	Bluetooth  Duration `yaml:"bluetooth,omitempty"`
	Socket     Duration `yaml:"socket,omitempty"`
	Topology   Duration `yaml:"topology,omitempty"`
	Throughput Duration `yaml:"throughput,omitempty"`
	Tick       Duration `yaml:"tick,omitempty"`
}

// DefaultIntervals matches spec.md §4.2's per-collector intervals and
// §4.6's 5s lifecycle tick.
func DefaultIntervals() IntervalConfig {
	return IntervalConfig{
		LinkLayer:  Duration(5 * time.Second),
		WiFi:       Duration(10 * time.Second),
		Bluetooth:  Duration(8 * time.Second),
		Socket:     Duration(3 * time.Second),
		Topology:   Duration(30 * time.Second),
		Throughput: Duration(3 * time.Second),
		Tick:       Duration(5 * time.Second),
	}
}

// LifecycleConfig controls the store's stale/expired/remove thresholds
// (spec.md §4.1).
type LifecycleConfig struct {
	Stale   Duration `yaml:"stale,omitempty"`
	Expired Duration `yaml:"expired,omitempty"`
	Remove  Duration `yaml:"remove,omitempty"`
}

// DefaultLifecycle matches spec.md §4.1: stale=30s, expired=60s, remove=90s.
func DefaultLifecycle() LifecycleConfig {
	return LifecycleConfig{
		Stale:   Duration(30 * time.Second),
		Expired: Duration(60 * time.Second),
		Remove:  Duration(90 * time.Second),
	}
}

// PacketConfig toggles and configures the packet pipeline (spec.md §4.4).
type PacketConfig struct {
	Enabled         bool   `yaml:"enabled"`
	DefaultIface    string `yaml:"default_interface,omitempty"`
	AutoStart       bool   `yaml:"auto_start"`
}

// DefaultPacket leaves the packet pipeline available but not auto-started,
// matching spec.md §6 "packet.start (consumer → core)" — capture is
// user-initiated.
func DefaultPacket() PacketConfig {
	return PacketConfig{Enabled: true, AutoStart: false}
}

// NmapProbeConfig configures the on-demand OS-detection probe (spec.md §6
// "os.nmap_scan").
type NmapProbeConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// DefaultNmapProbe matches spec.md §6's 15s probe deadline.
func DefaultNmapProbe() NmapProbeConfig {
	return NmapProbeConfig{Enabled: true, Timeout: Duration(15 * time.Second)}
}

// TransportConfig configures the outbound SSE/control listener.
type TransportConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

func DefaultTransport() TransportConfig {
	return TransportConfig{Addr: ":7337"}
}

// Duration wraps time.Duration so config files express intervals as
// strings ("5s", "30s") instead of raw nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
