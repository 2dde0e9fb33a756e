package cache

import (
	"errors"
	"fmt"
)

// Mode selects the cache backend.
type Mode string

const (
	// ModeSingle keeps entries in a local Ristretto cache.
	ModeSingle Mode = "single"

	// ModeHA shares entries across replicas through Olric.
	ModeHA Mode = "ha"

	// ModeDisabled turns caching off; every lookup goes to the backend.
	ModeDisabled Mode = "disabled"
)

// DefaultDMapName is the Olric map used when none is configured.
const DefaultDMapName = "transit-gate-trust"

// Config selects and tunes the trust entry cache.
type Config struct {
	Mode      Mode            `yaml:"mode" toml:"mode"`
	Olric     OlricConfig     `yaml:"olric" toml:"olric"`
	Ristretto RistrettoConfig `yaml:"ristretto" toml:"ristretto"`
}

// RistrettoConfig tunes the local cache. Cost is the encoded entry size in bytes.
type RistrettoConfig struct {
	NumCounters int64 `yaml:"num_counters" toml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost" toml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items" toml:"buffer_items"`
}

// OlricConfig tunes the distributed cache. Embedded runs a member in-process;
// otherwise the gate is a client of the cluster at Addresses.
type OlricConfig struct {
	DMapName  string   `yaml:"dmap_name" toml:"dmap_name"`
	BindAddr  string   `yaml:"bind_addr" toml:"bind_addr"`
	Addresses []string `yaml:"addresses" toml:"addresses"`
	Peers     []string `yaml:"peers" toml:"peers"`
	Embedded  bool     `yaml:"embedded" toml:"embedded"`
}

// GetDMapName returns the configured map name or DefaultDMapName.
func (c *OlricConfig) GetDMapName() string {
	if c.DMapName == "" {
		return DefaultDMapName
	}
	return c.DMapName
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle:
		if c.Ristretto.MaxCost <= 0 {
			return errors.New("cache: ristretto.max_cost must be positive")
		}
		if c.Ristretto.NumCounters <= 0 {
			return errors.New("cache: ristretto.num_counters must be positive")
		}
	case ModeHA:
		if c.Olric.Embedded && c.Olric.BindAddr == "" {
			return errors.New("cache: olric.bind_addr required when embedded")
		}
		if !c.Olric.Embedded && len(c.Olric.Addresses) == 0 {
			return errors.New("cache: olric.addresses required when not embedded")
		}
	case ModeDisabled:
	case "":
		return errors.New("cache: mode is required")
	default:
		return fmt.Errorf("cache: unknown mode %q", c.Mode)
	}
	return nil
}

// DefaultRistrettoConfig sizes the local cache for roughly ten thousand entries.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 100_000,
		MaxCost:     4 << 20,
		BufferItems: 64,
	}
}

// DefaultOlricConfig returns an embedded single-member setup on loopback.
func DefaultOlricConfig() OlricConfig {
	return OlricConfig{
		DMapName: DefaultDMapName,
		BindAddr: "127.0.0.1",
		Embedded: true,
	}
}
