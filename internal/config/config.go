package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Server connection
	Server ServerConfig `koanf:"server"`

	// Metadata extraction queue settings
	Tags TagsConfig `koanf:"tags"`

	// Offline artifact cache settings
	Offline OfflineConfig `koanf:"offline"`

	// Lyrics display settings
	Lyrics LyricsConfig `koanf:"lyrics"`
}

// ServerConfig holds the media server connection settings.
type ServerConfig struct {
	URL   string `koanf:"url"`   // e.g., "http://localhost:8096"
	Token string `koanf:"token"` // API token
}

// TagsConfig holds metadata extraction queue configuration.
type TagsConfig struct {
	Workers          int    `koanf:"workers"`            // worker pool size (default: 2)
	QueueSize        int    `koanf:"queue_size"`         // pending request cap (default: 100)
	CacheSize        int    `koanf:"cache_size"`         // tag record LRU size (default: 50)
	ArtworkCacheSize int    `koanf:"artwork_cache_size"` // artwork LRU size (default: 20)
	RangeKiB         int    `koanf:"range_kib"`          // byte range to fetch (default: 256)
	FetchTimeoutSec  int    `koanf:"fetch_timeout_sec"`  // range fetch timeout (default: 10)
	ParseTimeoutSec  int    `koanf:"parse_timeout_sec"`  // tag parse timeout (default: 5)
	ArtworkMode      string `koanf:"artwork_mode"`       // "file" or "inline" (default: "file")
}

// OfflineConfig holds offline artifact cache configuration.
type OfflineConfig struct {
	Enabled    *bool `koanf:"enabled"`     // default: true
	MaxEntries int   `koanf:"max_entries"` // entry cap (default: 500)
	TTLDays    int   `koanf:"ttl_days"`    // entry lifetime (default: 7)
	SweepSec   int   `koanf:"sweep_sec"`   // periodic sweep interval (default: 60)
}

// LyricsConfig holds lyrics synchronization configuration.
type LyricsConfig struct {
	Enabled   *bool `koanf:"enabled"`    // default: true
	DelayMs   int   `koanf:"delay_ms"`   // user delay offset applied to playback time
	WindowSec int   `koanf:"window_sec"` // active line display window (default: 5)
	TickMs    int   `koanf:"tick_ms"`    // sync loop cadence (default: 100)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	return unmarshal(k)
}

// LoadFile loads configuration from a single TOML file.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize server URL (remove trailing slash)
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/tide/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tide", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// GetTagsConfig returns the tags configuration with defaults applied.
func (c *Config) GetTagsConfig() TagsConfig {
	cfg := c.Tags

	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.CacheSize < 50 {
		cfg.CacheSize = 50
	}
	if cfg.ArtworkCacheSize < 20 {
		cfg.ArtworkCacheSize = 20
	}
	if cfg.RangeKiB <= 0 {
		cfg.RangeKiB = 256
	}
	if cfg.FetchTimeoutSec <= 0 {
		cfg.FetchTimeoutSec = 10
	}
	if cfg.ParseTimeoutSec <= 0 {
		cfg.ParseTimeoutSec = 5
	}
	if cfg.ArtworkMode != "inline" {
		cfg.ArtworkMode = "file"
	}

	return cfg
}

// GetOfflineConfig returns the offline cache configuration with defaults
// applied.
func (c *Config) GetOfflineConfig() OfflineConfig {
	cfg := c.Offline

	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 500
	}
	if cfg.TTLDays <= 0 {
		cfg.TTLDays = 7
	}
	if cfg.SweepSec <= 0 {
		cfg.SweepSec = 60
	}

	return cfg
}

// GetLyricsConfig returns the lyrics configuration with defaults applied.
func (c *Config) GetLyricsConfig() LyricsConfig {
	cfg := c.Lyrics

	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.WindowSec <= 0 {
		cfg.WindowSec = 5
	}
	if cfg.TickMs <= 0 {
		cfg.TickMs = 100
	}

	return cfg
}
