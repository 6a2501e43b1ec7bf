package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"solardelta/internal/model"
	"solardelta/internal/persist"
)

// Entry configures one coverage tracker. The name is the persistence
// identity: renaming an entry orphans its previously stored averages.
type Entry struct {
	Name         string `yaml:"name"`
	SolarEntity  string `yaml:"solar_entity"`
	SolarUnit    string `yaml:"solar_unit"` // "W" (default) or "kW"
	DeviceEntity string `yaml:"device_entity"`
	DeviceUnit   string `yaml:"device_unit"`
	GridEntity   string `yaml:"grid_entity"` // optional; positive = export
	GridUnit     string `yaml:"grid_unit"`
	StatusEntity string `yaml:"status_entity"` // optional
	StatusString string `yaml:"status_string"` // "none" disables matching
	ResetEntity  string `yaml:"reset_entity"`  // optional
	ResetString  string `yaml:"reset_string"`
	ScanInterval int    `yaml:"scan_interval"` // seconds; 0 = event-driven only
}

// Config holds all application configuration.
type Config struct {
	HomeAssistant struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"home_assistant"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Timezone string  `yaml:"timezone"` // IANA name; empty = system zone
	Entries  []Entry `yaml:"entries"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HASS_URL"); v != "" {
		cfg.HomeAssistant.URL = v
	}
	if v := os.Getenv("HASS_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/solardelta.db"
	}
	for i := range cfg.Entries {
		// Only default when no status entity is configured; a configured
		// entity must name its match string explicitly.
		if cfg.Entries[i].StatusEntity == "" && cfg.Entries[i].StatusString == "" {
			cfg.Entries[i].StatusString = "none"
		}
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable. Entries
// with configuration faults abort startup: no accumulator is created for
// half-configured trackers.
func (c *Config) Validate() error {
	if c.HomeAssistant.URL == "" {
		return fmt.Errorf("home_assistant.url is required")
	}
	if c.HomeAssistant.Token == "" {
		return fmt.Errorf("home_assistant.token is required")
	}
	if len(c.Entries) == 0 {
		return fmt.Errorf("at least one entry is required")
	}

	// Dedup on the slug, not the raw name: the slug is the persistence
	// identity, and two names slugging identically would share accumulator
	// rows.
	seen := make(map[string]string)
	for i, e := range c.Entries {
		if e.Name == "" {
			return fmt.Errorf("entries[%d]: name is required", i)
		}
		slug := persist.Slug(e.Name)
		if prev, ok := seen[slug]; ok {
			return fmt.Errorf("entries[%d]: name %q duplicates %q (both stored as %q)", i, e.Name, prev, slug)
		}
		seen[slug] = e.Name

		if e.SolarEntity == "" {
			return fmt.Errorf("entry %q: solar_entity is required", e.Name)
		}
		if e.DeviceEntity == "" {
			return fmt.Errorf("entry %q: device_entity is required", e.Name)
		}
		for _, u := range []string{e.SolarUnit, e.DeviceUnit, e.GridUnit} {
			if _, err := model.ParsePowerUnit(u); err != nil {
				return fmt.Errorf("entry %q: %w", e.Name, err)
			}
		}
		if e.ScanInterval < 0 {
			return fmt.Errorf("entry %q: scan_interval must not be negative", e.Name)
		}
		if e.StatusEntity != "" && e.StatusString == "" {
			return fmt.Errorf("entry %q: status_string is required with status_entity", e.Name)
		}
		if e.ResetEntity != "" && e.ResetString == "" {
			return fmt.Errorf("entry %q: reset_string is required with reset_entity", e.Name)
		}
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location resolves the configured timezone. The year accumulators roll over
// at midnight in this zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
