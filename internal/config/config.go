package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models zelador.yml.
type Config struct {
	Condo struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"condo"`
	Scheduling struct {
		// Timezone is the single canonical IANA zone for every day-boundary
		// computation. It must not vary per request.
		Timezone string `yaml:"timezone"`
	} `yaml:"scheduling"`
	Notifications struct {
		LeadDays int             `yaml:"lead_days"`
		ScanTime string          `yaml:"scan_time"`
		Webhooks []WebhookConfig `yaml:"webhooks"`
	} `yaml:"notifications"`
}

type WebhookConfig struct {
	URL     string `yaml:"url" json:"url"`
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with zl condo config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Condo.ID == "" {
		return fmt.Errorf("config.condo.id is required")
	}
	if c.Scheduling.Timezone == "" {
		return fmt.Errorf("config.scheduling.timezone is required")
	}
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("config.scheduling.timezone %q is not a valid IANA zone: %w", c.Scheduling.Timezone, err)
	}
	if c.Notifications.LeadDays < 0 {
		return fmt.Errorf("config.notifications.lead_days must not be negative")
	}
	if c.Notifications.ScanTime != "" {
		if err := validateScanTime(c.Notifications.ScanTime); err != nil {
			return err
		}
	}
	for i, hook := range c.Notifications.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("config.notifications.webhooks[%d].url is empty", i)
		}
	}
	return nil
}

func validateScanTime(v string) error {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return fmt.Errorf("config.notifications.scan_time %q: expected HH:MM", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("config.notifications.scan_time %q: invalid hour", v)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("config.notifications.scan_time %q: invalid minute", v)
	}
	return nil
}

// ScanSchedule splits the configured scan time into hour and minute.
func (c *Config) ScanSchedule() (hour, minute int, ok bool) {
	v := c.Notifications.ScanTime
	if v == "" {
		return 0, 0, false
	}
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute, true
}

// Location resolves the canonical timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduling.Timezone)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "zelador.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(condoID string) string {
	return fmt.Sprintf(defaultTemplate, condoID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a condominium.
func Default(condoID string) *Config {
	var cfg Config
	cfg.Condo.ID = condoID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, condoID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `condo:
  id: %s
  name: ""

scheduling:
  timezone: America/Sao_Paulo

notifications:
  lead_days: 3
  scan_time: "08:00"
  webhooks: []
`
