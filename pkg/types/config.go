package types

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default polling cadence, matching the intervals status pages are
// typically cached at upstream.
const (
	DefaultActiveInterval = "15s"
	DefaultCalmInterval   = "60s"
	DefaultMaxBackoff     = "5m"
)

// MonitorConfig contains the application configuration including the target status pages.
type MonitorConfig struct {
	Targets []Target `yaml:"targets"`
	// ActiveInterval is the poll interval while at least one incident is unresolved.
	ActiveInterval string `yaml:"active_interval"`
	// CalmInterval is the poll interval while all incidents are resolved.
	CalmInterval string `yaml:"calm_interval"`
	// FixedInterval, if set, pins the poll interval regardless of incident state.
	FixedInterval string `yaml:"fixed_interval"`
	// MaxBackoff caps the delay reached through consecutive-failure backoff.
	MaxBackoff string `yaml:"max_backoff"`
	// ListenAddr, if set, enables the local status/metrics HTTP server.
	ListenAddr string `yaml:"listen_addr"`
}

// Target is one status page to monitor.
type Target struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Intervals is the polling cadence parsed out of a MonitorConfig.
type Intervals struct {
	Active     time.Duration
	Calm       time.Duration
	Fixed      time.Duration // zero means adaptive
	MaxBackoff time.Duration
}

// Floor returns the smallest delay the scheduler may produce.
func (i Intervals) Floor() time.Duration {
	if i.Fixed > 0 {
		return i.Fixed
	}
	if i.Active < i.Calm {
		return i.Active
	}
	return i.Calm
}

// LoadMonitorConfig reads, defaults, and validates a monitor config file.
func LoadMonitorConfig(path string) (*MonitorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MonitorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *MonitorConfig) applyDefaults() {
	if c.ActiveInterval == "" {
		c.ActiveInterval = DefaultActiveInterval
	}
	if c.CalmInterval == "" {
		c.CalmInterval = DefaultCalmInterval
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = DefaultMaxBackoff
	}
	for i := range c.Targets {
		c.Targets[i].URL = strings.TrimRight(c.Targets[i].URL, "/")
	}
}

// Validate checks targets and interval durations. It returns the first problem found.
func (c *MonitorConfig) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("at least one target is required")
	}

	seen := make(map[string]bool, len(c.Targets))
	for _, target := range c.Targets {
		if target.Name == "" {
			return fmt.Errorf("target with url %q is missing a name", target.URL)
		}
		if seen[target.Name] {
			return fmt.Errorf("duplicate target name %q", target.Name)
		}
		seen[target.Name] = true
		if target.URL == "" {
			return fmt.Errorf("target %q is missing a url", target.Name)
		}
		parsed, err := url.Parse(target.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("target %q has an invalid url %q", target.Name, target.URL)
		}
	}

	intervals, err := c.Intervals()
	if err != nil {
		return err
	}
	if intervals.Active <= 0 || intervals.Calm <= 0 {
		return errors.New("active_interval and calm_interval must be positive")
	}
	if c.FixedInterval != "" && intervals.Fixed <= 0 {
		return errors.New("fixed_interval must be positive when set")
	}
	if intervals.MaxBackoff < intervals.Active || intervals.MaxBackoff < intervals.Calm {
		return errors.New("max_backoff must be at least as large as the base intervals")
	}

	return nil
}

// Intervals parses the configured interval strings.
func (c *MonitorConfig) Intervals() (Intervals, error) {
	var intervals Intervals
	var err error

	if intervals.Active, err = time.ParseDuration(c.ActiveInterval); err != nil {
		return Intervals{}, fmt.Errorf("failed to parse active_interval: %w", err)
	}
	if intervals.Calm, err = time.ParseDuration(c.CalmInterval); err != nil {
		return Intervals{}, fmt.Errorf("failed to parse calm_interval: %w", err)
	}
	if c.FixedInterval != "" {
		if intervals.Fixed, err = time.ParseDuration(c.FixedInterval); err != nil {
			return Intervals{}, fmt.Errorf("failed to parse fixed_interval: %w", err)
		}
	}
	if intervals.MaxBackoff, err = time.ParseDuration(c.MaxBackoff); err != nil {
		return Intervals{}, fmt.Errorf("failed to parse max_backoff: %w", err)
	}

	return intervals, nil
}
