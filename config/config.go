package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"memegram/feeds"
	"memegram/navigator"
	"memegram/reddit"
)

// DefaultPath is where the config file is looked up when no path is given
const DefaultPath = "memegram.toml"

// SourceConfig is the [source] table: where and how pages are fetched
type SourceConfig struct {
	Host          string        `toml:"host"`
	UserAgent     string        `toml:"user_agent"`
	Subreddits    []string      `toml:"subreddits"`
	Limit         int           `toml:"limit"`
	Timeout       time.Duration `toml:"timeout"`
	Retries       int           `toml:"retries"`
	RetryInterval time.Duration `toml:"retry_interval"`
}

// ViewerConfig is the [viewer] table: navigation timings and gesture thresholds
type ViewerConfig struct {
	SettleDelay         time.Duration `toml:"settle_delay"`
	AutoAdvanceInterval time.Duration `toml:"auto_advance_interval"`
	WheelInterval       time.Duration `toml:"wheel_interval"`
	WheelThreshold      float64       `toml:"wheel_threshold"`
	SwipeThreshold      float64       `toml:"swipe_threshold"`

	// WheelStep is the delta reported for one terminal wheel notch
	WheelStep float64 `toml:"wheel_step"`
	// RowHeight converts terminal rows into swipe displacement
	RowHeight float64 `toml:"row_height"`
}

// ServerConfig is the [server] table
type ServerConfig struct {
	Port        int    `toml:"port"`
	CorsOrigins string `toml:"cors_origins"`
}

// Config represents the top-level configuration
type Config struct {
	Source SourceConfig `toml:"source"`
	Viewer ViewerConfig `toml:"viewer"`
	Server ServerConfig `toml:"server"`
}

func Default() *Config {
	settings := navigator.DefaultSettings()
	return &Config{
		Source: SourceConfig{
			Host:          reddit.DefaultHost,
			UserAgent:     reddit.DefaultUserAgent,
			Subreddits:    append([]string(nil), feeds.DefaultSubreddits...),
			Limit:         feeds.DefaultLimit,
			Timeout:       feeds.DefaultTimeout,
			Retries:       0,
			RetryInterval: feeds.DefaultRetryInterval,
		},
		Viewer: ViewerConfig{
			SettleDelay:         settings.SettleDelay,
			AutoAdvanceInterval: settings.AutoAdvanceInterval,
			WheelInterval:       settings.Gestures.WheelInterval,
			WheelThreshold:      settings.Gestures.WheelThreshold,
			SwipeThreshold:      settings.Gestures.SwipeThreshold,
			WheelStep:           100,
			RowHeight:           20,
		},
		Server: ServerConfig{
			Port:        3000,
			CorsOrigins: "http://localhost:3001",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. Only the default
// file may be missing; a path given explicitly must exist. Unknown keys are
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("unknown keys in config file: %s", strings.Join(keys, ", "))
	}

	return cfg, nil
}

// Validate rejects values the source or the navigator cannot work with
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Host == "" {
		errs = append(errs, errors.New("source.host must be set"))
	}
	if len(c.Source.Subreddits) == 0 {
		errs = append(errs, errors.New("source.subreddits must not be empty"))
	}
	for _, name := range c.Source.Subreddits {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "+/ ") {
			errs = append(errs, fmt.Errorf("source.subreddits contains invalid name %q", name))
		}
	}
	if c.Source.Limit < 1 || c.Source.Limit > 100 {
		errs = append(errs, fmt.Errorf("source.limit must be between 1 and 100, got %d", c.Source.Limit))
	}
	if c.Source.Retries < 0 {
		errs = append(errs, fmt.Errorf("source.retries must not be negative, got %d", c.Source.Retries))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"source.timeout", c.Source.Timeout},
		{"source.retry_interval", c.Source.RetryInterval},
		{"viewer.settle_delay", c.Viewer.SettleDelay},
		{"viewer.auto_advance_interval", c.Viewer.AutoAdvanceInterval},
		{"viewer.wheel_interval", c.Viewer.WheelInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"viewer.wheel_threshold", c.Viewer.WheelThreshold},
		{"viewer.swipe_threshold", c.Viewer.SwipeThreshold},
		{"viewer.wheel_step", c.Viewer.WheelStep},
		{"viewer.row_height", c.Viewer.RowHeight},
	}
	for _, t := range thresholds {
		if t.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", t.name, t.value))
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be a valid port, got %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// SourceConfig maps the [source] table onto the data source options
func (c *Config) SourceConfig() feeds.SourceConfig {
	return feeds.SourceConfig{
		Host:          c.Source.Host,
		UserAgent:     c.Source.UserAgent,
		Subreddits:    c.Source.Subreddits,
		Limit:         c.Source.Limit,
		Timeout:       c.Source.Timeout,
		Retries:       c.Source.Retries,
		RetryInterval: c.Source.RetryInterval,
	}
}

// Settings maps the [viewer] table onto the navigator settings
func (c *Config) Settings() navigator.Settings {
	return navigator.Settings{
		SettleDelay:         c.Viewer.SettleDelay,
		AutoAdvanceInterval: c.Viewer.AutoAdvanceInterval,
		Gestures: navigator.GestureConfig{
			WheelInterval:  c.Viewer.WheelInterval,
			WheelThreshold: c.Viewer.WheelThreshold,
			SwipeThreshold: c.Viewer.SwipeThreshold,
		},
	}
}
