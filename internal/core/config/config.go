// Package config handles configuration loading and validation for beacon.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lease backends.
const (
	LeaseMemory = "memory"
	LeaseSQLite = "sqlite"
	LeaseRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Widget  WidgetConfig  `yaml:"widget"`
	Live    LiveConfig    `yaml:"live"`
	Lease   LeaseConfig   `yaml:"lease"`
	Audio   AudioConfig   `yaml:"audio"`
	Notices NoticesConfig `yaml:"notices"`
	DataDir string        `yaml:"-"` // set by caller, not from config file
}

// APIConfig locates the notification server and carries credentials.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Prefix        string        `yaml:"prefix"`
	Token         string        `yaml:"token"`
	CSRFToken     string        `yaml:"csrf_token"`
	SessionCookie string        `yaml:"session_cookie"`
	Timeout       time.Duration `yaml:"timeout"`
	UserID        string        `yaml:"user_id"`
	PageSize      int           `yaml:"page_size"` // 0 = server default
}

// WidgetConfig tunes the list view.
type WidgetConfig struct {
	RenderedPages int           `yaml:"rendered_pages"`
	UnreadOnly    bool          `yaml:"unread_only"`
	ToastTimeout  time.Duration `yaml:"toast_timeout"`
	ReadDwell     time.Duration `yaml:"read_dwell"`
	// OpenCommand is a template run to open a target URL, e.g.
	// `xdg-open {{ .URL | shq }}`. Empty disables navigation.
	OpenCommand string `yaml:"open_command"`
	Theme       string `yaml:"theme"`
}

// LiveConfig controls the websocket channel.
type LiveConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Path         string        `yaml:"path"`
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
	Object       *ObjectRef    `yaml:"object"`
}

// ObjectRef names one server object for per-object mute state.
type ObjectRef struct {
	AppLabel  string `yaml:"app_label"`
	ModelName string `yaml:"model_name"`
	ObjectID  string `yaml:"object_id"`
}

func (o ObjectRef) String() string {
	return o.AppLabel + "." + o.ModelName + "/" + o.ObjectID
}

// LeaseConfig selects where the audio lease lives.
type LeaseConfig struct {
	Backend string        `yaml:"backend"`
	Key     string        `yaml:"key"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AudioConfig controls the push alert sound. With an empty Command the
// terminal bell is written.
type AudioConfig struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command"`
}

type NoticesConfig struct {
	Persist bool `yaml:"persist"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Prefix:  "/api/v1/notifications/",
			Timeout: 15 * time.Second,
		},
		Widget: WidgetConfig{
			RenderedPages: 2,
			ToastTimeout:  4 * time.Second,
			ReadDwell:     time.Second,
			Theme:         "tokyo-night",
		},
		Live: LiveConfig{
			Enabled:      true,
			Path:         "/ws/notifications/",
			ReconnectMin: 500 * time.Millisecond,
			ReconnectMax: 30 * time.Second,
		},
		Lease: LeaseConfig{
			Backend: LeaseSQLite,
			Key:     "beacon:audio-lease",
			TTL:     30 * time.Second,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Audio:   AudioConfig{Enabled: true},
		Notices: NoticesConfig{Persist: true},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values the YAML may have set explicitly.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.API.Prefix == "" {
		c.API.Prefix = d.API.Prefix
	}
	if !strings.HasSuffix(c.API.Prefix, "/") {
		c.API.Prefix += "/"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.Widget.RenderedPages == 0 {
		c.Widget.RenderedPages = d.Widget.RenderedPages
	}
	if c.Widget.ToastTimeout == 0 {
		c.Widget.ToastTimeout = d.Widget.ToastTimeout
	}
	if c.Widget.ReadDwell == 0 {
		c.Widget.ReadDwell = d.Widget.ReadDwell
	}
	if c.Widget.Theme == "" {
		c.Widget.Theme = d.Widget.Theme
	}
	if c.Live.Path == "" {
		c.Live.Path = d.Live.Path
	}
	if c.Live.ReconnectMin == 0 {
		c.Live.ReconnectMin = d.Live.ReconnectMin
	}
	if c.Live.ReconnectMax == 0 {
		c.Live.ReconnectMax = d.Live.ReconnectMax
	}
	if c.Lease.Backend == "" {
		c.Lease.Backend = d.Lease.Backend
	}
	if c.Lease.Key == "" {
		c.Lease.Key = d.Lease.Key
	}
	if c.Lease.TTL == 0 {
		c.Lease.TTL = d.Lease.TTL
	}
}

// NotificationsURL is base_url joined with prefix.
func (c *Config) NotificationsURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + c.API.Prefix
}

// LiveURL maps base_url's scheme to ws/wss and appends live.path.
func (c *Config) LiveURL() (string, error) {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse api.base_url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = c.Live.Path
	u.RawQuery = ""
	return u.String(), nil
}

// DBDir is where the state database lives.
func (c *Config) DBDir() string {
	return c.DataDir
}

// LogFile is the default log path when --log-file is not given.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "beacon.log")
}

// DefaultPaths resolves the XDG config file and data directory.
func DefaultPaths() (configPath, dataDir string) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	dataHome := os.Getenv("XDG_DATA_HOME")

	home, _ := os.UserHomeDir()
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(configHome, "beacon", "config.yaml"), filepath.Join(dataHome, "beacon")
}
