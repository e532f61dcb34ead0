package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/keyedlist/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "keyedlist.json"

	// DefaultPort is the default live server port.
	DefaultPort = 3000

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace prefixes every metric name.
	DefaultNamespace = "keyedlist"

	// DefaultTracerName is the instrumentation name of reconcile spans.
	DefaultTracerName = "keyedlist"

	// DefaultInterval is the pause between replayed steps in serve mode.
	DefaultInterval = time.Second
)

// Config represents the complete keyedlist.json configuration.
type Config struct {
	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Log contains logger configuration.
	Log LogConfig `json:"log,omitempty"`

	// Replay contains replay script defaults.
	Replay ReplayConfig `json:"replay,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Enabled exposes reconciliation metrics.
	Enabled *bool `json:"enabled,omitempty"`

	// Path is the URL path of the metrics endpoint.
	Path string `json:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains tracing settings.
type TracingConfig struct {
	// Enabled opens one span per reconciliation cycle.
	Enabled bool `json:"enabled,omitempty"`

	// TracerName is the instrumentation name.
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// ReplayConfig contains replay settings.
type ReplayConfig struct {
	// Interval is the pause between steps in serve mode (e.g., "500ms").
	Interval string `json:"interval,omitempty"`

	// Key is the default key field for scripts that name none.
	Key string `json:"key,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads the configuration from dir. A missing file yields the
// defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := New()
		c.configPath = path
		return c, nil
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E010").
			WithDetailf("Could not read %s", path).
			Wrap(err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.New("E011").
			WithDetailf("%s is not valid JSON", path).
			Wrap(err)
	}
	c.configPath = path
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Replay.Interval == "" {
		c.Replay.Interval = DefaultInterval.String()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	d, err := time.ParseDuration(c.Replay.Interval)
	if err != nil {
		return invalid("replay.interval: %v", err)
	}
	if d <= 0 {
		return invalid("replay.interval must be positive, got %s", d)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New("E011").WithDetail(fmt.Sprintf(format, args...))
}

// MetricsEnabled reports whether metrics are exposed.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the server URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Interval returns the parsed replay interval.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.Replay.Interval)
	if err != nil || d <= 0 {
		return DefaultInterval
	}
	return d
}
