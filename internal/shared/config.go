package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	User     UserConfig     `toml:"user"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Chart    ChartConfig    `toml:"chart"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

// UserConfig names the local owner.
type UserConfig struct {
	Name string `toml:"name"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string  `toml:"host"`
	Port        int     `toml:"port"`
	BaseURL     string  `toml:"base_url"`
	PublicRate  float64 `toml:"public_rate"`
	PublicBurst int     `toml:"public_burst"`
	// Hover lookups on the public page get their own, larger budget since
	// the page asks for one on mouse move.
	HoverRate  float64 `toml:"hover_rate"`
	HoverBurst int     `toml:"hover_burst"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ChartConfig sizes rendered charts.
type ChartConfig struct {
	Size   int `toml:"size"`
	Margin int `toml:"margin"`
}

// ExportConfig controls scheduled exports.
type ExportConfig struct {
	Dir      string `toml:"dir"`
	Schedule string `toml:"schedule"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads a TOML file on top of the defaults, so keys missing from
// the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads path when it exists and falls back to the defaults
// when it does not.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns the configuration embedded in config.example.toml.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile writes the example configuration to path. It refuses to
// overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch {
	case c.User.Name == "":
		return fmt.Errorf("%w: user.name is empty", ErrInvalidConfig)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	case c.Chart.Size < 0:
		return fmt.Errorf("%w: chart.size must not be negative", ErrInvalidConfig)
	case c.Chart.Margin < 0 || (c.Chart.Size > 0 && 2*c.Chart.Margin >= c.Chart.Size):
		return fmt.Errorf("%w: chart.margin %d does not fit chart.size %d", ErrInvalidConfig, c.Chart.Margin, c.Chart.Size)
	case c.Server.PublicRate < 0:
		return fmt.Errorf("%w: server.public_rate must not be negative", ErrInvalidConfig)
	case c.Server.HoverRate < 0:
		return fmt.Errorf("%w: server.hover_rate must not be negative", ErrInvalidConfig)
	}
	return nil
}
