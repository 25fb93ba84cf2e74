package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultCangridURI = "localhost:5550"
	ConfigFileName    = "canpi-panel.cfg"
	PanelDir          = "panels"
	StaticDir         = "static"
	TemplateDir       = "templates"
	MenuFormatFile    = "top_menu.format"
)

var (
	ErrHomeNotSet     = errors.New("EV CPPANEL_HOME not defined")
	ErrHomeNotDir     = errors.New("EV CPPANEL_HOME not a directory")
	ErrHostPortNotSet = errors.New("EV HOST_PORT not valid")
)

type Config struct {
	// Paths
	Home         string `env:"CPPANEL_HOME" required:"true"`
	PanelPath    string // cfg file panel_path, default $CPPANEL_HOME/panels
	StaticPath   string // empty when $CPPANEL_HOME/static is missing
	TemplatePath string // empty when $CPPANEL_HOME/templates is missing
	ConfigFile   string // cfg file actually read, if any

	// Network
	HostPort   string `env:"HOST_PORT" required:"true"`
	CangridURI string // cfg file cangrid_uri
	RelayURL   string `env:"RELAY_URL"` // upstream socket for browser sessions

	// Rate limiting (per client IP)
	RateLimit float64 `env:"RATE_LIMIT" default:"10"`
	RateBurst int     `env:"RATE_BURST" default:"20"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from the environment and the optional
// $CPPANEL_HOME/static/canpi-panel.cfg file.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, real env vars still apply
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("env_file_unreadable", "error", err)
	}

	config := &Config{}

	home := os.Getenv("CPPANEL_HOME")
	if home == "" {
		return nil, ErrHomeNotSet
	}
	if !isDir(home) {
		return nil, ErrHomeNotDir
	}
	config.Home = home
	config.CangridURI = DefaultCangridURI
	config.PanelPath = filepath.Join(home, PanelDir)

	if err := config.loadFile(filepath.Join(home, StaticDir, ConfigFileName)); err != nil {
		return nil, err
	}

	if err := loadEnvStringRequired(&config.HostPort, "HOST_PORT"); err != nil {
		return nil, ErrHostPortNotSet
	}
	if err := loadEnvString(&config.RelayURL, "RELAY_URL", "ws://"+config.CangridURI); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.RateLimit, "RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RateBurst, "RATE_BURST", 20); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}

	if dir := filepath.Join(home, StaticDir); isDir(dir) {
		config.StaticPath = dir
	}
	if dir := filepath.Join(home, TemplateDir); isDir(dir) {
		config.TemplatePath = dir
	}

	return config, nil
}

// loadFile applies cangrid_uri and panel_path from the cfg file.
// The file is optional; defaults are logged when it or a key is absent.
func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		slog.Info("config_file_not_found", "file", path)
		slog.Info("config_default", "cangrid_uri", c.CangridURI, "panel_path", c.PanelPath)
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	c.ConfigFile = path

	if uri := values["cangrid_uri"]; uri != "" {
		c.CangridURI = uri
	} else {
		slog.Info("config_default", "cangrid_uri", c.CangridURI)
	}

	if p := values["panel_path"]; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Home, p)
		}
		c.PanelPath = p
	} else {
		slog.Info("config_default", "panel_path", c.PanelPath)
	}
	return nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errs []string

	if !strings.Contains(c.HostPort, ":") {
		errs = append(errs, "HOST_PORT must be host:port")
	} else if _, port, _ := strings.Cut(c.HostPort, ":"); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			errs = append(errs, "HOST_PORT port must be between 1 and 65535")
		}
	}

	validSchemes := []string{"ws", "wss", "tcp"}
	if scheme, _, ok := strings.Cut(c.RelayURL, "://"); !ok || !contains(validSchemes, scheme) {
		errs = append(errs, "RELAY_URL must start with ws://, wss:// or tcp://")
	}

	if c.RateLimit <= 0 {
		errs = append(errs, "RATE_LIMIT must be positive")
	}
	if c.RateBurst < 1 {
		errs = append(errs, "RATE_BURST must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TemplateGlob is the pattern handed to gin's LoadHTMLGlob, or "" when
// there is no template directory.
func (c *Config) TemplateGlob() string {
	if c.TemplatePath == "" {
		return ""
	}
	return filepath.Join(c.TemplatePath, "*.html")
}

// MenuFormatPath is the top menu format file inside the template directory
func (c *Config) MenuFormatPath() string {
	if c.TemplatePath == "" {
		return ""
	}
	return filepath.Join(c.TemplatePath, MenuFormatFile)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
