package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHome creates a CPPANEL_HOME with static/ and templates/ and points the
// environment at it.
func newHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(home, StaticDir), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(home, TemplateDir), 0755))
	t.Setenv("CPPANEL_HOME", home)
	t.Setenv("HOST_PORT", "127.0.0.1:8080")
	for _, k := range []string{"RELAY_URL", "RATE_LIMIT", "RATE_BURST", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	return home
}

func writeCfg(t *testing.T, home, body string) {
	t.Helper()
	path := filepath.Join(home, StaticDir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := newHome(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, "127.0.0.1:8080", cfg.HostPort)
	assert.Equal(t, DefaultCangridURI, cfg.CangridURI)
	assert.Equal(t, filepath.Join(home, PanelDir), cfg.PanelPath)
	assert.Equal(t, filepath.Join(home, StaticDir), cfg.StaticPath)
	assert.Equal(t, filepath.Join(home, TemplateDir), cfg.TemplatePath)
	assert.Equal(t, "ws://"+DefaultCangridURI, cfg.RelayURL)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.ConfigFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_HomeNotSet(t *testing.T) {
	t.Setenv("CPPANEL_HOME", "")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrHomeNotSet)
}

func TestLoadConfig_HomeNotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	t.Setenv("CPPANEL_HOME", file)

	_, err := LoadConfig()

	assert.ErrorIs(t, err, ErrHomeNotDir)
}

func TestLoadConfig_HostPortRequired(t *testing.T) {
	newHome(t)
	t.Setenv("HOST_PORT", "")

	_, err := LoadConfig()

	assert.ErrorIs(t, err, ErrHostPortNotSet)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	home := newHome(t)
	writeCfg(t, home, "# canpi panel\ncangrid_uri = canpi.local:5550\npanel_path = diagrams\n")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "canpi.local:5550", cfg.CangridURI)
	assert.Equal(t, filepath.Join(home, "diagrams"), cfg.PanelPath)
	assert.Equal(t, "ws://canpi.local:5550", cfg.RelayURL)
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestLoadConfig_AbsolutePanelPath(t *testing.T) {
	home := newHome(t)
	abs := t.TempDir()
	writeCfg(t, home, "panel_path="+abs+"\n")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, abs, cfg.PanelPath)
	assert.Equal(t, DefaultCangridURI, cfg.CangridURI)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	newHome(t)
	t.Setenv("RELAY_URL", "wss://echo.websocket.org")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("RATE_BURST", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "wss://echo.websocket.org", cfg.RelayURL)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_BadInteger(t *testing.T) {
	newHome(t)
	t.Setenv("RATE_BURST", "lots")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_MissingOptionalDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CPPANEL_HOME", home)
	t.Setenv("HOST_PORT", "0.0.0.0:80")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Empty(t, cfg.StaticPath)
	assert.Empty(t, cfg.TemplatePath)
	assert.Empty(t, cfg.TemplateGlob())
	assert.Empty(t, cfg.MenuFormatPath())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HostPort:  "localhost:8080",
			RelayURL:  "ws://localhost:5550",
			RateLimit: 10,
			RateBurst: 20,
			LogLevel:  "info",
			LogFormat: "text",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"tcp relay", func(c *Config) { c.RelayURL = "tcp://localhost:5550" }, ""},
		{"wss relay", func(c *Config) { c.RelayURL = "wss://echo.websocket.org" }, ""},
		{"no port", func(c *Config) { c.HostPort = "localhost" }, "HOST_PORT must be host:port"},
		{"port out of range", func(c *Config) { c.HostPort = "localhost:70000" }, "between 1 and 65535"},
		{"http relay", func(c *Config) { c.RelayURL = "http://x" }, "RELAY_URL"},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, "RATE_LIMIT"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "RATE_BURST"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestTemplatePaths(t *testing.T) {
	cfg := &Config{TemplatePath: "/srv/canpi/templates"}
	assert.Equal(t, filepath.Join("/srv/canpi/templates", "*.html"), cfg.TemplateGlob())
	assert.Equal(t, filepath.Join("/srv/canpi/templates", MenuFormatFile), cfg.MenuFormatPath())
}
