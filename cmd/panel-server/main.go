package main

import (
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"canpi-panel/internal/config"
	httpapi "canpi-panel/internal/microservices/http-api"
	"canpi-panel/internal/logging"
	"canpi-panel/internal/panel"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	logger.Info("starting_panel_server",
		"home", cfg.Home,
		"host_port", cfg.HostPort,
		"cangrid_uri", cfg.CangridURI,
		"relay_url", cfg.RelayURL,
		"config_file", cfg.ConfigFile,
	)

	panels, err := panel.Load(cfg.PanelPath)
	if err != nil {
		if !errors.Is(err, panel.ErrNoPanels) {
			logger.Error("panel_load_failed", "dir", cfg.PanelPath, "error", err)
			os.Exit(1)
		}
		logger.Warn("no_panels_loaded", "dir", cfg.PanelPath)
		panels = panel.Hash{}
	}

	if format := cfg.MenuFormatPath(); format != "" {
		if err := panel.BuildTopMenu(panels, format); err != nil {
			logger.Warn("top_menu_not_built", "format_file", format, "error", err)
		} else {
			logger.Info("top_menu_built", "file", panel.MenuFileName(format))
		}
	}

	server := httpapi.NewServer(cfg, panels)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := server.Start(); err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}

	sig := <-sigChan
	logger.Info("received_shutdown_signal", "signal", sig.String())
	if err := server.Stop(); err != nil {
		slog.Error("server_stop_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server_stopped_gracefully")
}
