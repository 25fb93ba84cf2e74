package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"canpi-panel/internal/logging"
	"canpi-panel/internal/microservices/tcp"
)

const defaultAddr = "127.0.0.1:5550"

func main() {
	logger := logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	addr := os.Getenv("GRID_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	echo, _ := strconv.ParseBool(os.Getenv("GRID_ECHO"))

	server := tcp.NewServer(addr)
	server.Manager.EchoToSender = echo

	if err := server.Listen(); err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve()
	}()

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
		server.Stop()
		logger.Info("server_stopped_gracefully")
	case err := <-errChan:
		if err != nil {
			logger.Error("server_error", "error", err.Error())
			os.Exit(1)
		}
	}
}
