package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"canpi-panel/internal/logging"
	"canpi-panel/internal/microservices/echo"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := echo.ListenAndServe(ctx, os.Getenv("ECHO_ADDR")); err != nil {
		logger.Error("echo_server_error", "error", err)
		os.Exit(1)
	}
}
