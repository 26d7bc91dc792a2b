package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/notelink/slack-bridge/internal/config"
	"github.com/notelink/slack-bridge/internal/server"
	"github.com/notelink/slack-bridge/pkg/config"
	"github.com/notelink/slack-bridge/pkg/logger"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	var cfg appconfig.AppConfig
	if err := config.GetConfig(&cfg, os.Getenv("CONFIG_FILE"), true); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg := logger.NewLogger(logger.Config{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})

	logg.Info("starting slack-bridge",
		logger.StringField("version", cfg.Version),
		logger.StringField("environment", cfg.Environment))

	srv := server.New(&cfg, logg)
	errChan, closer, gracefulCloser := srv.Listen()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logg.Error("server failed", logger.ErrorField(err))
		closer()
		os.Exit(1)
	case sig := <-sigChan:
		logg.Info("shutdown signal received", logger.StringField("signal", sig.String()))
		gracefulCloser()
	}
}
