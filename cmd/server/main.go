package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"airdrop-backend/internal/app"
	"airdrop-backend/internal/config"
	"airdrop-backend/internal/db"
	"airdrop-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	container, err := app.InitializeContainer()
	if err != nil {
		log.Fatalf("Failed to initialize service container: %v", err)
	}
	defer container.Cleanup()

	r := router.SetupRouter(container)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logrus.WithFields(logrus.Fields{
		"addr": addr,
		"root": cfg.Distribution.Root,
	}).Info("airdrop backend listening")
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// setupLogging configures logrus from the log config section
func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)
}
