package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CreditRisk/internal/di"
	"CreditRisk/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// a missing .env is normal outside local development
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv %s: %v", *envFile, err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("env=%s backend=%s provider=%s", cfg.Environment, cfg.Backend.Type, cfg.Provider.Type)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
