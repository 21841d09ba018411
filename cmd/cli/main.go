// Command cli is the operator console over the configured record store.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/console"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/backend"
)

func main() {
	_ = godotenv.Load()
	logger := log.New(os.Stderr, "[cli] ", log.LstdFlags)

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closer.Close()

	if err := console.New(store, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Printf("console stopped: %v", err)
	}
}
