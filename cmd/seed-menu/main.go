// Command seed-menu provisions the shared menu record in the configured store.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/backend"
)

func main() {
	_ = godotenv.Load()
	logger := log.New(os.Stdout, "[seed-menu] ", log.LstdFlags)

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	file := flag.String("file", cfg.Store.MenuSeedFile, "JSON array of menu items")
	flag.Parse()

	if err := run(context.Background(), cfg.Store, *file, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, cfg appconfig.StoreConfig, file string, logger *log.Logger) error {
	if file == "" {
		logger.Print("no seed file given; pass -file or set MENU_SEED_FILE")
		return nil
	}
	store, closer, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	return menu.NewService(store, nil, logger).Seed(ctx, file)
}
