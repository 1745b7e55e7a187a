package main

import (
	"context"
	"log"

	"github.com/coolshop/kbbridge/pkg/db"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ No .env file found")
	} else {
		log.Println("✓ Loaded .env file")
	}

	ctx := context.Background()

	var cfg db.Config
	if err := envconfig.Process("DB", &cfg); err != nil {
		log.Fatalf("failed to process env vars: %v", err)
	}

	if cfg.Driver == db.DriverSQLite && cfg.DSN == "" {
		log.Println("ℹ DB_DSN not set; migrating a throwaway in-memory database")
	}

	database, err := db.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Running migrations...")
	if err := db.Migrate(ctx, database, kblog.NewDefault()); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	log.Println("Migrations completed successfully.")
}
