package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/playmatatu/eightball/internal/archive"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/database"
	"github.com/playmatatu/eightball/internal/migrations"
)

func main() {
	dir := flag.String("dir", "migrations", "migrations directory")
	recent := flag.Int("recent", 0, "print the latest N archived results after migrating")
	flag.Parse()

	// Initialize configuration (.env is loaded by config.Load)
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	if err := migrations.RunMigrations(cfg.DatabaseURL, *dir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("✓ Schema is up to date")

	if *recent <= 0 {
		return
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := archive.NewStore(db).Recent(ctx, *recent)
	if err != nil {
		log.Fatalf("Failed to load results: %v", err)
	}
	for _, r := range results {
		log.Printf("  %s  %s vs %s -> %s (%s, %d shots)",
			r.CompletedAt.Format(time.RFC3339), r.Player1Name, r.Player2Name, r.WinnerName, r.WinType, r.Shots)
	}
}
