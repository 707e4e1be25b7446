package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/coffices/backend/internal/config"
	"github.com/coffices/backend/internal/places"
	"github.com/coffices/backend/internal/services"
)

// One-shot backfill: rebuilds every aggregate coffice record from the full
// rating history. Safe to re-run; the output is a pure function of the
// ratings, so a second pass over unchanged data rewrites identical records.
func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "overall deadline for the backfill run")
	flag.Parse()

	cfg := config.Load()
	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI env var is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ratingService, err := services.NewMongoRatingService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize rating service: %v", err)
	}
	defer ratingService.Close(ctx)

	cofficeStore, err := services.NewMongoCofficeStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize coffice store: %v", err)
	}
	defer cofficeStore.Close(ctx)

	placesClient, err := places.NewHTTPClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.PlacesTimeout, nil)
	if err != nil {
		log.Fatalf("Failed to initialize places client: %v", err)
	}

	migration := services.NewMigrationService(ratingService, placesClient, cofficeStore)
	migration.BatchSize = cfg.MigrationBatchSize
	migration.BatchDelay = cfg.MigrationBatchDelay

	log.Printf("[migrate] starting backfill (batch_size=%d batch_delay=%s db=%s)",
		migration.BatchSize, migration.BatchDelay, cfg.MongoDB)

	start := time.Now()
	report, err := migration.MigrateAll(ctx)
	if err != nil {
		log.Fatalf("[migrate] backfill failed: %v", err)
	}

	log.Printf("[migrate] done in %s: ratings_scanned=%d places_found=%d places_migrated=%d places_skipped=%d",
		time.Since(start).Round(time.Millisecond),
		report.RatingsScanned, report.PlacesFound, report.PlacesMigrated, len(report.PlacesSkipped))
	for _, id := range report.PlacesSkipped {
		log.Printf("[migrate] skipped place=%s (metadata lookup failed, its ratings remain unaggregated)", id)
	}
}
