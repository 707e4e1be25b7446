package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/places"
)

// CofficeWriter is the slice of the aggregate store the backfill job writes
// through.
type CofficeWriter interface {
	BulkReplace(ctx context.Context, coffices []*models.Coffice) error
}

// MigrationService rebuilds aggregate records from the full individual
// rating history. Built for places that predate the aggregate-record design;
// safe to re-run, since the output is a pure function of the rating history.
type MigrationService struct {
	ratings  RatingStore
	places   places.Client
	coffices CofficeWriter

	// Fixed batching against upstream rate limits.
	BatchSize  int
	BatchDelay time.Duration
}

func NewMigrationService(ratings RatingStore, placesClient places.Client, coffices CofficeWriter) *MigrationService {
	return &MigrationService{
		ratings:    ratings,
		places:     placesClient,
		coffices:   coffices,
		BatchSize:  5,
		BatchDelay: time.Second,
	}
}

// MigrationReport summarizes one MigrateAll invocation.
type MigrationReport struct {
	RatingsScanned int
	PlacesFound    int
	PlacesMigrated int
	PlacesSkipped  []string
}

// MigrateAll scans every rating, groups by place, resolves place metadata
// upstream and writes one aggregate record per resolved place in a single
// bulk commit. Lookup failures skip that place; a bulk-write failure is
// fatal to the invocation.
func (m *MigrationService) MigrateAll(ctx context.Context) (*MigrationReport, error) {
	all, err := m.ratings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan ratings: %w", err)
	}

	groups := make(map[string][]*models.Rating)
	for _, r := range all {
		groups[r.PlaceID] = append(groups[r.PlaceID], r)
	}

	placeIDs := make([]string, 0, len(groups))
	for id := range groups {
		placeIDs = append(placeIDs, id)
	}
	// Deterministic order keeps re-runs reproducible and logs readable.
	sort.Strings(placeIDs)

	report := &MigrationReport{
		RatingsScanned: len(all),
		PlacesFound:    len(placeIDs),
	}
	if len(placeIDs) == 0 {
		return report, nil
	}

	batch, err := places.DetailsBatch(ctx, m.places, placeIDs, m.BatchSize, m.BatchDelay)
	if err != nil {
		return nil, fmt.Errorf("resolve place metadata: %w", err)
	}
	for id, lookupErr := range batch.Failed {
		log.Printf("[migrate] skipping place=%s lookup failed: %v", id, lookupErr)
		report.PlacesSkipped = append(report.PlacesSkipped, id)
	}
	sort.Strings(report.PlacesSkipped)

	coffices := make([]*models.Coffice, 0, len(batch.Resolved))
	for _, id := range placeIDs {
		meta, ok := batch.Resolved[id]
		if !ok {
			continue
		}
		coffices = append(coffices, buildAggregate(meta, groups[id]))
	}

	if err := m.coffices.BulkReplace(ctx, coffices); err != nil {
		return nil, fmt.Errorf("bulk write aggregates: %w", err)
	}
	report.PlacesMigrated = len(coffices)
	return report, nil
}

// buildAggregate derives one aggregate record from a place's rating history.
// Timestamps come from the history itself, not the wall clock, so re-running
// the migration over unchanged ratings produces identical records.
func buildAggregate(meta *models.PlaceMetadata, ratings []*models.Rating) *models.Coffice {
	averages, total := groupAverages(ratings)

	created := ratings[0].CreatedAt
	updated := ratings[0].CreatedAt
	for _, r := range ratings[1:] {
		if r.CreatedAt.Before(created) {
			created = r.CreatedAt
		}
		if r.CreatedAt.After(updated) {
			updated = r.CreatedAt
		}
	}

	return &models.Coffice{
		PlaceID:        meta.PlaceID,
		Name:           meta.Name,
		Vicinity:       meta.Vicinity,
		Latitude:       meta.Latitude,
		Longitude:      meta.Longitude,
		TotalRatings:   total,
		AverageRatings: averages,
		CreatedAt:      created.UTC(),
		UpdatedAt:      updated.UTC(),
	}
}
