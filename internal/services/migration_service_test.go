package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/coffices/backend/internal/models"
)

func seedHistory(ratings *fakeRatingStore) {
	base := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	history := []*models.Rating{
		{UserID: "u1", PlaceID: "p1", Scores: models.RatingScores{"wifi": 5, "power": 4, "noise": 3, "coffee": 5}, CreatedAt: base},
		{UserID: "u2", PlaceID: "p1", Scores: models.RatingScores{"wifi": 3, "power": 4, "noise": 1, "coffee": 3}, CreatedAt: base.Add(48 * time.Hour)},
		{UserID: "u1", PlaceID: "p2", Scores: models.RatingScores{"wifi": 2}, CreatedAt: base.Add(time.Hour)},
		{UserID: "u3", PlaceID: "p3", Scores: models.RatingScores{"wifi": 4, "power": 4, "noise": 4, "coffee": 4}, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, r := range history {
		r.ID = models.RatingID(r.UserID, r.PlaceID)
		ratings.byID[r.ID] = r
	}
}

func newMigrationFixture() (*MigrationService, *fakeRatingStore, *fakePlacesClient, *fakeCofficeStore) {
	ratings := newFakeRatingStore()
	pc := &fakePlacesClient{metadata: map[string]*models.PlaceMetadata{
		"p1": {PlaceID: "p1", Name: "Alpha Cafe", Vicinity: "1 A St", Latitude: 1, Longitude: 2},
		"p2": {PlaceID: "p2", Name: "Beta Beans", Vicinity: "2 B St", Latitude: 3, Longitude: 4},
		"p3": {PlaceID: "p3", Name: "Gamma Grounds", Vicinity: "3 C St", Latitude: 5, Longitude: 6},
	}}
	store := newFakeCofficeStore()

	svc := NewMigrationService(ratings, pc, store)
	svc.BatchSize = 2
	svc.BatchDelay = 0
	return svc, ratings, pc, store
}

func TestMigrateAllBuildsAggregatesFromHistory(t *testing.T) {
	svc, ratings, _, store := newMigrationFixture()
	seedHistory(ratings)

	report, err := svc.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	if report.RatingsScanned != 4 || report.PlacesFound != 3 || report.PlacesMigrated != 3 {
		t.Errorf("report = %+v", report)
	}
	if store.bulkCalls != 1 {
		t.Errorf("bulk writes = %d, want a single commit", store.bulkCalls)
	}

	p1 := store.byID["p1"]
	if p1 == nil {
		t.Fatal("p1 aggregate missing")
	}
	if p1.TotalRatings != 2 {
		t.Errorf("p1 TotalRatings = %d, want 2", p1.TotalRatings)
	}
	want := map[string]float64{"wifi": 4.0, "power": 4.0, "noise": 2.0, "coffee": 4.0}
	if !reflect.DeepEqual(p1.AverageRatings, want) {
		t.Errorf("p1 averages = %v, want %v", p1.AverageRatings, want)
	}
	if p1.Name != "Alpha Cafe" {
		t.Errorf("p1 metadata not applied: %+v", p1)
	}
	// Timestamps derive from the history, earliest and latest.
	if !p1.CreatedAt.Equal(time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("p1 CreatedAt = %v", p1.CreatedAt)
	}
	if !p1.UpdatedAt.Equal(time.Date(2023, 3, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("p1 UpdatedAt = %v", p1.UpdatedAt)
	}

	p2 := store.byID["p2"]
	if p2.TotalRatings != 1 || !almostEqual(p2.AverageRatings["wifi"], 2) {
		t.Errorf("p2 aggregate = %+v", p2)
	}
	if _, present := p2.AverageRatings["coffee"]; present {
		t.Error("p2 must not have a coffee mean; no rating supplied one")
	}
}

func TestMigrateAllSkipsFailedLookups(t *testing.T) {
	svc, ratings, pc, store := newMigrationFixture()
	seedHistory(ratings)
	delete(pc.metadata, "p2")

	report, err := svc.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	if report.PlacesMigrated != 2 {
		t.Errorf("PlacesMigrated = %d, want 2", report.PlacesMigrated)
	}
	if !reflect.DeepEqual(report.PlacesSkipped, []string{"p2"}) {
		t.Errorf("PlacesSkipped = %v, want [p2]", report.PlacesSkipped)
	}
	if _, exists := store.byID["p2"]; exists {
		t.Error("skipped place must not be written")
	}
}

func TestMigrateAllIdempotentOverUnchangedHistory(t *testing.T) {
	svc, ratings, _, store := newMigrationFixture()
	seedHistory(ratings)

	if _, err := svc.MigrateAll(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := make(map[string]models.Coffice, len(store.byID))
	for id, c := range store.byID {
		first[id] = *c
	}

	if _, err := svc.MigrateAll(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	for id, c := range store.byID {
		if !reflect.DeepEqual(first[id], *c) {
			t.Errorf("aggregate %s changed between runs:\nfirst:  %+v\nsecond: %+v", id, first[id], *c)
		}
	}
}

func TestMigrateAllBulkWriteFailureIsFatal(t *testing.T) {
	svc, ratings, _, store := newMigrationFixture()
	seedHistory(ratings)
	store.bulkErr = errors.New("bulk write rejected")

	if _, err := svc.MigrateAll(context.Background()); !errors.Is(err, store.bulkErr) {
		t.Errorf("err = %v, want wrapped bulk failure", err)
	}
}

func TestMigrateAllEmptyHistoryDoesNothing(t *testing.T) {
	svc, _, _, store := newMigrationFixture()

	report, err := svc.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	if report.PlacesFound != 0 || store.bulkCalls != 0 {
		t.Errorf("expected no work, report=%+v bulkCalls=%d", report, store.bulkCalls)
	}
}
