package services

import (
	"context"
	"log"
	"time"

	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/places"
)

// CofficeStore is the persistence surface for aggregate records. Implemented
// by MongoCofficeStore; tests substitute an in-memory fake.
type CofficeStore interface {
	GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error)
	Insert(ctx context.Context, coffice *models.Coffice) error
	UpdateAggregate(ctx context.Context, placeID string, averages map[string]float64, total int, updatedAt time.Time) error
	Touch(ctx context.Context, placeID string, updatedAt time.Time) error
	ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, limit int) ([]*models.Coffice, error)
	BulkReplace(ctx context.Context, coffices []*models.Coffice) error
}

// ImageStore copies an upstream place photo into our own storage and returns
// a stable URL. Failures degrade to "no image".
type ImageStore interface {
	FetchAndStore(ctx context.Context, photoReference, placeID string) (string, error)
}

// CofficeService maintains aggregate coffice records: one record per place,
// running averages reflecting every folded rating exactly once.
type CofficeService struct {
	store  CofficeStore
	places places.Client
	images ImageStore
	now    func() time.Time
}

func NewCofficeService(store CofficeStore, placesClient places.Client, images ImageStore) *CofficeService {
	return &CofficeService{
		store:  store,
		places: placesClient,
		images: images,
		now:    time.Now,
	}
}

// Reconcile ensures an aggregate record exists for the place and, when a
// rating is supplied, folds it into the running averages.
//
// The read-modify-write here is not transactional: two concurrent callers can
// race and one fold can be lost, and a concurrent first-time creation is
// last-write-wins. Known gap carried over from the original flow.
func (s *CofficeService) Reconcile(ctx context.Context, place models.PlaceMetadata, scores models.RatingScores) error {
	if place.PlaceID == "" {
		return ErrMissingPlaceID
	}

	existing, err := s.store.GetByPlaceID(ctx, place.PlaceID)
	if err != nil && err != ErrCofficeNotFound {
		return &AggregationError{PlaceID: place.PlaceID, Err: err}
	}

	now := s.now().UTC()

	if existing == nil {
		coffice := &models.Coffice{
			PlaceID:        place.PlaceID,
			Name:           place.Name,
			Vicinity:       place.Vicinity,
			Latitude:       place.Latitude,
			Longitude:      place.Longitude,
			AverageRatings: map[string]float64{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if len(scores) > 0 {
			coffice.TotalRatings = 1
			coffice.AverageRatings = initialAverages(scores)
		}
		coffice.PhotoURL = s.resolvePhoto(ctx, place)

		if err := s.store.Insert(ctx, coffice); err != nil {
			return &AggregationError{PlaceID: place.PlaceID, Err: err}
		}
		return nil
	}

	if len(scores) == 0 {
		// Pure metadata sync.
		if err := s.store.Touch(ctx, place.PlaceID, now); err != nil {
			return &AggregationError{PlaceID: place.PlaceID, Err: err}
		}
		return nil
	}

	averages := foldScores(existing.AverageRatings, existing.TotalRatings, scores)
	if err := s.store.UpdateAggregate(ctx, place.PlaceID, averages, existing.TotalRatings+1, now); err != nil {
		return &AggregationError{PlaceID: place.PlaceID, Err: err}
	}
	return nil
}

// resolvePhoto finds an image for a brand-new record. When the caller's
// metadata has no photo reference we try one richer details fetch before
// giving up. The copy into our storage is best-effort; a failure just means
// no image.
func (s *CofficeService) resolvePhoto(ctx context.Context, place models.PlaceMetadata) string {
	ref := place.PhotoReference
	if ref == "" && s.places != nil {
		richer, err := s.places.Details(ctx, place.PlaceID)
		if err != nil {
			log.Printf("[coffices] details re-fetch failed place=%s err=%v", place.PlaceID, err)
		} else {
			ref = richer.PhotoReference
		}
	}
	if ref == "" || s.images == nil {
		return ""
	}

	url, err := s.images.FetchAndStore(ctx, ref, place.PlaceID)
	if err != nil {
		log.Printf("[coffices] image store failed place=%s err=%v", place.PlaceID, err)
		return ""
	}
	return url
}

// GetByPlaceID returns one aggregate record.
func (s *CofficeService) GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error) {
	return s.store.GetByPlaceID(ctx, placeID)
}

// ListByBounds returns aggregate records within a lat/lng box.
func (s *CofficeService) ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, limit int) ([]*models.Coffice, error) {
	return s.store.ListByBounds(ctx, minLat, maxLat, minLng, maxLng, limit)
}

// BulkReplace writes a batch of aggregate records in one commit. Used by the
// backfill job.
func (s *CofficeService) BulkReplace(ctx context.Context, coffices []*models.Coffice) error {
	return s.store.BulkReplace(ctx, coffices)
}
