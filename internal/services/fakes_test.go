package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/places"
)

// fakeCofficeStore is an in-memory CofficeStore. Insert overwrites, like the
// real store's upsert.
type fakeCofficeStore struct {
	byID      map[string]*models.Coffice
	insertErr error
	updateErr error
	bulkErr   error
	bulkCalls int
}

func newFakeCofficeStore() *fakeCofficeStore {
	return &fakeCofficeStore{byID: make(map[string]*models.Coffice)}
}

func (f *fakeCofficeStore) GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error) {
	c, ok := f.byID[placeID]
	if !ok {
		return nil, ErrCofficeNotFound
	}
	cp := *c
	cp.AverageRatings = make(map[string]float64, len(c.AverageRatings))
	for k, v := range c.AverageRatings {
		cp.AverageRatings[k] = v
	}
	return &cp, nil
}

func (f *fakeCofficeStore) Insert(ctx context.Context, coffice *models.Coffice) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.byID[coffice.PlaceID] = coffice
	return nil
}

func (f *fakeCofficeStore) UpdateAggregate(ctx context.Context, placeID string, averages map[string]float64, total int, updatedAt time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	c, ok := f.byID[placeID]
	if !ok {
		return ErrCofficeNotFound
	}
	c.AverageRatings = averages
	c.TotalRatings = total
	c.UpdatedAt = updatedAt
	return nil
}

func (f *fakeCofficeStore) Touch(ctx context.Context, placeID string, updatedAt time.Time) error {
	c, ok := f.byID[placeID]
	if !ok {
		return ErrCofficeNotFound
	}
	c.UpdatedAt = updatedAt
	return nil
}

func (f *fakeCofficeStore) ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, limit int) ([]*models.Coffice, error) {
	out := make([]*models.Coffice, 0)
	for _, c := range f.byID {
		if c.Latitude >= minLat && c.Latitude <= maxLat && c.Longitude >= minLng && c.Longitude <= maxLng {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCofficeStore) BulkReplace(ctx context.Context, coffices []*models.Coffice) error {
	f.bulkCalls++
	if f.bulkErr != nil {
		return f.bulkErr
	}
	for _, c := range coffices {
		f.byID[c.PlaceID] = c
	}
	return nil
}

// fakePlacesClient serves scripted metadata.
type fakePlacesClient struct {
	metadata     map[string]*models.PlaceMetadata
	detailsCalls int
}

func (f *fakePlacesClient) Details(ctx context.Context, placeID string) (*models.PlaceMetadata, error) {
	f.detailsCalls++
	m, ok := f.metadata[placeID]
	if !ok {
		return nil, places.ErrNotFound
	}
	return m, nil
}

func (f *fakePlacesClient) Nearby(ctx context.Context, lat, lng float64, radiusM int, keyword string) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePlacesClient) PhotoURL(ref string, maxWidth int) string {
	if ref == "" {
		return ""
	}
	return "https://photos.example/" + ref
}

// fakeImageStore records calls and returns a canned URL.
type fakeImageStore struct {
	calls []string
	err   error
}

func (f *fakeImageStore) FetchAndStore(ctx context.Context, photoReference, placeID string) (string, error) {
	f.calls = append(f.calls, placeID)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/coffices/" + placeID + ".jpg", nil
}

// fakeRatingStore is an in-memory RatingStore.
type fakeRatingStore struct {
	byID    map[string]*models.Rating
	getErr  error
	putErr  error
	listErr error
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{byID: make(map[string]*models.Rating)}
}

func (f *fakeRatingStore) Get(ctx context.Context, userID, placeID string) (*models.Rating, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.byID[models.RatingID(userID, placeID)]
	if !ok {
		return nil, ErrRatingNotFound
	}
	return r, nil
}

func (f *fakeRatingStore) Put(ctx context.Context, rating *models.Rating) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.byID[rating.ID] = rating
	return nil
}

func (f *fakeRatingStore) ListAll(ctx context.Context) ([]*models.Rating, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Rating, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, nil
}

// fakeProfileStore counts increments per user.
type fakeProfileStore struct {
	increments map[string]int
	err        error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{increments: make(map[string]int)}
}

func (f *fakeProfileStore) IncrementRatedCount(ctx context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.increments[userID]++
	return nil
}
