package services

import (
	"context"
	"time"

	"github.com/coffices/backend/internal/models"
)

// Reconciler folds ratings into aggregate records. Satisfied by
// CofficeService.
type Reconciler interface {
	Reconcile(ctx context.Context, place models.PlaceMetadata, scores models.RatingScores) error
}

// SubmissionService drives the multi-step rating submission flow. The steps
// are strictly sequential but not transactional: a failure partway leaves
// the earlier writes in place and is surfaced for manual retry.
type SubmissionService struct {
	coffices Reconciler
	ratings  RatingStore
	profiles ProfileStore
	now      func() time.Time
}

func NewSubmissionService(coffices Reconciler, ratings RatingStore, profiles ProfileStore) *SubmissionService {
	return &SubmissionService{
		coffices: coffices,
		ratings:  ratings,
		profiles: profiles,
		now:      time.Now,
	}
}

// Submit validates and records one user's rating for a place.
//
// Order matters: the aggregate is reconciled before the individual rating
// document is written, and isNewRating is decided by the read in step one.
// Submitting twice therefore folds the scores into the aggregate twice (the
// original behavior) but never double-counts the profile counter.
func (s *SubmissionService) Submit(ctx context.Context, userID, email string, req *models.SubmitRatingRequest) (*models.SubmitRatingResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, ErrInvalidRating
	}

	// Step 1: does this user already have a rating for this place?
	isNew := false
	_, err := s.ratings.Get(ctx, userID, req.Place.PlaceID)
	switch err {
	case nil:
	case ErrRatingNotFound:
		isNew = true
	default:
		return nil, &SubmissionError{Step: "read existing rating", Err: err}
	}

	// Step 2: fold into (or create) the aggregate record.
	if err := s.coffices.Reconcile(ctx, req.Place, req.Scores()); err != nil {
		return nil, &SubmissionError{Step: "reconcile aggregate", Err: err}
	}

	// Step 3: persist the individual rating, overwriting any prior value.
	rating := &models.Rating{
		ID:        models.RatingID(userID, req.Place.PlaceID),
		UserID:    userID,
		PlaceID:   req.Place.PlaceID,
		Scores:    req.Scores(),
		Comment:   req.Comment,
		PlaceName: req.Place.Name,
		UserEmail: email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.ratings.Put(ctx, rating); err != nil {
		return nil, &SubmissionError{Step: "persist rating", Err: err}
	}

	// Step 4: first-ever rating for this user+place bumps the profile counter.
	if isNew {
		if err := s.profiles.IncrementRatedCount(ctx, userID); err != nil {
			return nil, &SubmissionError{Step: "update profile counter", Err: err}
		}
	}

	return &models.SubmitRatingResponse{Rating: rating, IsNew: isNew}, nil
}
