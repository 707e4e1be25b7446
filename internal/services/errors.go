package services

import (
	"errors"
	"fmt"
)

var (
	ErrCofficeNotFound = errors.New("coffice not found")
	ErrRatingNotFound  = errors.New("rating not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrMissingPlaceID  = errors.New("place metadata is missing an identifier")
	ErrInvalidRating   = errors.New("rating must score all four dimensions between 1 and 5")
)

// AggregationError wraps a persistence failure inside aggregate reconciliation.
type AggregationError struct {
	PlaceID string
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("reconcile coffice %s: %v", e.PlaceID, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// SubmissionError wraps a failure from one step of the rating submission
// flow. Earlier steps are not rolled back; the caller retries manually.
type SubmissionError struct {
	Step string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit rating: %s: %v", e.Step, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
