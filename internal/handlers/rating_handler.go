package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffices/backend/internal/middleware"
	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/services"
)

// RatingSubmitter drives the submission flow. Satisfied by
// services.SubmissionService.
type RatingSubmitter interface {
	Submit(ctx context.Context, userID, email string, req *models.SubmitRatingRequest) (*models.SubmitRatingResponse, error)
}

type RatingHandler struct {
	submissions RatingSubmitter
	ratings     services.RatingStore
	coffices    CofficeReader
}

func NewRatingHandler(submissions RatingSubmitter, ratings services.RatingStore, coffices CofficeReader) *RatingHandler {
	return &RatingHandler{
		submissions: submissions,
		ratings:     ratings,
		coffices:    coffices,
	}
}

func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	email := middleware.GetUserEmail(r.Context())

	var req models.SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	// The path, not the body, decides which place is being rated.
	req.Place.PlaceID = chi.URLParam(r, "placeID")

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.submissions.Submit(ctx, userID, email, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRating) {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(req.Validate()))
			return
		}
		log.Printf("[SubmitRating] user=%s place=%s error=%v", userID, req.Place.PlaceID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to submit rating, please retry"))
		return
	}

	// Hand the UI the fresh aggregate so it can refresh in place.
	if coffice, err := h.coffices.GetByPlaceID(ctx, req.Place.PlaceID); err == nil {
		resp.Coffice = coffice
	}

	status := http.StatusOK
	if resp.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, models.NewSuccessResponse(resp))
}

// GetOwnRating returns the caller's rating for a place, if any. The UI uses
// it to pre-fill the rating form.
func (h *RatingHandler) GetOwnRating(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	placeID := chi.URLParam(r, "placeID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rating, err := h.ratings.Get(ctx, userID, placeID)
	if err != nil {
		if err == services.ErrRatingNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Rating not found"))
			return
		}
		log.Printf("[GetOwnRating] user=%s place=%s error=%v", userID, placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load rating"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rating))
}
