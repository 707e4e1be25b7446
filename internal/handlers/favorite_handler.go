package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffices/backend/internal/middleware"
	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/services"
)

type FavoriteHandler struct {
	profiles *services.MongoProfileService
	coffices CofficeReader
}

func NewFavoriteHandler(profiles *services.MongoProfileService, coffices CofficeReader) *FavoriteHandler {
	return &FavoriteHandler{profiles: profiles, coffices: coffices}
}

func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	placeID := chi.URLParam(r, "placeID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.profiles.AddFavorite(ctx, userID, placeID); err != nil {
		log.Printf("[AddFavorite] user=%s place=%s error=%v", userID, placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to add favorite"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(map[string]string{"place_id": placeID}))
}

func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	placeID := chi.URLParam(r, "placeID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.profiles.RemoveFavorite(ctx, userID, placeID); err != nil {
		if err == services.ErrProfileNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Favorite not found"))
			return
		}
		log.Printf("[RemoveFavorite] user=%s place=%s error=%v", userID, placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to remove favorite"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Favorite removed successfully"}))
}

// ListFavorites resolves the caller's favorite place identifiers to full
// aggregate records, skipping entries whose record no longer exists.
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if err == services.ErrProfileNotFound {
			writeJSON(w, http.StatusOK, models.NewSuccessResponse([]*models.Coffice{}))
			return
		}
		log.Printf("[ListFavorites] user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list favorites"))
		return
	}

	out := make([]*models.Coffice, 0, len(prof.Favorites))
	for _, placeID := range prof.Favorites {
		coffice, err := h.coffices.GetByPlaceID(ctx, placeID)
		if err != nil {
			if err == services.ErrCofficeNotFound {
				continue
			}
			log.Printf("[ListFavorites] user=%s place=%s error=%v", userID, placeID, err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list favorites"))
			return
		}
		out = append(out, coffice)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(out))
}
