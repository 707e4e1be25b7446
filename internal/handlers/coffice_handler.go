package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffices/backend/internal/geo"
	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/services"
)

// CofficeReader is the read surface the coffice endpoints need. Satisfied by
// services.CofficeService.
type CofficeReader interface {
	GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error)
	ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, limit int) ([]*models.Coffice, error)
}

type CofficeHandler struct {
	coffices CofficeReader
}

func NewCofficeHandler(coffices CofficeReader) *CofficeHandler {
	return &CofficeHandler{coffices: coffices}
}

func (h *CofficeHandler) GetCoffice(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	coffice, err := h.coffices.GetByPlaceID(ctx, placeID)
	if err != nil {
		if err == services.ErrCofficeNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Coffice not found"))
			return
		}
		log.Printf("[GetCoffice] place=%s error=%v", placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load coffice"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(coffice))
}

// ListCoffices returns aggregate records inside a bounding box. When the
// caller supplies its own coordinate the records are annotated with distance
// and sorted nearest-first.
func (h *CofficeHandler) ListCoffices(w http.ResponseWriter, r *http.Request) {
	minLat, ok1 := queryFloat(r, "min_lat")
	maxLat, ok2 := queryFloat(r, "max_lat")
	minLng, ok3 := queryFloat(r, "min_lng")
	maxLng, ok4 := queryFloat(r, "max_lng")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("min_lat, max_lat, min_lng and max_lng are required"))
		return
	}
	limit := queryInt(r, "limit", 200)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	coffices, err := h.coffices.ListByBounds(ctx, minLat, maxLat, minLng, maxLng, limit)
	if err != nil {
		log.Printf("[ListCoffices] error=%v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list coffices"))
		return
	}

	lat, hasLat := queryFloat(r, "lat")
	lng, hasLng := queryFloat(r, "lng")
	if hasLat && hasLng {
		origin := geo.Point{Lat: lat, Lng: lng}
		for _, c := range coffices {
			d := geo.DistanceMeters(origin, geo.Point{Lat: c.Latitude, Lng: c.Longitude})
			c.DistanceMeters = &d
		}
		sort.Slice(coffices, func(i, j int) bool {
			return *coffices[i].DistanceMeters < *coffices[j].DistanceMeters
		})
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(coffices))
}
