package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/places"
)

type PlacesHandler struct {
	places  places.Client
	timeout time.Duration
}

func NewPlacesHandler(placesClient places.Client, timeout time.Duration) *PlacesHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PlacesHandler{places: placesClient, timeout: timeout}
}

// Nearby proxies the upstream nearby search so the browser never sees the
// API key. The upstream payload passes through untouched.
func (h *PlacesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lng, okLng := queryFloat(r, "lng")
	if !okLat || !okLng {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("lat and lng are required"))
		return
	}
	radius := queryInt(r, "radius", 1500)
	keyword := r.URL.Query().Get("keyword")

	// The one fixed timeout in the system wraps this proxy call.
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := h.places.Nearby(ctx, lat, lng, radius, keyword)
	if err != nil {
		log.Printf("[Nearby] lat=%f lng=%f error=%v", lat, lng, err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Nearby search failed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
