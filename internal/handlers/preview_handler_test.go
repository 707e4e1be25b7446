package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffices/backend/internal/models"
	"github.com/coffices/backend/internal/services"
)

type fakeCofficeGetter struct {
	byID map[string]*models.Coffice
	err  error
}

func (f *fakeCofficeGetter) GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[placeID]
	if !ok {
		return nil, services.ErrCofficeNotFound
	}
	return c, nil
}

func previewRouter(getter CofficeGetter) http.Handler {
	h := NewPreviewHandler(getter, "https://coffices.app/")
	r := chi.NewRouter()
	r.Get("/share/{placeID}", h.SharePage)
	r.Get("/share", h.SharePage)
	return r
}

func testCoffice() *models.Coffice {
	return &models.Coffice{
		PlaceID:      "p1",
		Name:         "Third Wave Roasters",
		Vicinity:     "12 High St, London",
		Latitude:     51.5,
		Longitude:    -0.12,
		PhotoURL:     "https://cdn.example/coffices/p1.jpg",
		TotalRatings: 2,
		AverageRatings: map[string]float64{
			"wifi": 4, "power": 4, "noise": 2, "coffee": 4,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestSharePageRedirectsBrowsers(t *testing.T) {
	router := previewRouter(&fakeCofficeGetter{byID: map[string]*models.Coffice{"p1": testCoffice()}})

	req := httptest.NewRequest(http.MethodGet, "/share/p1", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://coffices.app/coffices/p1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestSharePageRendersRichHTMLForCrawlers(t *testing.T) {
	router := previewRouter(&fakeCofficeGetter{byID: map[string]*models.Coffice{"p1": testCoffice()}})

	agents := []string{
		"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
		"Twitterbot/1.0",
		"Slackbot-LinkExpanding 1.0",
		"WhatsApp/2.19.81",
	}
	for _, ua := range agents {
		t.Run(ua, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/share/p1", nil)
			req.Header.Set("User-Agent", ua)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			for _, want := range []string{
				`og:title`,
				`Third Wave Roasters`,
				`twitter:card`,
				`summary_large_image`,
				`https://cdn.example/coffices/p1.jpg`,
				`application/ld+json`,
				`"ratingCount": 2`,
			} {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			// Display formatting is one decimal place.
			if !strings.Contains(body, "wifi 4.0") {
				t.Errorf("description not formatted: %s", body)
			}
		})
	}
}

func TestSharePageFallsBackOnUnknownPlace(t *testing.T) {
	router := previewRouter(&fakeCofficeGetter{byID: map[string]*models.Coffice{}})

	req := httptest.NewRequest(http.MethodGet, "/share/nope", nil)
	req.Header.Set("User-Agent", "Twitterbot/1.0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (never an error toward crawlers)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Coffices") {
		t.Error("generic fallback content missing")
	}
}

func TestSharePageFallsBackOnStoreFailure(t *testing.T) {
	router := previewRouter(&fakeCofficeGetter{err: errors.New("mongo down")})

	req := httptest.NewRequest(http.MethodGet, "/share/p1", nil)
	req.Header.Set("User-Agent", "facebookexternalhit/1.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "og:title") {
		t.Error("fallback still renders meta tags")
	}
}

func TestSharePageWithoutPlaceID(t *testing.T) {
	router := previewRouter(&fakeCofficeGetter{})

	req := httptest.NewRequest(http.MethodGet, "/share", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://coffices.app" {
		t.Errorf("Location = %q", loc)
	}
}

func TestIsCrawler(t *testing.T) {
	if isCrawler("Mozilla/5.0 (Windows NT 10.0) Chrome/120.0") {
		t.Error("browser classified as crawler")
	}
	if !isCrawler("Mozilla/5.0 (compatible; Googlebot/2.1)") {
		t.Error("googlebot not classified as crawler")
	}
	if isCrawler("") {
		t.Error("empty user agent classified as crawler")
	}
}
