package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffices/backend/internal/models"
)

// Substrings that identify link-unfurling crawlers. Ordinary browsers are
// redirected to the interactive app instead.
var crawlerUserAgents = []string{
	"facebookexternalhit",
	"facebookcatalog",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"whatsapp",
	"telegrambot",
	"discordbot",
	"pinterest",
	"googlebot",
	"bingbot",
}

const previewTemplateText = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:type" content="website">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
{{if .ImageURL}}<meta property="og:image" content="{{.ImageURL}}">
{{end}}<meta name="twitter:card" content="{{if .ImageURL}}summary_large_image{{else}}summary{{end}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{if .ImageURL}}<meta name="twitter:image" content="{{.ImageURL}}">
{{end}}{{if .HasRating}}<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "CafeOrCoffeeShop",
  "name": {{.Name}},
  "address": {{.Vicinity}},
  "aggregateRating": {
    "@type": "AggregateRating",
    "ratingValue": {{.RatingValue}},
    "bestRating": "5",
    "worstRating": "1",
    "ratingCount": {{.RatingCount}}
  }
}
</script>
{{end}}</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<a href="{{.URL}}">Open in Coffices</a>
</body>
</html>
`

var previewTemplate = template.Must(template.New("preview").Parse(previewTemplateText))

type previewData struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	Name        string
	Vicinity    string
	HasRating   bool
	RatingValue string
	RatingCount int
}

// CofficeGetter is the single read the preview boundary needs.
type CofficeGetter interface {
	GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error)
}

// PreviewHandler renders share pages: rich static HTML for crawlers, a
// redirect into the app for everyone else. It never surfaces an error to a
// crawler; every failure falls back to generic content.
type PreviewHandler struct {
	coffices   CofficeGetter
	appBaseURL string
}

func NewPreviewHandler(coffices CofficeGetter, appBaseURL string) *PreviewHandler {
	return &PreviewHandler{
		coffices:   coffices,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

func isCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range crawlerUserAgents {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

func (h *PreviewHandler) SharePage(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	appURL := h.appBaseURL
	if placeID != "" {
		appURL = fmt.Sprintf("%s/coffices/%s", h.appBaseURL, placeID)
	}

	if !isCrawler(r.UserAgent()) {
		http.Redirect(w, r, appURL, http.StatusFound)
		return
	}

	data := previewData{
		Title:       "Coffices — find coffee shops to work from",
		Description: "Discover and rate coffee shops by wifi, power outlets, noise and coffee quality.",
		URL:         appURL,
	}

	if placeID != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		coffice, err := h.coffices.GetByPlaceID(ctx, placeID)
		if err != nil {
			log.Printf("[SharePage] place=%s fallback: %v", placeID, err)
		} else {
			data.Name = coffice.Name
			data.Vicinity = coffice.Vicinity
			data.Title = fmt.Sprintf("%s — Coffices", coffice.Name)
			data.Description = describeCoffice(coffice)
			data.ImageURL = coffice.PhotoURL
			if coffice.TotalRatings > 0 {
				data.HasRating = true
				data.RatingValue = fmt.Sprintf("%.1f", overallAverage(coffice))
				data.RatingCount = coffice.TotalRatings
			}
		}
	}

	h.render(w, data)
}

func (h *PreviewHandler) render(w http.ResponseWriter, data previewData) {
	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, data); err != nil {
		// Crawlers still get a 200 with minimal content.
		log.Printf("[SharePage] template error: %v", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<!DOCTYPE html><html><head><title>Coffices</title></head><body>Coffices</body></html>")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// describeCoffice builds the one-line summary shown under the link preview.
// Formatting to one decimal place happens here, at the presentation boundary.
func describeCoffice(c *models.Coffice) string {
	if c.TotalRatings == 0 {
		return fmt.Sprintf("%s · Not yet rated on Coffices", c.Vicinity)
	}

	parts := make([]string, 0, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		if mean, ok := c.AverageRatings[dim]; ok {
			parts = append(parts, fmt.Sprintf("%s %.1f", dim, mean))
		}
	}
	return fmt.Sprintf("%s · %s (%d ratings)", c.Vicinity, strings.Join(parts, " · "), c.TotalRatings)
}

// overallAverage is the mean of the per-dimension means, for the structured
// data snippet's single rating value.
func overallAverage(c *models.Coffice) float64 {
	if len(c.AverageRatings) == 0 {
		return 0
	}
	var sum float64
	for _, mean := range c.AverageRatings {
		sum += mean
	}
	return sum / float64(len(c.AverageRatings))
}
