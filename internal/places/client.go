// Package places wraps the upstream places web service used to resolve
// coffice metadata and to serve nearby-search requests on behalf of the UI.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/coffices/backend/internal/models"
)

// ErrNotFound is returned when upstream cannot resolve the requested place.
var ErrNotFound = errors.New("places: not found")

// Client defines the contract for querying the upstream places API.
type Client interface {
	Details(ctx context.Context, placeID string) (*models.PlaceMetadata, error)
	Nearby(ctx context.Context, lat, lng float64, radiusM int, keyword string) (json.RawMessage, error)
	PhotoURL(photoReference string, maxWidth int) string
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed places client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse places url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

// Details retrieves name, vicinity, coordinate and primary photo reference
// for a place identifier.
func (c *HTTPClient) Details(ctx context.Context, placeID string) (*models.PlaceMetadata, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "place_id,name,vicinity,geometry,photos")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("details/json", q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("places: unexpected status %d for place %q", resp.StatusCode, placeID)
		return nil, fmt.Errorf("places: upstream returned %d", resp.StatusCode)
	}

	var payload detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode place details: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("places: upstream status %q", payload.Status)
	}

	meta := &models.PlaceMetadata{
		PlaceID:   payload.Result.PlaceID,
		Name:      payload.Result.Name,
		Vicinity:  payload.Result.Vicinity,
		Latitude:  payload.Result.Geometry.Location.Lat,
		Longitude: payload.Result.Geometry.Location.Lng,
	}
	if meta.PlaceID == "" {
		meta.PlaceID = placeID
	}
	if len(payload.Result.Photos) > 0 {
		meta.PhotoReference = payload.Result.Photos[0].PhotoReference
	}
	return meta, nil
}

// Nearby proxies a nearby search and returns the raw upstream payload so the
// UI sees exactly what the places API produced.
func (c *HTTPClient) Nearby(ctx context.Context, lat, lng float64, radiusM int, keyword string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", radiusM))
	q.Set("type", "cafe")
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("nearbysearch/json", q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("places: nearby search returned %d", resp.StatusCode)
		return nil, fmt.Errorf("places: upstream returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nearby response: %w", err)
	}
	return json.RawMessage(body), nil
}

// PhotoURL builds the public photo endpoint for a photo reference.
func (c *HTTPClient) PhotoURL(photoReference string, maxWidth int) string {
	if photoReference == "" {
		return ""
	}
	if maxWidth <= 0 {
		maxWidth = 800
	}
	q := url.Values{}
	q.Set("photo_reference", photoReference)
	q.Set("maxwidth", fmt.Sprintf("%d", maxWidth))
	q.Set("key", c.apiKey)
	return c.endpoint("photo", q)
}

// endpoint joins an operation path onto the base URL, keeping whatever path
// prefix the base carries (e.g. /maps/api/place).
func (c *HTTPClient) endpoint(op string, q url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, op)
	u.RawQuery = q.Encode()
	return u.String()
}

// BatchResult holds the outcome of a DetailsBatch call. Failed identifiers
// are reported individually so callers can skip them without aborting.
type BatchResult struct {
	Resolved map[string]*models.PlaceMetadata
	Failed   map[string]error
}

// DetailsBatch resolves a list of place identifiers in fixed-size batches
// with a delay between batches to stay under upstream rate limits. Individual
// lookup failures are collected, never fatal.
func DetailsBatch(ctx context.Context, c Client, placeIDs []string, batchSize int, delay time.Duration) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = 5
	}
	out := &BatchResult{
		Resolved: make(map[string]*models.PlaceMetadata),
		Failed:   make(map[string]error),
	}

	for start := 0; start < len(placeIDs); start += batchSize {
		end := start + batchSize
		if end > len(placeIDs) {
			end = len(placeIDs)
		}
		for _, id := range placeIDs[start:end] {
			meta, err := c.Details(ctx, id)
			if err != nil {
				out.Failed[id] = err
				continue
			}
			out.Resolved[id] = meta
		}
		if end < len(placeIDs) && delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return out, nil
}
