package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/coffices/backend/internal/places"
)

// GCSImageService copies upstream place photos into our own bucket so
// coffice records keep working if the upstream photo reference expires.
type GCSImageService struct {
	bucket     string
	places     places.Client
	httpClient *http.Client
}

func NewGCSImageService(bucket string, placesClient places.Client) *GCSImageService {
	return &GCSImageService{
		bucket: bucket,
		places: placesClient,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchAndStore downloads the photo behind photoReference and writes it to
// coffices/{placeID}.jpg, returning a tokenized download URL. Callers treat
// any error as "no image".
func (s *GCSImageService) FetchAndStore(ctx context.Context, photoReference, placeID string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("image bucket not configured")
	}

	src := s.places.PhotoURL(photoReference, 800)
	if src == "" {
		return "", fmt.Errorf("empty photo reference")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download photo: upstream returned %d", resp.StatusCode)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("storage client: %w", err)
	}
	defer client.Close()

	objectName := fmt.Sprintf("coffices/%s.jpg", placeID)
	token := uuid.New().String()

	obj := client.Bucket(s.bucket).Object(objectName)
	w := obj.NewWriter(ctx)
	w.ContentType = resp.Header.Get("Content-Type")
	if w.ContentType == "" {
		w.ContentType = "image/jpeg"
	}
	w.Metadata = map[string]string{
		"placeId":                       placeID,
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object: %w", err)
	}

	dl := downloadURL(s.bucket, objectName, token)
	log.Printf("[images] stored place photo place=%s object=%s", placeID, objectName)
	return dl, nil
}

// downloadURL builds a Firebase Storage style tokenized media URL.
func downloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
