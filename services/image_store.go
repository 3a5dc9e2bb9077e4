package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"citypulse/utils/errors"
)

// ImageStore turns an inline image payload (base64 data URL) into a
// durable HTTPS URL. Profile pictures, event images and post images all
// pass through it opaquely.
type ImageStore interface {
	Upload(ctx context.Context, dataURL string) (string, error)
}

// HTTPImageStore posts payloads to an external store endpoint and
// expects {"url": "..."} back.
type HTTPImageStore struct {
	endpoint string
	client   *http.Client
}

func NewHTTPImageStore(endpoint string) *HTTPImageStore {
	return &HTTPImageStore{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPImageStore) Upload(ctx context.Context, dataURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"image": dataURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "IMAGE_STORE_ERROR", "Failed to upload image", http.StatusInternalServerError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewAPIError("IMAGE_STORE_ERROR", "Failed to upload image", http.StatusInternalServerError)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "IMAGE_STORE_ERROR", "Malformed image store response", http.StatusInternalServerError)
	}
	return out.URL, nil
}
