// Package storage uploads generated audio to an S3-compatible object store
// exposed over the Supabase storage HTTP API and hands back public URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Uploader writes objects into one public bucket.
type Uploader struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// NewUploader creates an uploader for the given project URL and bucket.
func NewUploader(baseURL, serviceKey, bucket string, timeout time.Duration) *Uploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upload stores data under path in the bucket, overwriting any existing
// object, and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", u.baseURL, u.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("storage: build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	res, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("storage: upload %s: status %d: %s", path, res.StatusCode, string(body))
	}

	return u.PublicURL(path), nil
}

// PublicURL returns the unauthenticated URL for an object in the bucket.
func (u *Uploader) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, path)
}
