package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StorageClient defines what we need from Supabase storage: a one-shot
// signed upload slot and a signed read URL for an already-stored object.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
	CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, bool, error)
}

// HTTPClient is a StorageClient backed by the Supabase storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedURLResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by the sign APIs
	Path           string `json:"path"`
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return c.Client
}

func (c *HTTPClient) checkConfig() error {
	if c.BaseURL == "" {
		return fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	return nil
}

func (c *HTTPClient) sign(ctx context.Context, url string, body map[string]interface{}) (*signedURLResponse, int, error) {
	bodyBytes, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, err
	}
	// Match @supabase/supabase-js: both apikey and Authorization Bearer (same key)
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	var data signedURLResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("supabase response decode: %w", err)
	}
	return &data, resp.StatusCode, nil
}

// signedURLFrom picks whichever URL field the API populated; relative URLs
// are resolved against the project base.
func (c *HTTPClient) signedURLFrom(data *signedURLResponse) (string, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	if data.SignedURL != "" {
		return data.SignedURL, nil
	}
	if data.SignedURLSnake != "" {
		return data.SignedURLSnake, nil
	}
	if data.URL != "" {
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL")
}

// CreateSignedUploadURL returns a short-lived write slot for one object.
func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	if err := c.checkConfig(); err != nil {
		return "", err
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, path)
	data, _, err := c.sign(ctx, url, map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	if err != nil {
		return "", err
	}
	return c.signedURLFrom(data)
}

// CreateSignedURL returns a signed read URL for a stored object. The bool
// reports whether the object exists: (_, false, nil) means the reference is
// unknown or expired, which is a normal outcome, not an error.
func (c *HTTPClient) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, bool, error) {
	if err := c.checkConfig(); err != nil {
		return "", false, err
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", base, bucket, path)
	data, status, err := c.sign(ctx, url, map[string]interface{}{"expiresIn": expiresIn})
	if err != nil {
		if status == http.StatusNotFound || status == http.StatusBadRequest {
			return "", false, nil
		}
		return "", false, err
	}
	signed, err := c.signedURLFrom(data)
	if err != nil {
		return "", false, err
	}
	return signed, true, nil
}

// Service trades opaque storage references for URLs. Image upload is a
// two-step handshake: CreateUploadSlot issues the slot, the browser pushes
// bytes to it, and the returned ref goes on the listing's images list.
type Service struct {
	Client StorageClient
	Bucket string
}

// UploadSlot is what the admin form needs to push one image.
type UploadSlot struct {
	UploadURL string `json:"upload_url"`
	Ref       string `json:"ref"`
}

// resolveTTL is how long resolved read URLs stay valid. Resolution happens
// on every render, so a short TTL is fine.
const resolveTTL = 3600

// CreateUploadSlot generates a signed upload URL plus the storage ref the
// caller saves on the listing. The slot is single-use and expires on its
// own if never used; no content-type or size validation happens here.
func (s *Service) CreateUploadSlot(ctx context.Context, fileName string) (*UploadSlot, error) {
	ref := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileName)
	uploadURL, err := s.Client.CreateSignedUploadURL(ctx, s.Bucket, ref)
	if err != nil {
		return nil, err
	}
	return &UploadSlot{UploadURL: uploadURL, Ref: ref}, nil
}

// Resolve trades a storage ref for a time-bound read URL. Returns
// ("", false, nil) when the ref is unknown or expired. Safe to call
// repeatedly for the same ref.
func (s *Service) Resolve(ctx context.Context, ref string) (string, bool, error) {
	return s.Client.CreateSignedURL(ctx, s.Bucket, ref, resolveTTL)
}
