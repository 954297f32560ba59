package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SupabaseStorage talks to the Supabase Storage REST API.
type SupabaseStorage struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type SupabaseOption func(*SupabaseStorage)

// WithBaseURL points the client at a different storage API root, such as a
// self-hosted instance or a test server.
func WithBaseURL(baseURL string) SupabaseOption {
	return func(s *SupabaseStorage) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(c *http.Client) SupabaseOption {
	return func(s *SupabaseStorage) {
		s.httpClient = c
	}
}

func NewSupabaseStorage(projectID, apiKey string, opts ...SupabaseOption) *SupabaseStorage {
	s := &SupabaseStorage{
		baseURL:    fmt.Sprintf("https://%s.supabase.co/storage/v1", projectID),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SupabaseStorage) objectURL(kind, bucket, path string) string {
	if kind == "" {
		return fmt.Sprintf("%s/object/%s/%s", s.baseURL, bucket, strings.TrimLeft(path, "/"))
	}
	return fmt.Sprintf("%s/object/%s/%s/%s", s.baseURL, kind, bucket, strings.TrimLeft(path, "/"))
}

func (s *SupabaseStorage) do(req *http.Request, okStatus ...int) ([]byte, error) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, status := range okStatus {
		if resp.StatusCode == status {
			return body, nil
		}
	}

	return nil, fmt.Errorf("storage responded with status %d: %s", resp.StatusCode, string(body))
}

// Upload stores body at path. With upsert an existing object is replaced,
// otherwise the call fails when the path is taken.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string, upsert bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("", bucket, path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", strconv.FormatBool(upsert))

	if _, err := s.do(req, http.StatusOK, http.StatusCreated); err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}

	return nil
}

func (s *SupabaseStorage) PublicURL(bucket, path string) string {
	return s.objectURL("public", bucket, path)
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

func (s *SupabaseStorage) SignedURL(ctx context.Context, bucket, path string, expiry time.Duration) (string, error) {
	payload, err := json.Marshal(signRequest{ExpiresIn: int(expiry.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("sign", bucket, path), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req, http.StatusOK)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s/%s: %w", bucket, path, err)
	}

	var out signResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("sign response for %s/%s has no url", bucket, path)
	}

	return s.baseURL + "/" + strings.TrimLeft(out.SignedURL, "/"), nil
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

func (s *SupabaseStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	payload, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return fmt.Errorf("failed to encode remove request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/object/%s", s.baseURL, bucket), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := s.do(req, http.StatusOK, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to remove objects from %s: %w", bucket, err)
	}

	return nil
}
