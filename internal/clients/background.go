package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrNoBackgroundDocument = errors.New("background check has no document")

// BackgroundCheckClient fetches the certificate behind a background check
// code.
type BackgroundCheckClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewBackgroundCheckClient(baseURL, apiKey string) *BackgroundCheckClient {
	return &BackgroundCheckClient{
		baseURL:    trimBase(baseURL),
		apiKey:     apiKey,
		httpClient: newHTTPClient(),
	}
}

type backgroundResponse struct {
	URL         string `json:"url"`
	DocumentURL string `json:"documentUrl"`
	Data        *struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (r backgroundResponse) documentURL() string {
	switch {
	case r.URL != "":
		return r.URL
	case r.DocumentURL != "":
		return r.DocumentURL
	case r.Data != nil:
		return r.Data.URL
	}
	return ""
}

// DocumentURL returns the URL of the document for code.
func (c *BackgroundCheckClient) DocumentURL(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrNoBackgroundDocument
	}

	endpoint := fmt.Sprintf("%s/v1.5/ext/validate/background?code=%s", c.baseURL, url.QueryEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	var out backgroundResponse
	if err := do(c.httpClient, "background check", req, &out); err != nil {
		return "", err
	}

	if u := out.documentURL(); u != "" {
		return u, nil
	}
	return "", ErrNoBackgroundDocument
}
