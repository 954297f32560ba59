package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// DocumentVerifier checks that an uploaded file really is the document it
// claims to be.
type DocumentVerifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewDocumentVerifier(baseURL string) *DocumentVerifier {
	return &DocumentVerifier{
		baseURL:    trimBase(baseURL),
		httpClient: newHTTPClient(),
	}
}

type verifyResponse struct {
	Success bool   `json:"success"`
	IsValid bool   `json:"isValid"`
	Error   string `json:"error"`
}

// Verify reports whether the file matches expectedName. A false result is a
// normal answer, not an error.
func (v *DocumentVerifier) Verify(ctx context.Context, filename string, file io.Reader, expectedName string) (bool, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return false, err
	}
	if err := writer.WriteField("documentName", expectedName); err != nil {
		return false, err
	}
	if err := writer.Close(); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/api/verify-document", body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out verifyResponse
	if err := do(v.httpClient, "document verifier", req, &out); err != nil {
		return false, err
	}

	if !out.Success {
		return false, fmt.Errorf("document verifier could not process %s: %s", filename, out.Error)
	}

	return out.IsValid, nil
}
