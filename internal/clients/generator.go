package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contratos/pkg/types"
)

var ErrGenerationFailed = errors.New("contract generation failed")

// ContractGenerator asks the AI service to draft a contract from a free text
// description of its object.
type ContractGenerator struct {
	baseURL    string
	httpClient *http.Client
}

func NewContractGenerator(baseURL string) *ContractGenerator {
	return &ContractGenerator{
		baseURL: trimBase(baseURL),
		// generation routinely takes longer than the other services
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type generateRequest struct {
	Object string `json:"object"`
}

type generateResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	Error      string `json:"error"`
}

// Generate returns the edit URL of the generated Google Docs document.
func (g *ContractGenerator) Generate(ctx context.Context, object string) (string, error) {
	object = strings.TrimSpace(object)
	if object == "" {
		return "", types.NewValidationError("object", "el objeto contractual es obligatorio")
	}

	payload, err := json.Marshal(generateRequest{Object: object})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/ps-contract", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out generateResponse
	if err := do(g.httpClient, "contract generator", req, &out); err != nil {
		return "", err
	}

	if !out.Success || out.DocumentID == "" {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerationFailed, out.Error)
		}
		return "", ErrGenerationFailed
	}

	return types.GoogleDocEditURL(out.DocumentID), nil
}
