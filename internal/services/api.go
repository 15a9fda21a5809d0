// JSON HTTP client shared by the lyrics, generation and embedding services
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/vibesync/internal/shared"
)

// APIService performs JSON requests against a single base URL with fixed headers.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// NewAPIService creates a new API service. A nil client uses [http.DefaultClient].
func NewAPIService(baseURL string, client *http.Client, headers map[string]string) *APIService {
	if client == nil {
		client = http.DefaultClient
	}
	if headers == nil {
		headers = map[string]string{}
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
		headers:    headers,
	}
}

// BearerHeaders returns an Authorization header map for token, or nil when token is empty.
func BearerHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// GetJSON performs a GET and decodes a successful JSON body into out.
func (a *APIService) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// PostJSON encodes in as the request body, performs a POST and decodes a successful JSON body into out.
func (a *APIService) PostJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func decodeResponse(resp *APIResponse, out any) error {
	if err := StatusError(resp.StatusCode, resp.Body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// StatusError maps a non-2xx status to a shared error.
//
// 408, 429 and 5xx are wrapped in [shared.ErrTransient]; 401 and 403 in [shared.ErrNotAuthenticated].
func StatusError(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}

	switch {
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: %w: status %d: %s", shared.ErrTransient, shared.ErrAPIRequest, code, snippet)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", shared.ErrNotAuthenticated, code, snippet)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, code, snippet)
	}
}
