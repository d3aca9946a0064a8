// Package openai implements the metaprompt.Provider interface for the OpenAI
// chat-completions API.
//
// The adapter is deliberately text-only: conversations are role-tagged
// strings, and multi-candidate sampling maps directly onto the API's "n"
// parameter, so a single HTTP call satisfies num_return_sequences.
//
// Common issues:
//   - 401 errors: verify OPENAI_API_KEY is set and not expired
//   - 404 errors: verify the model name against the OpenAI model list
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	metaprompt "github.com/haowjy/metaprompt-go"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider talks to the OpenAI chat-completions endpoint.
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, metaprompt.ErrInvalidAPIKey
	}

	return &Provider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    defaultBaseURL,
	}, nil
}

// WithBaseURL overrides the API endpoint. Used for proxies and tests.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() metaprompt.ProviderID {
	return metaprompt.ProviderOpenAI
}

// SupportsModel returns true if this provider supports the given model.
// OpenAI is the fallthrough provider, so anything not claimed by another
// provider's prefix is accepted and left for the API to reject.
func (p *Provider) SupportsModel(model string) bool {
	return metaprompt.ProviderForModel(model) == metaprompt.ProviderOpenAI
}

// GenerateResponse generates a response from the chat-completions endpoint.
func (p *Provider) GenerateResponse(ctx context.Context, req *metaprompt.GenerateRequest) (*metaprompt.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &metaprompt.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model is routed to a different provider",
			Err:      metaprompt.ErrInvalidModel,
		}
	}

	apiReq := buildChatCompletionRequest(req)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return convertChatCompletionResponse(&chatResp), nil
}

// handleErrorResponse maps OpenAI error responses onto library errors.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &metaprompt.ProviderError{
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  false,
			Err:        metaprompt.ErrInvalidAPIKey,
		}
	case http.StatusTooManyRequests:
		return &metaprompt.ProviderError{
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        metaprompt.ErrRateLimited,
		}
	case http.StatusRequestTimeout:
		return &metaprompt.ProviderError{
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        metaprompt.ErrTimeout,
		}
	case http.StatusNotFound:
		return &metaprompt.ModelError{
			Provider: p.Name().String(),
			Reason:   message,
			Err:      metaprompt.ErrInvalidModel,
		}
	default:
		return &metaprompt.ProviderError{
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  resp.StatusCode >= 500,
			Err:        metaprompt.ErrProviderUnavailable,
		}
	}
}
