// Package anthropic implements the metaprompt.Provider interface for
// Anthropic (Claude) models.
//
// The Messages API has no "n" parameter, so when a request asks for more than
// one candidate the provider issues that many sequential calls and collects
// the results. Engine roles run with num_return_sequences 1, which keeps this
// the rare path.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	metaprompt "github.com/haowjy/metaprompt-go"
)

// Provider talks to the Anthropic Messages API.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, metaprompt.ErrInvalidAPIKey
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() metaprompt.ProviderID {
	return metaprompt.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateResponse generates a response from Claude.
func (p *Provider) GenerateResponse(ctx context.Context, req *metaprompt.GenerateRequest) (*metaprompt.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &metaprompt.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      metaprompt.ErrInvalidModel,
		}
	}

	apiParams, err := buildMessageParams(req)
	if err != nil {
		return nil, err
	}

	n := req.Params.GetNumReturnSequences(1)
	response := &metaprompt.GenerateResponse{
		Model:      req.Model,
		Candidates: make([]string, 0, n),
	}

	for i := 0; i < n; i++ {
		message, err := p.client.Messages.New(ctx, apiParams)
		if err != nil {
			return nil, p.mapError(err)
		}

		response.Candidates = append(response.Candidates, collectText(message))
		response.Model = string(message.Model)
		response.InputTokens += int(message.Usage.InputTokens)
		response.OutputTokens += int(message.Usage.OutputTokens)
		response.StopReason = string(message.StopReason)
	}

	return response, nil
}

// mapError converts SDK errors to library errors so the engine can classify
// them for retry decisions.
func (p *Provider) mapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic API call failed: %w", err)
	}

	providerErr := &metaprompt.ProviderError{
		Provider:   p.Name().String(),
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
	}
	switch apiErr.StatusCode {
	case 401, 403:
		providerErr.Err = metaprompt.ErrInvalidAPIKey
	case 429:
		providerErr.Retryable = true
		providerErr.Err = metaprompt.ErrRateLimited
	case 408:
		providerErr.Retryable = true
		providerErr.Err = metaprompt.ErrTimeout
	default:
		providerErr.Retryable = apiErr.StatusCode >= 500
		providerErr.Err = metaprompt.ErrProviderUnavailable
	}
	return providerErr
}
