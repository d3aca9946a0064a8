// Package lorem is a mock provider that generates lorem ipsum text. It lets
// the whole engine run end to end without API keys: rounds execute, nothing
// ever matches the delegation grammar or the final-answer indicator, and the
// run walks to the round cap deterministically.
package lorem

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	metaprompt "github.com/haowjy/metaprompt-go"
)

// Provider generates lorem ipsum responses locally.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() metaprompt.ProviderID {
	return metaprompt.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getResponseDelay returns the simulated API latency for a model.
func getResponseDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	return time.Millisecond
}

// GenerateResponse generates a lorem ipsum response. Delay depends on the
// model name so tests stay fast while demos can simulate real latency.
func (p *Provider) GenerateResponse(ctx context.Context, req *metaprompt.GenerateRequest) (*metaprompt.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &metaprompt.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      metaprompt.ErrInvalidModel,
		}
	}

	select {
	case <-time.After(getResponseDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	n := req.Params.GetNumReturnSequences(1)
	maxTokens := req.Params.GetMaxTokens(256)

	// Estimate: 1 token ~ 1 word for the mock.
	targetWords := maxTokens
	if targetWords > 256 {
		targetWords = 256
	}

	candidates := make([]string, 0, n)
	outputTokens := 0
	for i := 0; i < n; i++ {
		text := p.generateTextWords(targetWords)
		candidates = append(candidates, text)
		outputTokens += len(strings.Fields(text))
	}

	return &metaprompt.GenerateResponse{
		Candidates:   candidates,
		Model:        req.Model,
		InputTokens:  p.estimateTokens(req.Messages),
		OutputTokens: outputTokens,
		StopReason:   "end_turn",
	}, nil
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)
		sb.WriteString(" ")

		wordCount += len(strings.Fields(sentence))

		// Paragraph break every ~50 words.
		if wordCount%50 == 0 {
			sb.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(sb.String())
}

// estimateTokens estimates the token count for a list of messages.
// Uses word count as a rough approximation.
func (p *Provider) estimateTokens(messages []metaprompt.Message) int {
	totalWords := 0
	for _, msg := range messages {
		totalWords += len(strings.Fields(msg.Content))
	}
	return totalWords
}
