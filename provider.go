// Package metaprompt implements a meta-prompting orchestration engine: a
// round-based conversation loop in which a single orchestrating model
// delegates sub-tasks to simulated expert personas, whose outputs are
// captured, optionally executed (for the code expert), and fed back into the
// conversation until a final answer is produced or the round budget runs out.
//
// The engine talks to text-generation backends through the narrow Provider
// contract; concrete adapters live under providers/. Code produced by the
// code expert is executed through the Sandbox contract; the subprocess
// implementation lives under sandbox/.
package metaprompt

import (
	"context"
)

// Provider defines the interface that all text-generation providers must
// implement. This abstraction allows supporting multiple providers (OpenAI,
// Anthropic, etc.) while maintaining a consistent interface.
//
// Types used by this interface:
//   - GenerateRequest, Message: defined in request.go
//   - GenerateResponse: defined in response.go
//
// Implementations must fail with ErrInvalidAPIKey (or a ProviderError
// wrapping it) on authentication failures, and mark transient failures
// retryable, so the engine can distinguish fatal from recoverable errors.
type Provider interface {
	// GenerateResponse generates candidate completions for the given
	// conversation (blocking). The response carries exactly
	// num_return_sequences candidates.
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic", "lorem").
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}

// Sandbox is the execution boundary for code produced by the code-capable
// expert. Run executes the source with a hard timeout and returns captured
// stdout, a formatted error string, or a fixed timeout message. It never
// returns an error past this boundary: failures are forwarded into the
// conversation as text so the orchestrating model can see and react to them.
type Sandbox interface {
	Run(ctx context.Context, source string) string
}
