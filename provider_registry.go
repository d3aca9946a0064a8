package metaprompt

import "strings"

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOpenAI is an OpenAI-compatible chat-completions API
	ProviderOpenAI ProviderID = "openai"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the mock Lorem provider for testing
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}

// ProviderForModel returns the provider expected to serve the given model
// based on its naming convention: "claude-*" → anthropic, "lorem-*" → lorem,
// anything else → openai-compatible.
func ProviderForModel(model string) ProviderID {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "lorem-"):
		return ProviderLorem
	default:
		return ProviderOpenAI
	}
}
