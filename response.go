package metaprompt

// GenerateResponse contains the text-generation provider's response.
type GenerateResponse struct {
	// Candidates is the list of candidate completion texts. Its length
	// equals the requested num_return_sequences (1 unless the caller asked
	// for more).
	Candidates []string

	// Model is the model that was used (may differ from request if aliased).
	Model string

	// InputTokens is the number of tokens in the input, when the provider
	// reports usage (0 otherwise).
	InputTokens int

	// OutputTokens is the number of tokens generated across candidates,
	// when the provider reports usage (0 otherwise).
	OutputTokens int

	// StopReason indicates why generation stopped (e.g., "end_turn",
	// "max_tokens", "stop_sequence").
	StopReason string
}

// Text returns the first candidate, or "" if the response is empty. Most of
// the engine runs with num_return_sequences == 1 and only cares about this.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0]
}
