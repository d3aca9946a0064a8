package metaprompt

import "fmt"

// RequestParams represents the generation settings carried by a request.
// All fields are optional pointers to distinguish "not set" from "set to zero
// value"; different experts carry different settings and merge over role
// defaults.
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// Temperature controls sampling randomness (0.0-2.0).
	// 0.0 = deterministic, higher = more random.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0).
	TopP *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`

	// NumReturnSequences is the number of candidate completions requested.
	// The provider response carries exactly this many candidates.
	NumReturnSequences *int `json:"num_return_sequences,omitempty" yaml:"num_return_sequences,omitempty"`

	// Stop sequences - generation stops if any of these are generated.
	Stop []string `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// Clone returns a copy of the params. Settings are immutable per invocation;
// callers clone before overriding.
func (rp *RequestParams) Clone() *RequestParams {
	if rp == nil {
		return nil
	}
	out := *rp
	if rp.Stop != nil {
		out.Stop = append([]string(nil), rp.Stop...)
	}
	return &out
}

// Merge returns a copy of rp with any fields set in override applied on top.
// Either argument may be nil.
func (rp *RequestParams) Merge(override *RequestParams) *RequestParams {
	if rp == nil {
		return override.Clone()
	}
	out := rp.Clone()
	if override == nil {
		return out
	}
	if override.MaxTokens != nil {
		out.MaxTokens = override.MaxTokens
	}
	if override.Temperature != nil {
		out.Temperature = override.Temperature
	}
	if override.TopP != nil {
		out.TopP = override.TopP
	}
	if override.NumReturnSequences != nil {
		out.NumReturnSequences = override.NumReturnSequences
	}
	if override.Stop != nil {
		out.Stop = append([]string(nil), override.Stop...)
	}
	return out
}

// ValidateRequestParams validates generation settings ranges.
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil // nil params is valid
	}

	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", *params.Temperature)
		}
	}

	if params.TopP != nil {
		if *params.TopP < 0.0 || *params.TopP > 1.0 {
			return fmt.Errorf("top_p must be between 0.0 and 1.0, got %f", *params.TopP)
		}
	}

	if params.MaxTokens != nil {
		if *params.MaxTokens < 1 {
			return fmt.Errorf("max_tokens must be positive, got %d", *params.MaxTokens)
		}
	}

	if params.NumReturnSequences != nil {
		if *params.NumReturnSequences < 1 {
			return fmt.Errorf("num_return_sequences must be at least 1, got %d", *params.NumReturnSequences)
		}
	}

	return nil
}

// GetMaxTokens returns max_tokens with default fallback.
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp != nil && rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback.
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp != nil && rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetTopP returns top_p with default fallback.
func (rp *RequestParams) GetTopP(defaultValue float64) float64 {
	if rp != nil && rp.TopP != nil {
		return *rp.TopP
	}
	return defaultValue
}

// GetNumReturnSequences returns num_return_sequences with default fallback.
func (rp *RequestParams) GetNumReturnSequences(defaultValue int) int {
	if rp != nil && rp.NumReturnSequences != nil {
		return *rp.NumReturnSequences
	}
	return defaultValue
}
