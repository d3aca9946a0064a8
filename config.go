package metaprompt

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/metaprompt.yaml
var defaultRunConfigYAML []byte

// RoleConfig holds the seed messages and generation settings for one of the
// four conversation roles.
type RoleConfig struct {
	// MessageList is the ordered seed-message list prepended before the
	// role's input (the orchestrator's system prompt, an expert's persona
	// preamble, etc.).
	MessageList []Message `yaml:"message-list"`

	// Params are the role's generation settings.
	Params *RequestParams `yaml:"parameters"`
}

// RunConfig is the persisted run configuration: per-role seed messages and
// generation settings, plus the protocol strings the engine and dispatcher
// exchange with the model.
//
// Config philosophy follows the capabilities-file approach: a versioned YAML
// document with an embedded default, overridable per run by loading a custom
// file. The protocol strings are configuration, not code, because they are
// part of the prompt contract with the model and get tuned per deployment.
type RunConfig struct {
	Version string `yaml:"version"`

	// Orchestrator drives the round loop ("meta model").
	Orchestrator RoleConfig `yaml:"orchestrator"`

	// Generator is the default profile delegated experts resolve to.
	Generator RoleConfig `yaml:"generator"`

	// Verifier is an optional verification profile; carried in the config
	// document for parity with deployments that post-verify answers.
	Verifier RoleConfig `yaml:"verifier"`

	// Summarizer condenses multi-candidate expert outputs into one
	// consensus text.
	Summarizer RoleConfig `yaml:"summarizer"`

	// ErrorMessage is the fixed corrective nudge appended as a user message
	// when the orchestrator's output matched neither the delegation grammar
	// nor the final-answer indicator.
	ErrorMessage string `yaml:"error-message"`

	// FinalAnswerIndicator is the protocol substring whose presence in an
	// assistant output terminates the conversation.
	FinalAnswerIndicator string `yaml:"final-answer-indicator"`

	// IntermediateFeedback is the review/verification sentence appended
	// after aggregated expert outputs.
	IntermediateFeedback string `yaml:"intermediate-feedback"`

	// ExpertPythonMessage is the system preamble prepended to instructions
	// delegated to the code expert; it instructs the expert to request
	// execution with the run-confirmation phrase.
	ExpertPythonMessage string `yaml:"expert-python-message"`
}

// Validate checks that the config carries the pieces the engine cannot run
// without.
func (c *RunConfig) Validate() error {
	if c.FinalAnswerIndicator == "" {
		return fmt.Errorf("run config: final-answer-indicator must not be empty")
	}
	if c.ErrorMessage == "" {
		return fmt.Errorf("run config: error-message must not be empty")
	}
	for _, role := range []struct {
		name string
		cfg  RoleConfig
	}{
		{"orchestrator", c.Orchestrator},
		{"generator", c.Generator},
		{"summarizer", c.Summarizer},
	} {
		if err := ValidateRequestParams(role.cfg.Params); err != nil {
			return fmt.Errorf("run config: %s: %w", role.name, err)
		}
	}
	return nil
}

var (
	defaultRunConfig     *RunConfig
	defaultRunConfigOnce sync.Once
	defaultRunConfigErr  error
)

// DefaultRunConfig returns the embedded default run configuration. The
// parsed document is shared; callers must not mutate it.
func DefaultRunConfig() (*RunConfig, error) {
	defaultRunConfigOnce.Do(func() {
		cfg := &RunConfig{}
		if err := yaml.Unmarshal(defaultRunConfigYAML, cfg); err != nil {
			defaultRunConfigErr = fmt.Errorf("failed to parse embedded run config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			defaultRunConfigErr = err
			return
		}
		defaultRunConfig = cfg
	})
	return defaultRunConfig, defaultRunConfigErr
}

// LoadRunConfig reads a run configuration from a YAML file, overriding the
// embedded default entirely.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config %s: %w", path, err)
	}

	cfg := &RunConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
