package metaprompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg, err := DefaultRunConfig()
	if err != nil {
		t.Fatalf("DefaultRunConfig() error = %v", err)
	}

	if cfg.FinalAnswerIndicator != ">> FINAL ANSWER:" {
		t.Errorf("FinalAnswerIndicator = %q, want \">> FINAL ANSWER:\"", cfg.FinalAnswerIndicator)
	}
	if len(cfg.Orchestrator.MessageList) == 0 {
		t.Fatal("orchestrator message list is empty")
	}
	if cfg.Orchestrator.MessageList[0].Role != RoleSystem {
		t.Errorf("orchestrator seed role = %q, want system", cfg.Orchestrator.MessageList[0].Role)
	}
	if !strings.Contains(cfg.Orchestrator.MessageList[0].Content, "Meta-Expert") {
		t.Error("orchestrator system prompt missing the Meta-Expert persona")
	}
	if got := cfg.Orchestrator.Params.GetTemperature(-1); got != 0.0 {
		t.Errorf("orchestrator temperature = %f, want 0.0", got)
	}
	if got := cfg.Orchestrator.Params.GetMaxTokens(-1); got != 1024 {
		t.Errorf("orchestrator max_tokens = %d, want 1024", got)
	}
	if cfg.ErrorMessage == "" {
		t.Error("error message is empty")
	}
	if !strings.Contains(cfg.ExpertPythonMessage, RunConfirmationPhrase) {
		t.Error("python persona preamble should mention the run-confirmation phrase")
	}
}

func TestDefaultRunConfig_SharedInstance(t *testing.T) {
	first, err := DefaultRunConfig()
	if err != nil {
		t.Fatalf("DefaultRunConfig() error = %v", err)
	}
	second, _ := DefaultRunConfig()
	if first != second {
		t.Error("DefaultRunConfig should return the shared parsed instance")
	}
}

func TestLoadRunConfig(t *testing.T) {
	doc := `version: "1"
orchestrator:
  message-list:
    - role: system
      content: Conduct the experts.
  parameters:
    temperature: 0.0
generator:
  message-list:
    - role: system
      content: Answer questions.
summarizer:
  message-list:
    - role: system
      content: Summarize outputs.
error-message: Please follow the format.
final-answer-indicator: ">> FINAL ANSWER:"
intermediate-feedback: What are the next steps?
expert-python-message: You can write Python code.
`
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig() error = %v", err)
	}
	if cfg.Orchestrator.MessageList[0].Content != "Conduct the experts." {
		t.Errorf("orchestrator seed = %q", cfg.Orchestrator.MessageList[0].Content)
	}
	if cfg.IntermediateFeedback != "What are the next steps?" {
		t.Errorf("intermediate feedback = %q", cfg.IntermediateFeedback)
	}
}

func TestLoadRunConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(path, []byte("orchestrator: [unclosed"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRunConfig(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("missing final answer indicator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "incomplete.yaml")
		if err := os.WriteFile(path, []byte("error-message: nudge\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRunConfig(path); err == nil {
			t.Error("expected a validation error")
		}
	})
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{"valid config", func(*RunConfig) {}, false},
		{"empty indicator", func(c *RunConfig) { c.FinalAnswerIndicator = "" }, true},
		{"empty error message", func(c *RunConfig) { c.ErrorMessage = "" }, true},
		{"out-of-range orchestrator temperature", func(c *RunConfig) {
			c.Orchestrator.Params = &RequestParams{Temperature: float64Ptr(9.0)}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testRunConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
