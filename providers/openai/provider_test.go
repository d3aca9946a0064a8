package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	metaprompt "github.com/haowjy/metaprompt-go"
)

func intPtr(i int) *int { return &i }

func float64Ptr(f float64) *float64 { return &f }

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewProvider(""); err != metaprompt.ErrInvalidAPIKey {
		t.Errorf("NewProvider(\"\") error = %v, want ErrInvalidAPIKey", err)
	}
}

func TestProvider_SupportsModel(t *testing.T) {
	p, err := NewProvider("sk-test")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4", true},
		{"gpt-4o-mini", true},
		{"claude-haiku-4-5", false},
		{"lorem-fast", false},
	}
	for _, tt := range tests {
		if got := p.SupportsModel(tt.model); got != tt.want {
			t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestProvider_GenerateResponse(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4",
			Choices: []chatChoice{
				{Index: 0, Message: chatMessage{Role: "assistant", Content: "The answer is 4."}, FinishReason: "stop"},
				{Index: 1, Message: chatMessage{Role: "assistant", Content: "It is 4."}, FinishReason: "stop"},
			},
			Usage: chatUsage{PromptTokens: 12, CompletionTokens: 9},
		})
	}))
	defer server.Close()

	p, err := NewProvider("sk-test")
	if err != nil {
		t.Fatal(err)
	}
	p.WithBaseURL(server.URL)

	resp, err := p.GenerateResponse(context.Background(), &metaprompt.GenerateRequest{
		Model: "gpt-4",
		Messages: []metaprompt.Message{
			{Role: metaprompt.RoleSystem, Content: "You are Meta-Expert."},
			{Role: metaprompt.RoleUser, Content: "What is 2+2?"},
		},
		Params: &metaprompt.RequestParams{
			Temperature:        float64Ptr(0.0),
			MaxTokens:          intPtr(1024),
			NumReturnSequences: intPtr(2),
		},
	})
	if err != nil {
		t.Fatalf("GenerateResponse() error = %v", err)
	}

	if len(resp.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(resp.Candidates))
	}
	if resp.Text() != "The answer is 4." {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 9 {
		t.Errorf("usage = %d/%d, want 12/9", resp.InputTokens, resp.OutputTokens)
	}

	if captured.Model != "gpt-4" {
		t.Errorf("wire model = %q", captured.Model)
	}
	if captured.N == nil || *captured.N != 2 {
		t.Errorf("wire n = %v, want 2", captured.N)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("wire messages = %+v", captured.Messages)
	}
}

func TestProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		check     func(t *testing.T, err error)
	}{
		{
			name:   "401 is an auth error",
			status: http.StatusUnauthorized,
			body:   `{"error":{"type":"invalid_request_error","message":"Incorrect API key provided"}}`,
			check: func(t *testing.T, err error) {
				if !metaprompt.IsAuthError(err) {
					t.Errorf("expected auth error, got %v", err)
				}
				if metaprompt.IsRetryable(err) {
					t.Error("auth errors must not be retryable")
				}
			},
		},
		{
			name:   "429 is retryable",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"type":"rate_limit_error","message":"Rate limit reached"}}`,
			check: func(t *testing.T, err error) {
				if !metaprompt.IsRetryable(err) {
					t.Errorf("expected retryable error, got %v", err)
				}
			},
		},
		{
			name:   "500 is retryable",
			status: http.StatusInternalServerError,
			body:   `{"error":{"type":"server_error","message":"The server had an error"}}`,
			check: func(t *testing.T, err error) {
				if !metaprompt.IsRetryable(err) {
					t.Errorf("expected retryable error, got %v", err)
				}
			},
		},
		{
			name:   "404 is an invalid model",
			status: http.StatusNotFound,
			body:   `{"error":{"type":"invalid_request_error","message":"The model does not exist"}}`,
			check: func(t *testing.T, err error) {
				if !metaprompt.IsInvalidRequest(err) {
					t.Errorf("expected invalid-request classification, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, err := NewProvider("sk-test")
			if err != nil {
				t.Fatal(err)
			}
			p.WithBaseURL(server.URL)

			_, err = p.GenerateResponse(context.Background(), &metaprompt.GenerateRequest{
				Model:    "gpt-4",
				Messages: []metaprompt.Message{{Role: metaprompt.RoleUser, Content: "hi"}},
			})
			if err == nil {
				t.Fatal("expected an error")
			}
			tt.check(t, err)
		})
	}
}

func TestProvider_RejectsForeignModels(t *testing.T) {
	p, err := NewProvider("sk-test")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.GenerateResponse(context.Background(), &metaprompt.GenerateRequest{
		Model:    "claude-haiku-4-5",
		Messages: []metaprompt.Message{{Role: metaprompt.RoleUser, Content: "hi"}},
	})
	if !metaprompt.IsInvalidRequest(err) {
		t.Errorf("expected invalid model error, got %v", err)
	}
}
