package openai

import (
	metaprompt "github.com/haowjy/metaprompt-go"
)

// Wire types for the chat-completions API. Only the fields the engine uses
// are modeled.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	N           *int          `json:"n,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// buildChatCompletionRequest converts a library request to the wire format.
// The role vocabulary is identical on both sides, so messages map one to one.
func buildChatCompletionRequest(req *metaprompt.GenerateRequest) *chatCompletionRequest {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	out := &chatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if p := req.Params; p != nil {
		out.MaxTokens = p.MaxTokens
		out.Temperature = p.Temperature
		out.TopP = p.TopP
		out.N = p.NumReturnSequences
		out.Stop = p.Stop
	}
	return out
}

// convertChatCompletionResponse converts the wire response to the library
// format. Choices arrive ordered by index; each becomes one candidate.
func convertChatCompletionResponse(resp *chatCompletionResponse) *metaprompt.GenerateResponse {
	candidates := make([]string, 0, len(resp.Choices))
	stopReason := ""
	for _, choice := range resp.Choices {
		candidates = append(candidates, choice.Message.Content)
		stopReason = choice.FinishReason
	}

	return &metaprompt.GenerateResponse{
		Candidates:   candidates,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		StopReason:   stopReason,
	}
}
