package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	metaprompt "github.com/haowjy/metaprompt-go"
)

// convertMessages converts library messages to Anthropic SDK format. System
// messages are pulled out and concatenated into the returned system string;
// the rest map one to one onto user/assistant message params.
func convertMessages(messages []metaprompt.Message) (string, []anthropic.MessageParam, error) {
	var system []string
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case metaprompt.RoleSystem:
			system = append(system, msg.Content)
		case metaprompt.RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case metaprompt.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return "", nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return strings.Join(system, "\n\n"), result, nil
}

// collectText flattens a response message into a single candidate string.
// Only text blocks contribute; anything else the API might return is skipped.
func collectText(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
