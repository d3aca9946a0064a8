package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	metaprompt "github.com/haowjy/metaprompt-go"
)

// buildMessageParams constructs Anthropic API parameters from a GenerateRequest.
func buildMessageParams(req *metaprompt.GenerateRequest) (anthropic.MessageNewParams, error) {
	system, messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := req.Params
	if params == nil {
		params = &metaprompt.RequestParams{}
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(params.GetMaxTokens(4096)),
	}

	if params.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*params.Temperature)
	}

	if params.TopP != nil {
		apiParams.TopP = anthropic.Float(*params.TopP)
	}

	if len(params.Stop) > 0 {
		apiParams.StopSequences = params.Stop
	}

	// System messages ride in the dedicated system field, not the messages
	// array.
	if system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	return apiParams, nil
}
