package metaprompt

// Message role constants. The engine only ever produces conversations built
// from these three roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single role-tagged message in a conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role" yaml:"role"`

	// Content is the plain text content of the message.
	Content string `json:"content" yaml:"content"`
}

// Conversation is an ordered, append-only sequence of messages. The engine
// owns the conversation for the duration of a run: it appends exactly one
// assistant message per round and, for non-terminal rounds, exactly one
// user message carrying expert feedback or a corrective nudge.
type Conversation []Message

// Clone returns a copy of the conversation. The engine clones before every
// mutation so a failed round never corrupts committed history.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Append returns a new conversation with msg added. The receiver is not
// modified.
func (c Conversation) Append(msg Message) Conversation {
	out := make(Conversation, 0, len(c)+1)
	out = append(out, c...)
	out = append(out, msg)
	return out
}

// Last returns the final message, or a zero Message for an empty conversation.
func (c Conversation) Last() Message {
	if len(c) == 0 {
		return Message{}
	}
	return c[len(c)-1]
}

// LastContent returns the content of the final message. This is the
// "extracted output" recorded for downstream evaluators.
func (c Conversation) LastContent() string {
	return c.Last().Content
}

// GenerateRequest contains the parameters for a text-generation request.
type GenerateRequest struct {
	// Messages contains the conversation so far.
	Messages []Message

	// Model is the model identifier (e.g., "gpt-4", "claude-haiku-4-5",
	// "lorem-fast"). Providers gate on it via SupportsModel.
	Model string

	// Params contains the generation settings (temperature, max_tokens,
	// num_return_sequences, etc.). Provider adapters extract what they
	// support from this unified struct. May be nil; providers fall back to
	// their defaults.
	Params *RequestParams
}
