package domain

// ChatMessage is the provider-agnostic chat message shape sent to the LLM
// integration.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Turn is one prior exchange as reported by the voice platform. Role is
// "agent" for lines spoken by the assistant and anything else for the caller.
type Turn struct {
	Role    string
	Content string
}

// AgentRole is the voice platform's name for the assistant side of a call.
const AgentRole = "agent"

// ToChatMessage maps a platform turn onto a chat message. The mapping is
// total: unknown roles are treated as the caller.
func (t Turn) ToChatMessage() ChatMessage {
	role := RoleUser
	if t.Role == AgentRole {
		role = RoleAssistant
	}
	return ChatMessage{Role: role, Content: t.Content}
}

// CompletionRequest is a single chat-completion call.
type CompletionRequest struct {
	Model     string
	Messages  []ChatMessage
	MaxTokens int
}
