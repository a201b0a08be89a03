package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client performs one request/response exchange with a chat provider.
// Implementations return *ProviderError on any failure.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
