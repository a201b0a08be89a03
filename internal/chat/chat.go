// Package chat turns a conversation transcript into one provider exchange.
package chat

import (
	"context"
	"strings"
	"time"

	"tekai/internal/llm"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

const (
	// NoResponseText replaces an answer the provider left empty.
	NoResponseText = "No response received."
	// FallbackText is shown instead of any provider failure.
	FallbackText = "Sorry, something went wrong."
)

const DefaultTimeout = 30 * time.Second

type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Client prefixes the transcript with a fixed system instruction and sends it.
type Client struct {
	provider     llm.Client
	systemPrompt string
	timeout      time.Duration
}

func NewClient(provider llm.Client, systemPrompt string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{provider: provider, systemPrompt: systemPrompt, timeout: timeout}
}

// Prompt builds the provider message list for transcript, preserving order.
func (c *Client) Prompt(transcript []Message) []llm.Message {
	out := make([]llm.Message, 0, len(transcript)+1)
	if c.systemPrompt != "" {
		out = append(out, llm.Message{Role: llm.RoleSystem, Content: c.systemPrompt})
	}
	for _, m := range transcript {
		role := llm.RoleUser
		if m.Sender == SenderAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

// Complete returns the provider's answer. Errors are always *llm.ProviderError;
// a deadline hit is reported the same way.
func (c *Client) Complete(ctx context.Context, transcript []Message) (llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Generate(ctx, c.Prompt(transcript))
	if err != nil {
		if llm.IsProviderError(err) {
			return llm.Response{}, err
		}
		return llm.Response{}, &llm.ProviderError{Provider: "chat", Err: err}
	}
	if strings.TrimSpace(resp.Content) == "" {
		resp.Content = NoResponseText
	}
	return resp, nil
}
