package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Morwran/yagpt"
)

const providerYandex = "yandex"

type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	// Create YaGPT client for a folder
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: "system", Content: m.Content})
		case RoleAssistant:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: "assistant", Content: m.Content})
		default:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: "user", Content: m.Content})
		}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, yaMsgs)
	if err != nil {
		return Response{}, &ProviderError{Provider: providerYandex, Err: fmt.Errorf("yagpt completion failed: %w", err)}
	}
	if resp == nil {
		return Response{}, &ProviderError{Provider: providerYandex, Err: errors.New("yagpt returned empty response")}
	}
	out := Response{Model: yagpt.YaModelLite}
	if len(resp.Alternatives) > 0 {
		out.Content = resp.Alternatives[0].Message.Content
	}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}
