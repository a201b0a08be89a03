package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"tekai/internal/llm"
)

type fakeLLM struct {
	resp llm.Response
	err  error
	got  []llm.Message
	wait bool
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.got = msgs
	if f.wait {
		<-ctx.Done()
		return llm.Response{}, ctx.Err()
	}
	return f.resp, f.err
}

func TestPrompt_OrderAndRoles(t *testing.T) {
	c := NewClient(&fakeLLM{}, "You are a helpful AI study assistant named TekAI.", 0)
	got := c.Prompt([]Message{
		{Sender: SenderUser, Text: "a"},
		{Sender: SenderAssistant, Text: "b"},
		{Sender: SenderUser, Text: "c"},
	})
	want := []llm.Message{
		{Role: "system", Content: "You are a helpful AI study assistant named TekAI."},
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "user", Content: "c"},
	}
	if len(got) != len(want) {
		t.Fatalf("len: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestComplete_EmptyAnswerIsSuccess(t *testing.T) {
	c := NewClient(&fakeLLM{resp: llm.Response{Content: "  "}}, "sys", time.Second)
	resp, err := c.Complete(context.Background(), []Message{{Sender: SenderUser, Text: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != NoResponseText {
		t.Fatalf("content: %q", resp.Content)
	}
}

func TestComplete_WrapsPlainErrors(t *testing.T) {
	c := NewClient(&fakeLLM{err: errors.New("boom")}, "sys", time.Second)
	_, err := c.Complete(context.Background(), nil)
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("want ProviderError, got %v", err)
	}
}

func TestComplete_Timeout(t *testing.T) {
	c := NewClient(&fakeLLM{wait: true}, "sys", 20*time.Millisecond)
	_, err := c.Complete(context.Background(), []Message{{Sender: SenderUser, Text: "hi"}})
	if !llm.IsProviderError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want ProviderError wrapping deadline, got %v", err)
	}
}
