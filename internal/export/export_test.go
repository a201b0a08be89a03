package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tekai/internal/chat"
)

func TestTranscript(t *testing.T) {
	got := Transcript([]chat.Message{
		{Sender: chat.SenderUser, Text: "Give me a study tip"},
		{Sender: chat.SenderAssistant, Text: "Study in 25-minute blocks."},
	})
	want := "USER: Give me a study tip\n\nASSISTANT: Study in 25-minute blocks.\n"
	if got != want {
		t.Fatalf("transcript:\n%q\nwant\n%q", got, want)
	}
	if Transcript(nil) != "" {
		t.Fatalf("empty log should render empty")
	}
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)
	path, err := ToFile(dir, []chat.Message{{Sender: chat.SenderUser, Text: "hi"}}, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "tekai-chat-20261018-150405.txt" {
		t.Fatalf("file name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "USER: hi\n" {
		t.Fatalf("content: %q %v", data, err)
	}

	if _, err := ToFile(dir, nil, now); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}
