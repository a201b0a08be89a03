package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"tekai/internal/app"
	"tekai/internal/config"
	"tekai/internal/conversation"
	"tekai/internal/tui"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	// The terminal is owned by the UI, so logs go to a file.
	if cfg.DebugLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DebugLogPath), 0o755); err != nil {
			log.Printf("failed to create log dir: %v", err)
		}
		f, err := tea.LogToFile(cfg.DebugLogPath, "tekai")
		if err != nil {
			log.Fatalf("failed to open debug log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	client, err := app.NewChatClient(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store := app.OpenStore(cfg)
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	st := app.Init(context.Background(), store)

	rec := app.NewInteractionLog(cfg)
	conv := app.NewConversation(st, client, rec, conversation.Options{Step: cfg.TypingStep})
	in, out := app.NewSpeech(cfg)

	model := tui.New(tui.Options{
		State:     st,
		Conv:      conv,
		Client:    client,
		SpeechIn:  in,
		SpeechOut: out,
		ExportDir: cfg.ExportDir,
		Interval:  cfg.TypingInterval,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
