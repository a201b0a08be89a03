// Package app assembles the study assistant from configuration: persisted
// state, the chat client, speech bridges and the conversation.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"tekai/internal/chat"
	"tekai/internal/config"
	"tekai/internal/conversation"
	"tekai/internal/history"
	"tekai/internal/llm"
	"tekai/internal/profile"
	"tekai/internal/speech"
	"tekai/internal/storage"
)

// State is everything read from the store at startup. The profile may be
// replaced by SaveName while front ends and the reminder read it.
type State struct {
	Store   storage.Store
	History *history.Index

	mu         sync.RWMutex
	profile    profile.Profile
	hasProfile bool
}

// Init reads the profile and the history index once. Read failures are logged
// and yield empty values: persistence is best effort.
func Init(ctx context.Context, store storage.Store) *State {
	st := &State{Store: store}
	p, ok, err := profile.Load(ctx, store)
	if err != nil {
		log.Printf("failed to load profile: %v", err)
	}
	st.profile, st.hasProfile = p, ok

	idx, err := history.Load(ctx, store)
	if err != nil {
		log.Printf("failed to load history: %v", err)
	}
	st.History = idx
	return st
}

// SaveName stores the display name captured at first start.
func (s *State) SaveName(ctx context.Context, name string) error {
	p := profile.Profile{DisplayName: name}
	if err := profile.Save(ctx, s.Store, p); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = profile.Profile{DisplayName: strings.TrimSpace(name)}
	s.hasProfile = true
	s.mu.Unlock()
	return nil
}

func (s *State) Profile() profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// HasProfile is false until a name has been loaded or saved.
func (s *State) HasProfile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasProfile
}

// OpenStore opens the configured store, falling back to memory so the session
// keeps working when the backend is unavailable.
func OpenStore(cfg *config.Config) storage.Store {
	store, err := storage.Open(cfg)
	if err != nil {
		log.Printf("failed to open %s store, history will not persist: %v", cfg.StoreBackend, err)
		return storage.NewMemoryStore()
	}
	return store
}

// NewChatClient resolves provider and model and wraps them in a chat.Client.
func NewChatClient(cfg *config.Config) (*chat.Client, error) {
	provider, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return chat.NewClient(provider, SystemPrompt(cfg), cfg.RequestTimeout), nil
}

// SystemPrompt prefers the prompt file when one is configured and readable.
func SystemPrompt(cfg *config.Config) string {
	if cfg.SystemPromptPath == "" {
		return cfg.SystemPrompt
	}
	data, err := os.ReadFile(cfg.SystemPromptPath)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", cfg.SystemPromptPath, err)
		return cfg.SystemPrompt
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return cfg.SystemPrompt
}

// NewInteractionLog opens the JSONL interaction log, or returns nil when disabled.
func NewInteractionLog(cfg *config.Config) storage.Recorder {
	if cfg.LogFilePath == "" {
		return nil
	}
	rec, err := storage.NewFileRecorder(cfg.LogFilePath)
	if err != nil {
		log.Printf("failed to init file recorder: %v", err)
		return nil
	}
	return rec
}

// NewSpeech builds both bridges. An empty command leaves the engine nil and the
// bridge inert.
func NewSpeech(cfg *config.Config) (*speech.Input, *speech.Output) {
	var rec speech.Recognizer
	if cfg.STTCommand != "" {
		rec = speech.NewCommandRecognizer(cfg.STTCommand, cfg.Language)
	}
	var syn speech.Synthesizer
	if cfg.TTSCommand != "" {
		syn = speech.NewCommandSynthesizer(cfg.TTSCommand, cfg.Language)
	}
	return speech.NewInput(rec), speech.NewOutput(syn)
}

// NewConversation wires a conversation to the startup state.
func NewConversation(st *State, client conversation.Completer, rec storage.Recorder, opts conversation.Options) *conversation.Conversation {
	opts.Client = client
	opts.History = st.History
	opts.Log = rec
	return conversation.New(opts)
}
