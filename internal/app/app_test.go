package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"tekai/internal/config"
	"tekai/internal/conversation"
	"tekai/internal/storage"
)

func TestInit_EmptyStore(t *testing.T) {
	st := Init(context.Background(), storage.NewMemoryStore())
	if st.HasProfile() {
		t.Fatalf("unexpected profile")
	}
	if st.Profile().Name() != "User" {
		t.Fatalf("default name: %q", st.Profile().Name())
	}
	if st.History == nil || st.History.Len() != 0 {
		t.Fatalf("expected an empty history index")
	}
}

func TestInit_ReadsPersistedState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Set(ctx, storage.KeyProfile, []byte(`{"given_name":"Ann"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, storage.KeyHistory, []byte(`[{"date":"Tue Mar 05 2024","questions":[{"question":"q","answer":"a"}]}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	st := Init(ctx, store)
	if !st.HasProfile() || st.Profile().Name() != "Ann" {
		t.Fatalf("profile: %+v %v", st.Profile(), st.HasProfile())
	}
	if st.History.Len() != 1 {
		t.Fatalf("history not loaded")
	}
}

func TestSaveName_Persists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	st := Init(ctx, store)
	if err := st.SaveName(ctx, "  "); err == nil {
		t.Fatalf("blank name accepted")
	}
	if err := st.SaveName(ctx, " Bob "); err != nil {
		t.Fatalf("save: %v", err)
	}
	if st.Profile().Name() != "Bob" || !st.HasProfile() {
		t.Fatalf("state not updated: %+v", st.Profile())
	}
	if again := Init(ctx, store); again.Profile().Name() != "Bob" {
		t.Fatalf("name not persisted: %+v", again.Profile())
	}
}

func TestSaveName_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	st := Init(ctx, storage.NewMemoryStore())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = st.HasProfile()
				_ = st.Profile().Name()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		if err := st.SaveName(ctx, "Bob"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	wg.Wait()
	if st.Profile().Name() != "Bob" {
		t.Fatalf("name: %q", st.Profile().Name())
	}
}

func TestSystemPrompt_FilePrecedence(t *testing.T) {
	cfg := &config.Config{SystemPrompt: "default"}
	if got := SystemPrompt(cfg); got != "default" {
		t.Fatalf("got %q", got)
	}

	cfg.SystemPromptPath = filepath.Join(t.TempDir(), "missing.txt")
	if got := SystemPrompt(cfg); got != "default" {
		t.Fatalf("missing file: got %q", got)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("  Be a tutor.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.SystemPromptPath = path
	if got := SystemPrompt(cfg); got != "Be a tutor." {
		t.Fatalf("file prompt: got %q", got)
	}
}

func TestOpenStore_FallsBackToMemory(t *testing.T) {
	cfg := &config.Config{StoreBackend: "unknown"}
	if _, ok := OpenStore(cfg).(*storage.MemoryStore); !ok {
		t.Fatalf("expected memory fallback")
	}

	cfg = &config.Config{StoreBackend: config.StoreFile, StoreFilePath: filepath.Join(t.TempDir(), "store.json")}
	if _, ok := OpenStore(cfg).(*storage.FileStore); !ok {
		t.Fatalf("expected file store")
	}
}

func TestNewChatClient(t *testing.T) {
	cfg := &config.Config{LLMProvider: config.ProviderOpenAI, OpenAIModel: "mistral-tiny", OpenAIBaseURL: "http://localhost"}
	if _, err := NewChatClient(cfg); err != nil {
		t.Fatalf("openai client: %v", err)
	}
	cfg.LLMProvider = "nope"
	if _, err := NewChatClient(cfg); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestNewSpeech_DisabledWithoutCommands(t *testing.T) {
	in, out := NewSpeech(&config.Config{})
	if in.Available() || out.Available() {
		t.Fatalf("speech should be inert without commands")
	}
	in, out = NewSpeech(&config.Config{STTCommand: "whisper", TTSCommand: "piper", Language: "en-US"})
	if !in.Available() || !out.Available() {
		t.Fatalf("speech should be available with commands")
	}
}

func TestNewInteractionLog(t *testing.T) {
	if rec := NewInteractionLog(&config.Config{}); rec != nil {
		t.Fatalf("expected disabled log")
	}
	rec := NewInteractionLog(&config.Config{LogFilePath: filepath.Join(t.TempDir(), "logs", "log.jsonl")})
	if rec == nil {
		t.Fatalf("expected a recorder")
	}
}

func TestNewConversation_RecordsIntoState(t *testing.T) {
	st := Init(context.Background(), storage.NewMemoryStore())
	conv := NewConversation(st, nil, nil, conversation.Options{})
	conv.InjectFromHistory("q", "a")
	if len(conv.Messages()) != 2 {
		t.Fatalf("conversation not usable")
	}
}
