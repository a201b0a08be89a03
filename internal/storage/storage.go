package storage

import (
	"context"
	"errors"
	"time"
)

// Keys of the documents kept in the store. Each holds a whole serialized
// document that is replaced on every write.
const (
	KeyHistory = "simbiHistory"
	KeyProfile = "simbiUser"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is a flat key-value store of serialized documents.
// Get returns ErrNotFound when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Event represents a single question/answer exchange with the provider.
// Failed exchanges are recorded too, with an empty answer.
type Event struct {
	Timestamp        time.Time `json:"timestamp"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer,omitempty"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	Failed           bool      `json:"failed,omitempty"`
}

// Recorder abstracts the append-only interaction log.
// LoadInteractions should return events in chronological order.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
