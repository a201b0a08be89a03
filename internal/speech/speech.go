// Package speech bridges external speech engines into the conversation.
//
// Both bridges accept a nil engine; every operation is then a no-op so front
// ends can keep their speech controls without checking for support.
package speech

import (
	"context"
	"fmt"
)

// Recognizer turns one utterance into text. Listen blocks until the utterance
// is interpreted or ctx is cancelled.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Synthesizer reads text aloud. Speak blocks until playback ends or ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// EngineError reports a failure inside a speech engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("speech %s: %v", e.Op, e.Err) }

func (e *EngineError) Unwrap() error { return e.Err }
