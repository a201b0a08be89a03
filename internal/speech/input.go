package speech

import (
	"context"
	"log"
	"strings"
	"sync"
)

// Input runs at most one listening session at a time.
type Input struct {
	engine Recognizer

	mu        sync.Mutex
	listening bool
	session   uint64
	cancel    context.CancelFunc
	onResult  func(text string)
	onEnd     func()
}

func NewInput(engine Recognizer) *Input {
	return &Input{engine: engine}
}

func (in *Input) Available() bool { return in.engine != nil }

// Handle registers the callbacks. onResult fires at most once per session with
// the recognized text; onEnd fires when the session is over, whatever the reason.
// Both run on the engine goroutine.
func (in *Input) Handle(onResult func(text string), onEnd func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onResult = onResult
	in.onEnd = onEnd
}

// Start begins a session. It reports false when there is no engine or a session is already active.
func (in *Input) Start() bool {
	if in.engine == nil {
		return false
	}
	in.mu.Lock()
	if in.listening {
		in.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	in.listening = true
	in.session++
	session := in.session
	in.cancel = cancel
	in.mu.Unlock()

	go in.run(ctx, session)
	return true
}

func (in *Input) run(ctx context.Context, session uint64) {
	text, err := in.engine.Listen(ctx)

	in.mu.Lock()
	if session != in.session || !in.listening {
		// stopped by the caller
		in.mu.Unlock()
		return
	}
	in.listening = false
	in.cancel()
	in.cancel = nil
	onResult, onEnd := in.onResult, in.onEnd
	in.mu.Unlock()

	text = strings.TrimSpace(text)
	switch {
	case err != nil:
		log.Printf("speech recognition failed: %v", &EngineError{Op: "listen", Err: err})
	case text != "" && onResult != nil:
		onResult(text)
	}
	if onEnd != nil {
		onEnd()
	}
}

// Stop ends the active session without a result. It is a no-op when not listening.
func (in *Input) Stop() {
	in.mu.Lock()
	if !in.listening {
		in.mu.Unlock()
		return
	}
	in.listening = false
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
	onEnd := in.onEnd
	in.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

func (in *Input) Listening() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.listening
}
