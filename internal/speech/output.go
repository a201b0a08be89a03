package speech

import (
	"context"
	"strings"
	"sync"
)

// Output plays one utterance at a time with toggle semantics: speaking while
// already speaking cancels the current utterance instead of queueing.
type Output struct {
	engine Synthesizer

	mu        sync.Mutex
	speaking  bool
	utterance uint64
	cancel    context.CancelFunc
	onFinish  func()
	onError   func(err error)
}

func NewOutput(engine Synthesizer) *Output {
	return &Output{engine: engine}
}

func (o *Output) Available() bool { return o.engine != nil }

// Handle registers the completion callbacks. They run on the engine goroutine
// and are not called for an utterance cancelled by the caller.
func (o *Output) Handle(onFinish func(), onError func(err error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onFinish = onFinish
	o.onError = onError
}

// Speak starts reading text, or cancels the current utterance when one is
// playing. It reports whether a new utterance was started.
func (o *Output) Speak(text string) bool {
	if o.engine == nil || strings.TrimSpace(text) == "" {
		return false
	}
	o.mu.Lock()
	if o.speaking {
		o.cancelLocked()
		o.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.speaking = true
	o.utterance++
	id := o.utterance
	o.cancel = cancel
	o.mu.Unlock()

	go o.run(ctx, id, text)
	return true
}

func (o *Output) run(ctx context.Context, id uint64, text string) {
	err := o.engine.Speak(ctx, text)

	o.mu.Lock()
	if id != o.utterance || !o.speaking {
		o.mu.Unlock()
		return
	}
	o.speaking = false
	o.cancel()
	o.cancel = nil
	onFinish, onError := o.onFinish, o.onError
	o.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(&EngineError{Op: "speak", Err: err})
		}
		return
	}
	if onFinish != nil {
		onFinish()
	}
}

// Cancel stops the current utterance. It is a no-op when idle.
func (o *Output) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked()
}

func (o *Output) cancelLocked() {
	if !o.speaking {
		return
	}
	o.speaking = false
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Output) Speaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}
