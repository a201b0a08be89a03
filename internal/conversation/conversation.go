// Package conversation owns the live message log of a study session and the
// typewriter reveal of assistant answers.
//
// A submit moves the conversation idle -> awaiting-response -> revealing -> idle.
// While revealing, each Tick grows the last assistant message by Step runes.
// Speech capture and speech output are tracked as independent flags.
package conversation

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"tekai/internal/chat"
	"tekai/internal/llm"
	"tekai/internal/storage"
)

const (
	DefaultInterval = 50 * time.Millisecond
	MaxInputLen     = 500
)

// ErrBusy is returned by a submit issued while a request is in flight.
var ErrBusy = errors.New("conversation: request in flight")

type Message = chat.Message

// Completer performs the provider exchange for a transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []chat.Message) (llm.Response, error)
}

// HistoryRecorder stores answered questions.
type HistoryRecorder interface {
	Record(ctx context.Context, question, answer string, when time.Time) error
}

type Options struct {
	Client Completer
	// History is optional; nil disables recording.
	History HistoryRecorder
	// Log is an optional interaction log.
	Log storage.Recorder
	// Scheduler drives the reveal. When nil the caller must call Tick itself.
	Scheduler Scheduler
	// Step is the number of runes revealed per tick, 1 when unset.
	Step int
	// OnChange is called after every mutation, outside the lock.
	OnChange func()
	Now      func() time.Time
}

type typing struct {
	full     []rune
	revealed int
	bubble   bool
}

// Pending is a request handed out by Begin and settled by Resolve.
type Pending struct {
	Question   string
	Transcript []Message
	epoch      uint64
}

type Conversation struct {
	opts Options

	mu        sync.Mutex
	messages  []Message
	input     string
	state     State
	typing    *typing
	gen       uint64
	epoch     uint64
	listening bool
	speaking  bool
}

func New(opts Options) *Conversation {
	if opts.Step <= 0 {
		opts.Step = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Conversation{opts: opts}
}

// Submit runs a whole exchange for text: it appends the user message, calls the
// provider and starts the reveal. Blank text is a no-op. Provider failures are
// turned into the fallback assistant message and never returned.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	p, ok, err := c.Begin(text)
	if err != nil || !ok {
		return err
	}
	resp, err := c.opts.Client.Complete(ctx, p.Transcript)
	c.Resolve(ctx, p, resp, err)
	return nil
}

// Begin performs the synchronous half of a submit. ok is false for blank text.
// A reveal still running is completed at once so the new turn starts on a settled log.
func (c *Conversation) Begin(text string) (Pending, bool, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, false, nil
	}
	c.mu.Lock()
	if c.state == StateAwaiting {
		c.mu.Unlock()
		return Pending{}, false, ErrBusy
	}
	c.flushLocked()
	c.messages = append(c.messages, Message{Sender: chat.SenderUser, Text: text})
	c.input = ""
	c.state = StateAwaiting
	p := Pending{
		Question:   text,
		Transcript: append([]Message(nil), c.messages...),
		epoch:      c.epoch,
	}
	c.mu.Unlock()

	c.changed()
	return p, true, nil
}

// Resolve settles a pending request with the provider outcome. The awaiting
// state is always left, whatever the outcome. An answer that arrives after
// NewChat is recorded in history but not shown.
func (c *Conversation) Resolve(ctx context.Context, p Pending, resp llm.Response, err error) {
	now := c.opts.Now()
	if err != nil {
		log.Printf("failed to generate text: %v", err)
		c.logEvent(storage.Event{Timestamp: now, Question: p.Question, Failed: true})

		c.mu.Lock()
		c.state = StateIdle
		if p.epoch == c.epoch {
			c.messages = append(c.messages, Message{Sender: chat.SenderAssistant, Text: chat.FallbackText})
		}
		c.mu.Unlock()
		c.changed()
		return
	}

	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	c.logEvent(storage.Event{
		Timestamp:        now,
		Question:         p.Question,
		Answer:           resp.Content,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	})
	if c.opts.History != nil {
		if err := c.opts.History.Record(ctx, p.Question, resp.Content, now); err != nil {
			log.Printf("failed to persist history: %v", err)
		}
	}

	c.mu.Lock()
	if p.epoch != c.epoch {
		c.state = StateIdle
		c.mu.Unlock()
		c.changed()
		return
	}
	c.gen++
	gen := c.gen
	c.typing = &typing{full: []rune(resp.Content)}
	c.state = StateRevealing
	c.mu.Unlock()

	c.changed()
	if c.opts.Scheduler != nil {
		c.opts.Scheduler.Schedule(func() bool { return c.tick(gen) })
	}
}

// Tick reveals the next Step runes of the pending answer. It returns false once
// nothing is left to reveal.
func (c *Conversation) Tick() bool {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func (c *Conversation) tick(gen uint64) bool {
	c.mu.Lock()
	if c.typing == nil || gen != c.gen {
		c.mu.Unlock()
		return false
	}
	t := c.typing
	t.revealed += c.opts.Step
	if t.revealed > len(t.full) {
		t.revealed = len(t.full)
	}
	c.showLocked(string(t.full[:t.revealed]))
	more := t.revealed < len(t.full)
	if !more {
		c.typing = nil
		c.state = StateIdle
	}
	c.mu.Unlock()

	c.changed()
	return more
}

// showLocked writes the revealed prefix: the first call creates the assistant
// bubble, later calls replace it in place.
func (c *Conversation) showLocked(text string) {
	if !c.typing.bubble {
		c.messages = append(c.messages, Message{Sender: chat.SenderAssistant, Text: text})
		c.typing.bubble = true
		return
	}
	c.messages[len(c.messages)-1].Text = text
}

// flushLocked completes a running reveal immediately and stops its ticks.
func (c *Conversation) flushLocked() {
	if c.typing == nil {
		return
	}
	c.showLocked(string(c.typing.full))
	c.typing = nil
	c.gen++
	c.state = StateIdle
	if c.opts.Scheduler != nil {
		c.opts.Scheduler.Cancel()
	}
}

// Skip finishes the current reveal at once.
func (c *Conversation) Skip() {
	c.mu.Lock()
	c.flushLocked()
	c.mu.Unlock()
	c.changed()
}

// NewChat clears the live log and input buffer. Persisted history is untouched.
func (c *Conversation) NewChat() {
	c.mu.Lock()
	if c.typing != nil {
		c.typing = nil
		c.gen++
		if c.opts.Scheduler != nil {
			c.opts.Scheduler.Cancel()
		}
	}
	c.messages = nil
	c.input = ""
	c.epoch++
	c.state = StateIdle
	c.mu.Unlock()
	c.changed()
}

// InjectFromHistory appends a past pair to the live log without calling the provider.
func (c *Conversation) InjectFromHistory(question, answer string) {
	c.mu.Lock()
	c.flushLocked()
	c.messages = append(c.messages,
		Message{Sender: chat.SenderUser, Text: question},
		Message{Sender: chat.SenderAssistant, Text: answer},
	)
	c.mu.Unlock()
	c.changed()
}

// SetInput replaces the input buffer, capped at MaxInputLen runes.
func (c *Conversation) SetInput(text string) {
	if r := []rune(text); len(r) > MaxInputLen {
		text = string(r[:MaxInputLen])
	}
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.changed()
}

func (c *Conversation) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Conversation) SetListening(on bool) {
	c.mu.Lock()
	c.listening = on
	c.mu.Unlock()
	c.changed()
}

func (c *Conversation) SetSpeaking(on bool) {
	c.mu.Lock()
	c.speaking = on
	c.mu.Unlock()
	c.changed()
}

// Messages returns a copy of the live log.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Messages:  append([]Message(nil), c.messages...),
		Input:     c.input,
		State:     c.state,
		Listening: c.listening,
		Speaking:  c.speaking,
	}
}

// LastAnswer returns the most recent assistant message.
func (c *Conversation) LastAnswer() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Sender == chat.SenderAssistant {
			return c.messages[i].Text, true
		}
	}
	return "", false
}

func (c *Conversation) logEvent(ev storage.Event) {
	if c.opts.Log == nil {
		return
	}
	if err := c.opts.Log.AppendInteraction(ev); err != nil {
		log.Printf("failed to append interaction: %v", err)
	}
}

func (c *Conversation) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}
