// Package tui is the terminal front end of the study assistant.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"tekai/internal/app"
	"tekai/internal/conversation"
	"tekai/internal/export"
	"tekai/internal/history"
	"tekai/internal/llm"
	"tekai/internal/speech"
)

// Suggestions are offered while the live log is empty.
var Suggestions = []string{"Give me a study tip", "Quiz me now", "Motivate me!"}

type Options struct {
	State     *app.State
	Conv      *conversation.Conversation
	Client    conversation.Completer
	SpeechIn  *speech.Input
	SpeechOut *speech.Output
	ExportDir string
	// Interval between typewriter ticks.
	Interval time.Duration
	Now      func() time.Time
}

type focus int

const (
	focusInput focus = iota
	focusHistory
)

type historyItem struct {
	date string
	seq  int
	day  string
	text string
}

type Model struct {
	opts Options
	keys keyMap
	help help.Model

	input    textarea.Model
	viewport viewport.Model
	markdown *markdownCache

	width, height int
	showHistory   bool
	focus         focus
	items         []historyItem
	cursor        int

	askingName bool
	status     string
	revealSeq  int

	events chan tea.Msg
}

// answerMsg carries the provider outcome of one submit.
type answerMsg struct {
	pending conversation.Pending
	resp    llm.Response
	err     error
}

type tickMsg struct{ seq int }

type (
	heardMsg     struct{ text string }
	listenEndMsg struct{}
	spokenMsg    struct{}
	speakErrMsg  struct{ err error }
)

func New(opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = conversation.DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SpeechIn == nil {
		opts.SpeechIn = speech.NewInput(nil)
	}
	if opts.SpeechOut == nil {
		opts.SpeechOut = speech.NewOutput(nil)
	}

	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.CharLimit = conversation.MaxInputLen
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	m := &Model{
		opts:        opts,
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       ta,
		viewport:    viewport.New(80, 20),
		markdown:    newMarkdownCache(),
		showHistory: true,
		events:      make(chan tea.Msg, 8),
	}
	if !opts.State.HasProfile() {
		m.askingName = true
		m.input.Placeholder = "What should I call you?"
	}

	opts.SpeechIn.Handle(
		func(text string) { m.events <- heardMsg{text: text} },
		func() { m.events <- listenEndMsg{} },
	)
	opts.SpeechOut.Handle(
		func() { m.events <- spokenMsg{} },
		func(err error) { m.events <- speakErrMsg{err: err} },
	)
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitEvent())
}

// waitEvent forwards one speech callback into the update loop.
func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.refresh()
			return m, cmd
		}

	case answerMsg:
		m.opts.Conv.Resolve(context.Background(), msg.pending, msg.resp, msg.err)
		if m.opts.Conv.State() == conversation.StateRevealing {
			m.revealSeq++
			cmds = append(cmds, m.tick(m.revealSeq))
		}

	case tickMsg:
		if msg.seq == m.revealSeq && m.opts.Conv.Tick() {
			cmds = append(cmds, m.tick(msg.seq))
		}

	case heardMsg:
		m.opts.Conv.SetListening(false)
		if m.askingName {
			// The name prompt owns the input; Enter saves it.
			m.input.SetValue(msg.text)
		} else {
			cmds = append(cmds, m.submit(msg.text))
		}
		cmds = append(cmds, m.waitEvent())

	case listenEndMsg:
		m.opts.Conv.SetListening(false)
		cmds = append(cmds, m.waitEvent())

	case spokenMsg:
		m.opts.Conv.SetSpeaking(false)
		cmds = append(cmds, m.waitEvent())

	case speakErrMsg:
		log.Printf("speech synthesis failed: %v", msg.err)
		m.opts.Conv.SetSpeaking(false)
		m.status = "Could not read the answer aloud"
		cmds = append(cmds, m.waitEvent())
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if !m.askingName {
			m.opts.Conv.SetInput(m.input.Value())
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.opts.SpeechIn.Stop()
		m.opts.SpeechOut.Cancel()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Send):
		if m.focus == focusHistory {
			m.inject()
			return nil, true
		}
		if m.askingName {
			m.saveName()
			return nil, true
		}
		return m.submit(m.input.Value()), true

	case key.Matches(msg, m.keys.NewChat):
		m.opts.Conv.NewChat()
		m.input.Reset()
		m.status = ""
		return nil, true

	case key.Matches(msg, m.keys.Export):
		m.export()
		return nil, true

	case key.Matches(msg, m.keys.Speak):
		m.speak()
		return nil, true

	case key.Matches(msg, m.keys.Listen):
		m.listen()
		return nil, true

	case key.Matches(msg, m.keys.Skip):
		m.opts.Conv.Skip()
		return nil, true

	case key.Matches(msg, m.keys.ToggleSide):
		m.showHistory = !m.showHistory
		if !m.showHistory {
			m.setFocus(focusInput)
		}
		m.layout()
		return nil, true

	case key.Matches(msg, m.keys.FocusSide):
		if m.focus == focusInput && m.showHistory && len(m.items) > 0 {
			m.setFocus(focusHistory)
		} else {
			m.setFocus(focusInput)
		}
		return nil, true

	case key.Matches(msg, m.keys.Suggestions):
		if len(m.opts.Conv.Messages()) > 0 || m.askingName {
			return nil, false
		}
		i := int(msg.String()[1] - '1')
		if i >= 0 && i < len(Suggestions) {
			return m.submit(Suggestions[i]), true
		}
	}

	if m.focus == focusHistory {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
		return
	}
	m.input.Blur()
}

// submit starts a request and returns the command that performs it.
func (m *Model) submit(text string) tea.Cmd {
	p, ok, err := m.opts.Conv.Begin(text)
	if errors.Is(err, conversation.ErrBusy) {
		m.status = "Still waiting for the last answer"
		return nil
	}
	if !ok {
		return nil
	}
	m.status = ""
	m.input.Reset()
	client := m.opts.Client
	return func() tea.Msg {
		resp, err := client.Complete(context.Background(), p.Transcript)
		return answerMsg{pending: p, resp: resp, err: err}
	}
}

func (m *Model) tick(seq int) tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg { return tickMsg{seq: seq} })
}

func (m *Model) saveName() {
	name := strings.TrimSpace(m.input.Value())
	if name == "" {
		return
	}
	if err := m.opts.State.SaveName(context.Background(), name); err != nil {
		log.Printf("failed to save profile: %v", err)
		m.status = "Could not save your name"
		return
	}
	m.askingName = false
	m.input.Reset()
	m.input.Placeholder = "Ask me anything..."
}

func (m *Model) inject() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	it := m.items[m.cursor]
	pair, ok := m.opts.State.History.Find(it.date, it.seq)
	if !ok {
		return
	}
	m.opts.Conv.InjectFromHistory(pair.Question, pair.Answer)
	m.setFocus(focusInput)
}

func (m *Model) export() {
	path, err := export.ToFile(m.opts.ExportDir, m.opts.Conv.Messages(), m.opts.Now())
	switch {
	case errors.Is(err, export.ErrEmpty):
		m.status = "Nothing to export yet"
	case err != nil:
		log.Printf("failed to export chat: %v", err)
		m.status = "Export failed"
	default:
		m.status = fmt.Sprintf("Saved %s", path)
	}
}

func (m *Model) speak() {
	text, ok := m.opts.Conv.LastAnswer()
	if !ok {
		m.status = "Nothing to read yet"
		return
	}
	if !m.opts.SpeechOut.Available() {
		m.status = "Speech output is not available"
		return
	}
	m.opts.Conv.SetSpeaking(m.opts.SpeechOut.Speak(text))
}

func (m *Model) listen() {
	if !m.opts.SpeechIn.Available() {
		m.status = "Speech input is not available"
		return
	}
	if m.opts.SpeechIn.Listening() {
		m.opts.SpeechIn.Stop()
		m.opts.Conv.SetListening(false)
		return
	}
	m.opts.Conv.SetListening(m.opts.SpeechIn.Start())
}

func (m *Model) layout() {
	w := m.width
	if m.showHistory {
		w -= sidebarWidth + 1
	}
	if w < 20 {
		w = 20
	}
	h := m.height - m.input.Height() - 4
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.SetWidth(w)
	m.markdown.setWidth(w - 4)
}

// refresh rebuilds the sidebar items and the transcript view.
func (m *Model) refresh() {
	m.items = m.items[:0]
	now := m.opts.Now()
	for _, e := range m.opts.State.History.Entries() {
		day := history.Label(e.Date, now)
		for qi, p := range e.Questions {
			m.items = append(m.items, historyItem{
				date: e.Date,
				seq:  history.Seq(e, qi),
				day:  day,
				text: history.Truncate(p.Question, history.DisplayLen),
			})
		}
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript(m.opts.Conv.Snapshot()))
	if atBottom {
		m.viewport.GotoBottom()
	}
}
