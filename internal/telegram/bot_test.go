package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tekai/internal/app"
	"tekai/internal/chat"
	"tekai/internal/llm"
	"tekai/internal/storage"
)

type sentItem struct {
	kind      string
	text      string
	messageID int
}

type fakeSender struct {
	sent     []sentItem
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.nextID++
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, sentItem{kind: "message", text: m.Text, messageID: f.nextID})
	case tgbotapi.EditMessageTextConfig:
		f.sent = append(f.sent, sentItem{kind: "edit", text: m.Text, messageID: m.MessageID})
	case tgbotapi.DocumentConfig:
		fb := m.File.(tgbotapi.FileBytes)
		f.sent = append(f.sent, sentItem{kind: "document:" + fb.Name, text: string(fb.Bytes)})
	}
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts(kind string) []string {
	var out []string
	for _, s := range f.sent {
		if s.kind == kind {
			out = append(out, s.text)
		}
	}
	return out
}

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, _ []chat.Message) (llm.Response, error) {
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.answer, Model: "test-model"}, nil
}

// manualScheduler holds the tick until the test drives it.
type manualScheduler struct{ tick func() bool }

func (m *manualScheduler) Schedule(tick func() bool) { m.tick = tick }
func (m *manualScheduler) Cancel()                   { m.tick = nil }

func (m *manualScheduler) run(t *testing.T) {
	t.Helper()
	for i := 0; m.tick != nil; i++ {
		if i > 1000 {
			t.Fatalf("reveal never finished")
		}
		if !m.tick() {
			m.tick = nil
		}
	}
}

var testNow = time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)

const testChat = int64(100)

func newTestBot(t *testing.T, fc *fakeCompleter, step int) (*Bot, *fakeSender, *manualScheduler) {
	t.Helper()
	st := app.Init(context.Background(), storage.NewMemoryStore())
	if err := st.SaveName(context.Background(), "Ann"); err != nil {
		t.Fatalf("save name: %v", err)
	}
	fs := &fakeSender{}
	sch := &manualScheduler{}
	b := newBot(fs, Options{
		ChatID:    testChat,
		State:     st,
		Client:    fc,
		Step:      step,
		Scheduler: sch,
		Now:       func() time.Time { return testNow },
	})
	return b, fs, sch
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestHandleText_RevealsByEditingOneMessage(t *testing.T) {
	fc := &fakeCompleter{answer: "abcdefgh"}
	b, fs, sch := newTestBot(t, fc, 3)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testChat, "Give me a study tip"))
	if len(fs.requests) != 1 {
		t.Fatalf("expected typing action, got %d requests", len(fs.requests))
	}
	sch.run(t)

	if got := fs.texts("message"); len(got) != 1 || got[0] != "abc" {
		t.Fatalf("first bubble: %+v", got)
	}
	edits := fs.texts("edit")
	if len(edits) != 2 || edits[0] != "abcdef" || edits[1] != "abcdefgh" {
		t.Fatalf("edits: %+v", edits)
	}
	for _, s := range fs.sent {
		if s.kind == "edit" && s.messageID != fs.sent[0].messageID {
			t.Fatalf("edit targeted another message: %+v", s)
		}
	}
	if b.state.History.Len() != 1 {
		t.Fatalf("history not recorded")
	}
}

func TestHandleText_FlushesRunningReveal(t *testing.T) {
	fc := &fakeCompleter{answer: "abcdef"}
	b, fs, sch := newTestBot(t, fc, 2)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testChat, "one"))
	sch.tick()
	fc.answer = "xyz"
	b.handleUpdate(ctx, textUpdate(testChat, "two"))
	sch.run(t)

	msgs := b.conv.Messages()
	if len(msgs) != 4 || msgs[1].Text != "abcdef" || msgs[3].Text != "xyz" {
		t.Fatalf("unexpected log: %+v", msgs)
	}
	edits := fs.texts("edit")
	if len(edits) == 0 || edits[0] != "abcdef" {
		t.Fatalf("flushed text not pushed: %+v", edits)
	}
}

func TestHandleText_ProviderError(t *testing.T) {
	fc := &fakeCompleter{err: &llm.ProviderError{Provider: "test", Err: errors.New("down")}}
	b, fs, _ := newTestBot(t, fc, 1)
	b.handleUpdate(context.Background(), textUpdate(testChat, "hello"))

	if got := fs.texts("message"); len(got) != 1 || got[0] != chat.FallbackText {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if b.state.History.Len() != 0 {
		t.Fatalf("failed exchange must not be recorded")
	}
}

func TestHandleUpdate_IgnoresOtherChats(t *testing.T) {
	fc := &fakeCompleter{answer: "x"}
	b, fs, _ := newTestBot(t, fc, 1)
	b.handleUpdate(context.Background(), textUpdate(testChat+1, "hi"))
	if fc.calls != 0 || len(fs.sent) != 0 {
		t.Fatalf("foreign chat served")
	}
}

func TestAllowed_BindsFirstChat(t *testing.T) {
	b := &Bot{bubble: bubble{index: -1}}
	if !b.allowed(7) || b.allowed(8) || !b.allowed(7) {
		t.Fatalf("expected binding to the first chat")
	}
}

func TestCommands_NewHistoryExport(t *testing.T) {
	fc := &fakeCompleter{answer: "Diffusion of water."}
	b, fs, sch := newTestBot(t, fc, 100)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testChat, "What is osmosis?"))
	sch.run(t)

	b.handleUpdate(ctx, textUpdate(testChat, "/export"))
	docs := fs.texts("document:tekai-chat-20240305-180000.txt")
	if len(docs) != 1 || docs[0] != "USER: What is osmosis?\n\nASSISTANT: Diffusion of water.\n" {
		t.Fatalf("export: %+v", fs.sent)
	}

	b.handleUpdate(ctx, textUpdate(testChat, "/new"))
	if len(b.conv.Messages()) != 0 {
		t.Fatalf("new chat did not clear the log")
	}
	b.handleUpdate(ctx, textUpdate(testChat, "/export"))
	if got := fs.texts("message"); got[len(got)-1] != "Nothing to export yet." {
		t.Fatalf("empty export: %+v", got)
	}

	before := len(fs.texts("message"))
	kb, ok := b.historyKeyboard()
	if !ok {
		t.Fatalf("no history keyboard")
	}
	b.handleUpdate(ctx, callbackUpdate(testChat, *kb.InlineKeyboard[0][0].CallbackData))
	msgs := b.conv.Messages()
	if len(msgs) != 2 || msgs[1].Text != "Diffusion of water." {
		t.Fatalf("inject: %+v", msgs)
	}
	got := fs.texts("message")[before:]
	if len(got) != 2 || got[0] != "What is osmosis?" || got[1] != "Diffusion of water." {
		t.Fatalf("injected pair not shown: %+v", got)
	}
	if fc.calls != 1 {
		t.Fatalf("inject must not call the provider")
	}
}

func TestCallback_HistoryButtonSurvivesNewQuestions(t *testing.T) {
	fc := &fakeCompleter{answer: "first answer"}
	b, fs, sch := newTestBot(t, fc, 100)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testChat, "first question"))
	sch.run(t)
	kb, ok := b.historyKeyboard()
	if !ok {
		t.Fatalf("no history keyboard")
	}
	stale := *kb.InlineKeyboard[0][0].CallbackData

	fc.answer = "second answer"
	b.handleUpdate(ctx, textUpdate(testChat, "second question"))
	sch.run(t)
	b.handleUpdate(ctx, textUpdate(testChat, "/new"))

	before := len(fs.texts("message"))
	b.handleUpdate(ctx, callbackUpdate(testChat, stale))
	msgs := b.conv.Messages()
	if len(msgs) != 2 || msgs[0].Text != "first question" || msgs[1].Text != "first answer" {
		t.Fatalf("old button loaded the wrong pair: %+v", msgs)
	}
	if got := fs.texts("message")[before:]; len(got) == 0 || got[0] != "first question" {
		t.Fatalf("shown: %+v", got)
	}
}

func TestParseHistoryData(t *testing.T) {
	day, seq, ok := parseHistoryData(historyData("Tue Mar 05 2024", 3))
	if !ok || day != "Tue Mar 05 2024" || seq != 3 {
		t.Fatalf("parse: %q %d %v", day, seq, ok)
	}
	for _, bad := range []string{historyPrefix + "0:0", historyPrefix + "|1", historyPrefix + "day|x"} {
		if _, _, ok := parseHistoryData(bad); ok {
			t.Fatalf("accepted %q", bad)
		}
	}
}

func TestCallback_SuggestionSubmits(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	b, _, sch := newTestBot(t, fc, 10)
	b.handleUpdate(context.Background(), callbackUpdate(testChat, suggestPrefix+"1"))
	sch.run(t)
	msgs := b.conv.Messages()
	if len(msgs) != 2 || msgs[0].Text != "Quiz me now" {
		t.Fatalf("suggestion not submitted: %+v", msgs)
	}
}

func TestName_RequiredBeforeQuestions(t *testing.T) {
	st := app.Init(context.Background(), storage.NewMemoryStore())
	fs := &fakeSender{}
	fc := &fakeCompleter{answer: "x"}
	b := newBot(fs, Options{ChatID: testChat, State: st, Client: fc, Scheduler: &manualScheduler{}})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testChat, "hello"))
	if fc.calls != 0 {
		t.Fatalf("question answered before a name was set")
	}
	b.handleUpdate(ctx, textUpdate(testChat, "/name Bob"))
	if !st.HasProfile() || st.Profile().Name() != "Bob" {
		t.Fatalf("name not saved: %+v", st.Profile())
	}
	got := fs.texts("message")
	if got[len(got)-1] != "Hi Bob! How can I help you?" {
		t.Fatalf("greeting: %+v", got)
	}
}

func TestRemind(t *testing.T) {
	fc := &fakeCompleter{answer: "a"}
	b, fs, sch := newTestBot(t, fc, 10)
	ctx := context.Background()
	if err := b.Remind(ctx); err != nil {
		t.Fatalf("remind: %v", err)
	}
	if got := fs.texts("message"); !strings.Contains(got[0], "not studied today") {
		t.Fatalf("reminder: %q", got[0])
	}

	b.handleUpdate(ctx, textUpdate(testChat, "q"))
	sch.run(t)
	if got := ReminderText(b.state, testNow); !strings.Contains(got, "You asked 1 question.") {
		t.Fatalf("reminder text: %q", got)
	}

	unbound := &Bot{}
	if err := unbound.Remind(ctx); err == nil {
		t.Fatalf("expected error without a bound chat")
	}
}

func TestStats_SummarisesToday(t *testing.T) {
	rec, err := storage.NewFileRecorder(filepath.Join(t.TempDir(), "log.jsonl"))
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	st := app.Init(context.Background(), storage.NewMemoryStore())
	if err := st.SaveName(context.Background(), "Ann"); err != nil {
		t.Fatalf("save name: %v", err)
	}
	fs := &fakeSender{}
	sch := &manualScheduler{}
	b := newBot(fs, Options{
		ChatID:    testChat,
		State:     st,
		Client:    &fakeCompleter{answer: "ok"},
		Log:       rec,
		Step:      10,
		Scheduler: sch,
		Now:       func() time.Time { return testNow },
	})
	ctx := context.Background()
	b.handleUpdate(ctx, textUpdate(testChat, "q"))
	sch.run(t)
	b.handleUpdate(ctx, textUpdate(testChat, "/stats"))

	got := fs.texts("message")
	if !strings.Contains(got[len(got)-1], "Questions asked: 1") {
		t.Fatalf("stats: %q", got[len(got)-1])
	}

	b.handleUpdate(ctx, textUpdate(testChat, "/stats json"))
	got = fs.texts("message")
	if !strings.Contains(got[len(got)-1], `"questions": 1`) {
		t.Fatalf("stats json: %q", got[len(got)-1])
	}
}
