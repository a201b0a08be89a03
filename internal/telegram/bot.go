package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tekai/internal/app"
	"tekai/internal/chat"
	"tekai/internal/conversation"
	"tekai/internal/history"
	"tekai/internal/storage"
)

const (
	suggestPrefix = "suggest:"
	historyPrefix = "hist:"
	// historySep splits the day key from the pair's Seq in history callback data.
	historySep = "|"
)

var suggestions = []string{"Give me a study tip", "Quiz me now", "Motivate me!"}

type Options struct {
	// ChatID is the only chat served. Zero binds the bot to the first chat that writes.
	ChatID    int64
	State     *app.State
	Client    conversation.Completer
	Log       storage.Recorder
	Step      int
	Interval  time.Duration
	Scheduler conversation.Scheduler
	Now       func() time.Time
}

// bubble is the Telegram message that mirrors one assistant message of the live log.
type bubble struct {
	index     int
	messageID int
	text      string
}

type Bot struct {
	s      sender
	api    *tgbotapi.BotAPI
	state  *app.State
	client conversation.Completer
	conv   *conversation.Conversation
	log    storage.Recorder
	now    func() time.Time

	mu     sync.Mutex
	chatID int64
	bubble bubble
}

func New(botToken string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, opts Options) *Bot {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = conversation.NewIntervalScheduler(opts.Interval)
	}
	b := &Bot{
		s:      s,
		state:  opts.State,
		client: opts.Client,
		log:    opts.Log,
		now:    opts.Now,
		chatID: opts.ChatID,
		bubble: bubble{index: -1},
	}
	b.conv = app.NewConversation(opts.State, opts.Client, opts.Log, conversation.Options{
		Scheduler: opts.Scheduler,
		Step:      opts.Step,
		OnChange:  b.syncBubble,
		Now:       opts.Now,
	})
	return b
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if !b.allowed(update.Message.Chat.ID) {
			log.Printf("Ignoring message from chat %d", update.Message.Chat.ID)
			return
		}
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.handleText(ctx, update.Message.Text)
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || !b.allowed(cb.Message.Chat.ID) {
			return
		}
		b.handleCallback(ctx, cb)
	}
}

// allowed binds the bot to its chat on first contact when no chat was configured.
func (b *Bot) allowed(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chatID == 0 {
		b.chatID = chatID
		log.Printf("Bound to chat %d", chatID)
	}
	return b.chatID == chatID
}

func (b *Bot) currentChat() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatID
}

// handleText runs one exchange. The update loop waits for the provider, so a
// second message cannot overlap a request in flight; a running reveal is flushed.
func (b *Bot) handleText(ctx context.Context, text string) {
	if !b.state.HasProfile() {
		b.sendMessage(b.currentChat(), "What should I call you? Send /name <your name>.")
		return
	}
	p, ok, err := b.conv.Begin(text)
	if errors.Is(err, conversation.ErrBusy) {
		b.sendMessage(b.currentChat(), "Still waiting for the last answer.")
		return
	}
	if !ok {
		return
	}
	log.Printf("Incoming question: %q", text)

	if _, err := b.s.Request(tgbotapi.NewChatAction(b.currentChat(), tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send typing action: %v", err)
	}
	resp, err := b.client.Complete(ctx, p.Transcript)
	b.conv.Resolve(ctx, p, resp, err)
}

// syncBubble mirrors the live log into Telegram: the tracked assistant message
// is edited while its text grows, and a new assistant message gets a new bubble.
func (b *Bot) syncBubble() {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.conv.Messages()
	if b.bubble.index >= len(msgs) {
		b.bubble = bubble{index: -1}
	}
	if i := b.bubble.index; i >= 0 && msgs[i].Sender == chat.SenderAssistant && msgs[i].Text != b.bubble.text {
		b.editLocked(msgs[i].Text)
	}
	last := len(msgs) - 1
	if last > b.bubble.index && msgs[last].Sender == chat.SenderAssistant && msgs[last].Text != "" {
		out := tgbotapi.NewMessage(b.chatID, msgs[last].Text)
		sent, err := b.s.Send(out)
		if err != nil {
			log.Printf("failed to send message: %v", err)
			return
		}
		b.bubble = bubble{index: last, messageID: sent.MessageID, text: msgs[last].Text}
	}
}

func (b *Bot) editLocked(text string) {
	edit := tgbotapi.NewEditMessageText(b.chatID, b.bubble.messageID, text)
	if _, err := b.s.Send(edit); err != nil {
		log.Printf("failed to edit message: %v", err)
		return
	}
	b.bubble.text = text
}

func (b *Bot) resetBubble() {
	b.mu.Lock()
	b.bubble = bubble{index: -1}
	b.mu.Unlock()
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) greeting() string {
	return fmt.Sprintf("Hi %s! How can I help you?", b.state.Profile().Name())
}

func suggestionKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for i, s := range suggestions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s, fmt.Sprintf("%s%d", suggestPrefix, i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// historyKeyboard lists every recorded question, one button per row. Buttons
// address pairs by day and Seq so they stay valid after later questions.
func (b *Bot) historyKeyboard() (tgbotapi.InlineKeyboardMarkup, bool) {
	now := b.now()
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range b.state.History.Entries() {
		label := history.Label(e.Date, now)
		for qi, p := range e.Questions {
			text := label + ": " + history.Truncate(p.Question, history.DisplayLen)
			data := historyData(e.Date, history.Seq(e, qi))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data)))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func historyData(day string, seq int) string {
	return fmt.Sprintf("%s%s%s%d", historyPrefix, day, historySep, seq)
}

func parseHistoryData(data string) (string, int, bool) {
	day, seqText, ok := strings.Cut(strings.TrimPrefix(data, historyPrefix), historySep)
	if !ok || day == "" {
		return "", 0, false
	}
	seq, err := strconv.Atoi(seqText)
	if err != nil {
		return "", 0, false
	}
	return day, seq, true
}

// Remind pushes the daily study reminder to the bound chat.
func (b *Bot) Remind(ctx context.Context) error {
	chatID := b.currentChat()
	if chatID == 0 {
		return errors.New("telegram: no chat bound yet")
	}
	text := ReminderText(b.state, b.now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = suggestionKeyboard()
	if _, err := b.s.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// ReminderText summarises today's activity for the reminder.
func ReminderText(st *app.State, now time.Time) string {
	name := st.Profile().Name()
	entry, ok := st.History.Day(history.DayKey(now))
	if !ok || len(entry.Questions) == 0 {
		return fmt.Sprintf("Hi %s! You have not studied today yet. Shall we start?", name)
	}
	n := len(entry.Questions)
	noun := "questions"
	if n == 1 {
		noun = "question"
	}
	return fmt.Sprintf("Nice work today, %s! You asked %d %s. Want to keep going?", name, n, noun)
}
