package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tekai/internal/analytics"
	"tekai/internal/export"
)

const helpText = "Send me any question.\n" +
	"/new - start a new chat\n" +
	"/history - reopen a past question\n" +
	"/export - download this chat\n" +
	"/stats [json] - today's study activity\n" +
	"/name <name> - change how I call you"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		if !b.state.HasProfile() {
			b.sendMessage(chatID, "Welcome! What should I call you? Send /name <your name>.")
			return
		}
		b.sendWelcome(chatID)
	case "name":
		name := strings.TrimSpace(msg.CommandArguments())
		if name == "" {
			b.sendMessage(chatID, "Usage: /name <your name>")
			return
		}
		if err := b.state.SaveName(ctx, name); err != nil {
			log.Printf("failed to save profile: %v", err)
			b.sendMessage(chatID, "Could not save your name, please try again.")
			return
		}
		b.sendWelcome(chatID)
	case "new":
		b.conv.NewChat()
		b.resetBubble()
		b.sendWelcome(chatID)
	case "history":
		kb, ok := b.historyKeyboard()
		if !ok {
			b.sendMessage(chatID, "No questions yet.")
			return
		}
		out := tgbotapi.NewMessage(chatID, "History")
		out.ReplyMarkup = kb
		if _, err := b.s.Send(out); err != nil {
			log.Printf("failed to send history: %v", err)
		}
	case "export":
		b.handleExport(chatID)
	case "stats":
		b.handleStats(chatID, strings.TrimSpace(msg.CommandArguments()) == "json")
	case "help":
		b.sendMessage(chatID, helpText)
	default:
		b.sendMessage(chatID, "Unknown command.\n\n"+helpText)
	}
}

func (b *Bot) sendWelcome(chatID int64) {
	out := tgbotapi.NewMessage(chatID, b.greeting())
	out.ReplyMarkup = suggestionKeyboard()
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to send welcome: %v", err)
	}
}

func (b *Bot) handleExport(chatID int64) {
	msgs := b.conv.Messages()
	if len(msgs) == 0 {
		b.sendMessage(chatID, "Nothing to export yet.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  export.FileName(b.now()),
		Bytes: []byte(export.Transcript(msgs)),
	})
	if _, err := b.s.Send(doc); err != nil {
		log.Printf("failed to send transcript: %v", err)
		b.sendMessage(chatID, "Export failed.")
	}
}

func (b *Bot) handleStats(chatID int64, detailed bool) {
	if b.log == nil {
		b.sendMessage(chatID, "Activity log is disabled.")
		return
	}
	events, err := b.log.LoadInteractions()
	if err != nil {
		log.Printf("failed to load interactions: %v", err)
		b.sendMessage(chatID, "Could not read the activity log.")
		return
	}
	stats := analytics.AnalyzeDailyLogs(events, b.now())
	if !detailed {
		b.sendMessage(chatID, stats.GenerateReportSummary())
		return
	}
	raw, err := stats.ToJSON()
	if err != nil {
		log.Printf("failed to encode stats: %v", err)
		b.sendMessage(chatID, "Could not encode the stats.")
		return
	}
	b.sendMessage(chatID, raw)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	switch {
	case strings.HasPrefix(cb.Data, suggestPrefix):
		i, err := strconv.Atoi(strings.TrimPrefix(cb.Data, suggestPrefix))
		if err != nil || i < 0 || i >= len(suggestions) {
			return
		}
		b.sendMessage(cb.Message.Chat.ID, suggestions[i])
		b.handleText(ctx, suggestions[i])
	case strings.HasPrefix(cb.Data, historyPrefix):
		day, seq, ok := parseHistoryData(cb.Data)
		if !ok {
			log.Printf("bad history callback %q", cb.Data)
			return
		}
		pair, ok := b.state.History.Find(day, seq)
		if !ok {
			b.sendMessage(cb.Message.Chat.ID, "That question is no longer in history.")
			return
		}
		b.sendMessage(cb.Message.Chat.ID, pair.Question)
		b.conv.InjectFromHistory(pair.Question, pair.Answer)
	}
}
