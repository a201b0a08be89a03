package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tekai/internal/app"
	"tekai/internal/config"
	"tekai/internal/scheduler"
	"tekai/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN is required")
	}

	client, err := app.NewChatClient(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store := app.OpenStore(cfg)
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	st := app.Init(ctx, store)

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Options{
		ChatID:   cfg.TelegramChatID,
		State:    st,
		Client:   client,
		Log:      app.NewInteractionLog(cfg),
		Step:     cfg.TelegramStep,
		Interval: cfg.TelegramInterval,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New(cfg.ReminderCron, nil)
	sched.SetReminderFunction(bot.Remind)
	if err := sched.Start(); err != nil {
		log.Printf("failed to start reminder scheduler: %v", err)
	}
	defer sched.Stop()
	if sched.IsRunning() {
		log.Printf("Next study reminder at %s", sched.Next().Format(time.RFC1123))
	}

	bot.Start(ctx)
}
