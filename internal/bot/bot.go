// Package bot wires Telegram updates to the session lifecycle and the
// command/callback handlers of the financial planner assistant.
package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkravets/finbot/internal/config"
	"github.com/dkravets/finbot/internal/session"
	"github.com/dkravets/finbot/internal/store"
)

// Sender is the slice of the Telegram client the handlers use. Satisfied
// by *tgbotapi.BotAPI; tests substitute a fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot handles inbound Telegram updates.
type Bot struct {
	tg      Sender
	repo    store.Repository
	manager *session.Manager
	cfg     *config.Config
	now     func() time.Time
}

// New creates a Bot with its collaborators.
func New(tg Sender, repo store.Repository, manager *session.Manager, cfg *config.Config) *Bot {
	return &Bot{
		tg:      tg,
		repo:    repo,
		manager: manager,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run consumes updates until ctx is cancelled or the channel closes.
// Handler errors are logged and never stop the loop.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	slog.Info("bot update loop started", "bot_name", b.cfg.BotName)

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot update loop shutting down", "reason", ctx.Err())
			return
		case update, ok := <-updates:
			if !ok {
				slog.Info("bot update channel closed")
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			slog.Error("callback handler failed",
				"error", err,
				"data", update.CallbackQuery.Data,
				"telegram_id", update.CallbackQuery.From.ID)
		}
	case update.Message != nil:
		if err := b.handleMessage(ctx, update.Message); err != nil {
			slog.Error("message handler failed",
				"error", err,
				"telegram_id", update.Message.From.ID)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.handleStart(ctx, msg)
		case "menu":
			return b.handleMenu(msg)
		case "help":
			return b.handleHelp(msg)
		default:
			return b.handleFallback(msg)
		}
	}

	return b.handleText(ctx, msg)
}

// send delivers a message and surfaces the sent copy for audit linking.
func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.tg.Send(c)
}
