package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	_, created, err := b.repo.GetOrCreateUser(ctx,
		msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		b.sendGenericError(msg.Chat.ID)
		return fmt.Errorf("get or create user: %w", err)
	}

	var welcome string
	if created {
		welcome = fmt.Sprintf("🎉 Welcome to %s!", b.cfg.BotName)
	} else {
		welcome = fmt.Sprintf("👋 Welcome back to %s!", b.cfg.BotName)
	}

	if _, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, welcome)); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}

func (b *Bot) handleMenu(msg *tgbotapi.Message) error {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "📋 Main Menu:")
	reply.ReplyMarkup = mainMenuKeyboard()
	if _, err := b.send(reply); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}
	return nil
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	help := fmt.Sprintf(`🤖 %s - Help

Available commands:
/start - Start the bot and show main menu
/menu - Show the main menu
/help - Show this help message

Main Features:
💰 Budget Planning
📊 Investment Analysis
💳 Expense Tracking
📈 Financial Reports

For support, contact the bot administrator.`, b.cfg.BotName)

	if _, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, help)); err != nil {
		return fmt.Errorf("send help: %w", err)
	}
	return nil
}

// handleFallback answers anything the bot does not understand.
func (b *Bot) handleFallback(msg *tgbotapi.Message) error {
	text := "I didn't understand that. Please use /menu to see available options or /help for more information."
	if _, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		return fmt.Errorf("send fallback: %w", err)
	}
	return nil
}

// placeholderReply is the static assistant reply recorded against chat
// messages. Actual assistant output is out of scope for this service.
const placeholderReply = "Thanks! I've noted that. Detailed financial analysis is coming soon. Use /menu to explore what I can track today."

// handleText runs the assistant chat flow for plain text. A user with an
// active session gets their session extended (or renewed, with an expiry
// notice) and the exchange recorded; everyone else gets the fallback.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	user, _, err := b.repo.GetOrCreateUser(ctx,
		msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		b.sendGenericError(msg.Chat.ID)
		return fmt.Errorf("get or create user: %w", err)
	}

	active, err := b.repo.GetActiveSession(ctx, user.ID)
	if err != nil {
		b.sendGenericError(msg.Chat.ID)
		return fmt.Errorf("get active session: %w", err)
	}
	if active == nil {
		return b.handleFallback(msg)
	}

	res, err := b.manager.EnsureSession(ctx, user.ID)
	if err != nil {
		b.sendGenericError(msg.Chat.ID)
		return fmt.Errorf("ensure session: %w", err)
	}

	if res.Previous != nil {
		notice := fmt.Sprintf(
			"⏰ Your previous session expired after %d minutes of inactivity.\n✅ A new session was started automatically.",
			b.cfg.TimeoutMinutes())
		if _, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, notice)); err != nil {
			slog.Warn("failed to send renewal notice", "error", err, "telegram_id", msg.From.ID)
		}
	}

	recorded, err := b.repo.CreateUserMessage(ctx, res.Session.ID, msg.Text, int64(msg.MessageID), b.now())
	if err != nil {
		// Audit trail only; the user still gets a reply.
		slog.Error("failed to record user message", "error", err, "session_id", res.Session.ID)
	}

	sent, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, placeholderReply))
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	if recorded != nil {
		if _, err := b.repo.AttachBotReply(ctx, recorded.ID, placeholderReply, int64(sent.MessageID), b.now()); err != nil {
			slog.Error("failed to attach bot reply", "error", err, "message_id", recorded.ID)
		}
	}
	return nil
}

// sendGenericError tells the user to retry without leaking internals.
func (b *Bot) sendGenericError(chatID int64) {
	text := "❌ Something went wrong. Please try again later."
	if _, err := b.send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("failed to send error message", "error", err, "chat_id", chatID)
	}
}
