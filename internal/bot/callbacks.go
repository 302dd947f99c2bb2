package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkravets/finbot/internal/session"
)

const timestampLayout = "2006-01-02 15:04:05"

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	// Acknowledge first so the client stops the spinner even if the
	// handler below fails.
	if _, err := b.tg.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		slog.Warn("failed to answer callback query", "error", err, "callback_id", cq.ID)
	}

	if cq.Message == nil {
		return nil
	}

	switch cq.Data {
	case callbackAddTransaction:
		return b.editWithMenu(cq, "💰 Add Income/Expense\n\n"+
			"This feature will help you:\n"+
			"• Track your income sources\n"+
			"• Log daily expenses\n"+
			"• Categorize transactions\n"+
			"• Monitor cash flow\n\n"+
			"Feature coming soon! 🚀")
	case callbackSavingsGoal:
		return b.editWithMenu(cq, "🎯 Set Savings Goal\n\n"+
			"This feature will help you:\n"+
			"• Define financial targets\n"+
			"• Track progress towards goals\n"+
			"• Set milestone reminders\n"+
			"• Calculate required savings\n\n"+
			"Feature coming soon! 🚀")
	case callbackReports:
		return b.editWithMenu(cq, "📊 Financial Reports\n\n"+
			"This feature will help you:\n"+
			"• Monthly financial summaries\n"+
			"• Spending trends analysis\n"+
			"• Income vs expense charts\n"+
			"• Goal progress tracking\n\n"+
			"Feature coming soon! 🚀")
	case callbackAIChat:
		return b.handleAIChat(ctx, cq)
	default:
		slog.Warn("unknown callback data", "data", cq.Data)
		return nil
	}
}

func (b *Bot) editWithMenu(cq *tgbotapi.CallbackQuery, text string) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID, text, mainMenuKeyboard())
	if _, err := b.send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// handleAIChat opens, resumes or renews the user's assistant session and
// reports which of those happened.
func (b *Bot) handleAIChat(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	user, _, err := b.repo.GetOrCreateUser(ctx,
		cq.From.ID, cq.From.UserName, cq.From.FirstName, cq.From.LastName)
	if err != nil {
		b.editSessionError(cq)
		return fmt.Errorf("get or create user: %w", err)
	}

	res, err := b.manager.EnsureSession(ctx, user.ID)
	if err != nil {
		b.editSessionError(cq)
		return fmt.Errorf("ensure session: %w", err)
	}

	edit := tgbotapi.NewEditMessageText(
		cq.Message.Chat.ID, cq.Message.MessageID,
		sessionGreeting(res, b.cfg.TimeoutMinutes()))
	if _, err := b.send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (b *Bot) editSessionError(cq *tgbotapi.CallbackQuery) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		"❌ Error creating session.\n\nPlease try again later or contact support.",
		mainMenuKeyboard())
	if _, err := b.send(edit); err != nil {
		slog.Error("failed to send session error", "error", err, "chat_id", cq.Message.Chat.ID)
	}
}

// sessionGreeting builds the chat greeting for an EnsureSession result.
func sessionGreeting(res *session.EnsureResult, timeoutMinutes int) string {
	const footer = "I'm ready to help you with your financial questions and planning! " +
		"Just send me a message and I'll assist you.\n\n" +
		"Type /menu to return to the main menu anytime."

	switch res.Outcome {
	case session.OutcomeRenewed:
		return fmt.Sprintf("🤖 Chat with AI Assistant\n\n"+
			"⏰ Your previous session expired after %d minutes of inactivity.\n"+
			"✅ New session created successfully!\n"+
			"Session ID: %s\n"+
			"Started at: %s\n\n%s",
			timeoutMinutes,
			res.Session.ID,
			res.Session.StartedAt.Format(timestampLayout),
			footer)
	case session.OutcomeResumed:
		return fmt.Sprintf("🤖 Chat with AI Assistant\n\n"+
			"✅ Continuing your existing session!\n"+
			"Session ID: %s\n"+
			"Started at: %s\n"+
			"Last activity: %s\n\n%s",
			res.Session.ID,
			res.Session.StartedAt.Format(timestampLayout),
			res.Session.LastActivity.Format(timestampLayout),
			footer)
	default:
		return fmt.Sprintf("🤖 Chat with AI Assistant\n\n"+
			"✅ New session created successfully!\n"+
			"Session ID: %s\n"+
			"Started at: %s\n\n%s",
			res.Session.ID,
			res.Session.StartedAt.Format(timestampLayout),
			footer)
	}
}
