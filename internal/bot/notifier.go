package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkravets/finbot/internal/domain"
)

// TimeoutNotifier delivers session-timeout notifications over Telegram.
// It implements session.Notifier.
type TimeoutNotifier struct {
	tg             Sender
	timeoutMinutes int
}

// NewTimeoutNotifier creates a notifier that reports the configured timeout
// in its messages.
func NewTimeoutNotifier(tg Sender, timeoutMinutes int) *TimeoutNotifier {
	return &TimeoutNotifier{tg: tg, timeoutMinutes: timeoutMinutes}
}

// NotifySessionExpired sends the timeout message with a button to start a
// new session. Best-effort: the caller logs the error and moves on.
func (n *TimeoutNotifier) NotifySessionExpired(ctx context.Context, telegramID int64, sess domain.Session, endedAt time.Time) error {
	msg := tgbotapi.NewMessage(telegramID, timeoutMessage(sess, endedAt, n.timeoutMinutes))
	msg.ReplyMarkup = startNewSessionKeyboard()

	if _, err := n.tg.Send(msg); err != nil {
		return fmt.Errorf("send timeout notification: %w", err)
	}
	return nil
}

func timeoutMessage(sess domain.Session, endedAt time.Time, timeoutMinutes int) string {
	return fmt.Sprintf(`⏰ Session Timeout

Your AI Assistant session has expired after %d minutes of inactivity.

Session Details:
• Session ID: %s
• Started: %s
• Ended: %s

To start a new session, click the button below or use /start command.`,
		timeoutMinutes,
		sess.ID,
		sess.StartedAt.Format(timestampLayout),
		endedAt.Format(timestampLayout))
}
