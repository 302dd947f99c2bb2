package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkravets/finbot/internal/domain"
)

func expiredSession() (domain.Session, time.Time) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sess := domain.Session{
		ID:           "abc-123",
		UserID:       1,
		StartedAt:    started,
		LastActivity: started.Add(10 * time.Minute),
	}
	return sess, started.Add(40 * time.Minute)
}

func TestTimeoutNotifier_SendsMessage(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewTimeoutNotifier(sender, 30)
	sess, endedAt := expiredSession()

	if err := notifier.NotifySessionExpired(context.Background(), 100, sess, endedAt); err != nil {
		t.Fatalf("NotifySessionExpired failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("Expected MessageConfig, got %T", sender.sent[0])
	}
	if msg.ChatID != 100 {
		t.Errorf("Expected message to chat 100, got %d", msg.ChatID)
	}

	for _, want := range []string{
		"⏰ Session Timeout",
		"expired after 30 minutes of inactivity",
		"Session ID: abc-123",
		"Started: 2025-06-01 12:00:00",
		"Ended: 2025-06-01 12:40:00",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("Expected notification to contain %q, got:\n%s", want, msg.Text)
		}
	}

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("Expected inline keyboard, got %T", msg.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("Expected a single-button keyboard, got %+v", markup.InlineKeyboard)
	}
	if data := markup.InlineKeyboard[0][0].CallbackData; data == nil || *data != callbackAIChat {
		t.Errorf("Expected button to open a new chat session, got %v", data)
	}
}

func TestTimeoutNotifier_SendFailure(t *testing.T) {
	sender := &fakeSender{sendErr: errSendFailed}
	notifier := NewTimeoutNotifier(sender, 30)
	sess, endedAt := expiredSession()

	err := notifier.NotifySessionExpired(context.Background(), 100, sess, endedAt)
	if !errors.Is(err, errSendFailed) {
		t.Fatalf("Expected wrapped send error, got %v", err)
	}
}
