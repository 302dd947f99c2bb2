package domain

import (
	"time"
)

// Message is one user/assistant exchange recorded against a session.
// The user half is written first; the assistant half is attached once the
// reply has been sent, which also flips Processed.
type Message struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"`
	UserMessageID int64      `json:"user_message_id,omitempty"`
	UserContent   string     `json:"user_content"`
	UserSentAt    time.Time  `json:"user_sent_at"`
	BotMessageID  int64      `json:"bot_message_id,omitempty"`
	BotContent    string     `json:"bot_content,omitempty"`
	BotSentAt     *time.Time `json:"bot_sent_at,omitempty"`
	Processed     bool       `json:"processed"`
}
