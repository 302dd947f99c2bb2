package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkravets/finbot/internal/domain"
)

// fakeSender records everything the handlers try to deliver.
type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	nextID  int
	sendErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every sent message or edit, in order.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeRepo struct {
	mu         sync.Mutex
	users      map[int64]*domain.User // by telegram ID
	sessions   map[string]*domain.Session
	messages   []*domain.Message
	nextUserID int64
	nextSessID int
	nextMsgID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*domain.User),
		sessions: make(map[string]*domain.Session),
	}
}

func (f *fakeRepo) addSession(userID int64, lastActivity time.Time) *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSessID++
	s := &domain.Session{
		ID:           "sess-" + strconv.Itoa(f.nextSessID),
		UserID:       userID,
		Active:       true,
		StartedAt:    lastActivity,
		LastActivity: lastActivity,
	}
	f.sessions[s.ID] = s
	return s
}

func (f *fakeRepo) GetOrCreateUser(_ context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[telegramID]; ok {
		u.Username = username
		u.FirstName = firstName
		u.LastName = lastName
		copy := *u
		return &copy, false, nil
	}
	f.nextUserID++
	u := &domain.User{ID: f.nextUserID, TelegramID: telegramID, Username: username, FirstName: firstName, LastName: lastName}
	f.users[telegramID] = u
	copy := *u
	return &copy, true, nil
}

func (f *fakeRepo) GetUserByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[telegramID]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateSession(_ context.Context, userID int64, contextData string, at time.Time) (*domain.Session, error) {
	s := f.addSession(userID, at)
	s.Context = contextData
	copy := *s
	return &copy, nil
}

func (f *fakeRepo) GetActiveSession(_ context.Context, userID int64) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *domain.Session
	for _, s := range f.sessions {
		if s.UserID != userID || !s.Active {
			continue
		}
		if newest == nil || s.LastActivity.After(newest.LastActivity) {
			newest = s
		}
	}
	if newest == nil {
		return nil, nil
	}
	copy := *newest
	return &copy, nil
}

func (f *fakeRepo) ListExpiredActive(_ context.Context, cutoff time.Time) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.Active && s.LastActivity.Before(cutoff) {
			copy := *s
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeRepo) EndSession(_ context.Context, sessionID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	s.Active = false
	ended := at
	s.EndedAt = &ended
	return true, nil
}

func (f *fakeRepo) BumpActivity(_ context.Context, sessionID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	s.LastActivity = at
	return true, nil
}

func (f *fakeRepo) CreateUserMessage(_ context.Context, sessionID, content string, tgMessageID int64, at time.Time) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	m := &domain.Message{ID: f.nextMsgID, SessionID: sessionID, UserContent: content, UserMessageID: tgMessageID, UserSentAt: at}
	f.messages = append(f.messages, m)
	copy := *m
	return &copy, nil
}

func (f *fakeRepo) AttachBotReply(_ context.Context, messageID int64, content string, tgMessageID int64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == messageID {
			m.BotContent = content
			m.BotMessageID = tgMessageID
			sent := at
			m.BotSentAt = &sent
			m.Processed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListSessionMessages(_ context.Context, sessionID string, limit int) ([]*domain.Message, error) {
	return nil, nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return nil }
func (f *fakeRepo) Close() error                 { return nil }

var errSendFailed = errors.New("telegram unreachable")
