package services

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type ChatStore interface {
	GetSession(ctx context.Context, id string) (*ChatSession, error)
	// SaveExchange creates the session or, for an existing one owned by the
	// same user, adds len(msgs) to its message count and bumps
	// last_message_at. The messages are appended in the same transaction.
	// A session owned by someone else yields a not-found ServiceError.
	SaveExchange(ctx context.Context, sess *ChatSession, msgs ...*ChatMessage) error
	// ListSessions is ordered by last activity, newest first.
	ListSessions(ctx context.Context, userID string) ([]*ChatSession, error)
	// ListMessages is oldest first; limit > 0 keeps only the newest limit.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*ChatMessage, error)
	DeleteSession(ctx context.Context, id string) error
}

// Replier produces the assistant reply for a message given prior turns.
type Replier interface {
	Reply(ctx context.Context, history []*ChatMessage, message string) (string, error)
}

const (
	DefaultTitle  = "New Chat"
	FallbackReply = "I'm here to support you, but I'm having trouble responding right now. Please try again."

	maxTitleRunes   = 40
	maxMessageRunes = 4000
	contextTurns    = 10
)

type SendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type SendMessageResult struct {
	Response        string           `json:"response"`
	SessionID       string           `json:"session_id"`
	CrisisDetected  bool             `json:"crisis_detected"`
	CrisisMessage   string           `json:"crisis_message,omitempty"`
	CrisisResources []CrisisResource `json:"crisis_resources,omitempty"`
}

type ChatService struct {
	store    ChatStore
	replier  Replier
	detector *CrisisDetector
	now      func() time.Time
	idGen    func() string
}

func NewChatService(store ChatStore, replier Replier, detector *CrisisDetector) *ChatService {
	if detector == nil {
		detector = NewCrisisDetector(nil, nil)
	}
	return &ChatService{
		store:    store,
		replier:  replier,
		detector: detector,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
	}
}

// Send stores the user's message and the assistant reply. A new session is
// created when none is given or the id is unknown.
func (s *ChatService) Send(ctx context.Context, userID string, req SendMessageRequest) (*SendMessageResult, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, NewInvalidError("Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return nil, NewInvalidError("Message is too long")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	var sess *ChatSession
	if sessionID != "" {
		existing, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.UserID != userID {
			return nil, NewNotFoundError("Session not found")
		}
		sess = existing
	} else {
		sessionID = s.idGen()
	}

	crisis := s.detector.Detect(text)
	var history []*ChatMessage
	if sess != nil {
		var err error
		history, err = s.store.ListMessages(ctx, sessionID, contextTurns)
		if err != nil {
			return nil, err
		}
	}
	userMsg := &ChatMessage{ID: s.idGen(), SessionID: sessionID, UserID: userID, Text: text, Sender: SenderUser, CrisisDetected: crisis.IsCrisis, CreatedAt: s.now()}

	reply := s.reply(ctx, history, text)
	res := &SendMessageResult{SessionID: sessionID}
	if crisis.IsCrisis {
		log.Printf("chat: crisis detected for user %s: %s", userID, preview(text, 50))
		reply = CrisisReply(crisis.Resources)
		res.CrisisDetected = true
		res.CrisisMessage = reply
		res.CrisisResources = crisis.Resources
	}
	res.Response = reply

	now := s.now()
	aiMsg := &ChatMessage{ID: s.idGen(), SessionID: sessionID, UserID: userID, Text: reply, Sender: SenderAI, CreatedAt: now}
	if sess == nil {
		sess = &ChatSession{ID: sessionID, UserID: userID, Title: deriveTitle(text), StartedAt: userMsg.CreatedAt}
	}
	sess.LastMessageAt = &now
	if err := s.store.SaveExchange(ctx, sess, userMsg, aiMsg); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChatService) reply(ctx context.Context, history []*ChatMessage, text string) string {
	if s.replier == nil {
		return FallbackReply
	}
	out, err := s.replier.Reply(ctx, history, text)
	if err != nil {
		log.Printf("chat: reply failed: %v", err)
		return FallbackReply
	}
	if strings.TrimSpace(out) == "" {
		return FallbackReply
	}
	return out
}

func (s *ChatService) Sessions(ctx context.Context, userID string) ([]*ChatSession, error) {
	list, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sess := range list {
		if strings.TrimSpace(sess.Title) == "" {
			sess.Title = DefaultTitle
		}
	}
	return list, nil
}

// History returns the session's messages oldest first. Sessions of other
// users read as empty.
func (s *ChatService) History(ctx context.Context, userID, sessionID string) ([]*ChatMessage, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return []*ChatMessage{}, nil
	}
	return s.store.ListMessages(ctx, sessionID, 0)
}

func (s *ChatService) Delete(ctx context.Context, userID, sessionID string) error {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.UserID != userID {
		return NewNotFoundError("Session not found")
	}
	return s.store.DeleteSession(ctx, sessionID)
}

// deriveTitle turns the first message into a session title of at most
// maxTitleRunes runes.
func deriveTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	r := []rune(title)
	return strings.TrimSpace(string(r[:maxTitleRunes-3])) + "..."
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
