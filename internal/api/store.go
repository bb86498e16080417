package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Solace/internal/services"
)

type memoryStore struct {
	mu          sync.RWMutex
	users       map[string]*services.User
	assessments []*services.Assessment
	sessions    map[string]*services.ChatSession
	messages    []*services.ChatMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    map[string]*services.User{},
		sessions: map[string]*services.ChatSession{},
	}
}

// NewMemoryStore returns a Store that lives only as long as the process.
func NewMemoryStore() Store { return newMemoryStore() }

func copyUser(u *services.User) *services.User {
	out := *u
	out.PassHash = append([]byte(nil), u.PassHash...)
	return &out
}

func (m *memoryStore) AddUser(_ context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return services.NewConflictError("Username or email already exists")
		}
	}
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (*services.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (m *memoryStore) findUser(match func(*services.User) bool) *services.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u)
		}
	}
	return nil
}

func (m *memoryStore) FindUserByUsername(_ context.Context, username string) (*services.User, error) {
	return m.findUser(func(u *services.User) bool { return u.Username == username }), nil
}

func (m *memoryStore) FindUserByEmail(_ context.Context, email string) (*services.User, error) {
	return m.findUser(func(u *services.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (m *memoryStore) AddAssessment(_ context.Context, a *services.Assessment) error {
	if a == nil {
		return services.NewInvalidError("assessment required")
	}
	cp := *a
	cp.PHQ9Answers = append([]int(nil), a.PHQ9Answers...)
	cp.GAD7Answers = append([]int(nil), a.GAD7Answers...)
	m.mu.Lock()
	m.assessments = append(m.assessments, &cp)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) ListAssessments(_ context.Context, userID string, limit int) ([]*services.Assessment, error) {
	m.mu.RLock()
	out := []*services.Assessment{}
	// walk backwards so equal timestamps keep insertion order, newest first
	for i := len(m.assessments) - 1; i >= 0; i-- {
		if a := m.assessments[i]; a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) CountAssessments(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.assessments {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func lastActivity(s *services.ChatSession) time.Time {
	if s.LastMessageAt != nil {
		return *s.LastMessageAt
	}
	return s.StartedAt
}

func copySession(s *services.ChatSession) *services.ChatSession {
	out := *s
	if s.LastMessageAt != nil {
		t := *s.LastMessageAt
		out.LastMessageAt = &t
	}
	return &out
}

func (m *memoryStore) GetSession(_ context.Context, id string) (*services.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return copySession(s), nil
	}
	return nil, nil
}

func (m *memoryStore) SaveExchange(_ context.Context, sess *services.ChatSession, msgs ...*services.ChatMessage) error {
	if sess == nil {
		return services.NewInvalidError("session required")
	}
	var added []*services.ChatMessage
	for _, msg := range msgs {
		if msg != nil {
			cp := *msg
			cp.SessionID = sess.ID
			added = append(added, &cp)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[sess.ID]; ok {
		if cur.UserID != sess.UserID {
			return services.NewNotFoundError("Session not found")
		}
		cur.MessageCount += len(added)
		if sess.LastMessageAt != nil {
			t := *sess.LastMessageAt
			cur.LastMessageAt = &t
		}
	} else {
		cp := copySession(sess)
		cp.MessageCount = len(added)
		m.sessions[sess.ID] = cp
	}
	m.messages = append(m.messages, added...)
	return nil
}

func (m *memoryStore) ListSessions(_ context.Context, userID string) ([]*services.ChatSession, error) {
	m.mu.RLock()
	out := []*services.ChatSession{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, copySession(s))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		ai, aj := lastActivity(out[i]), lastActivity(out[j])
		if ai.Equal(aj) {
			return out[i].ID > out[j].ID
		}
		return ai.After(aj)
	})
	return out, nil
}

func (m *memoryStore) ListMessages(_ context.Context, sessionID string, limit int) ([]*services.ChatMessage, error) {
	m.mu.RLock()
	out := []*services.ChatMessage{}
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.SessionID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *memoryStore) CountSessions(_ context.Context, userID string) (int, error) {
	return m.countSessions(userID, time.Time{}), nil
}

func (m *memoryStore) CountSessionsSince(_ context.Context, userID string, since time.Time) (int, error) {
	return m.countSessions(userID, since), nil
}

func (m *memoryStore) countSessions(userID string, since time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID && !lastActivity(s).Before(since) {
			n++
		}
	}
	return n
}

func (m *memoryStore) CountCrisisMessages(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.CrisisDetected {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) SystemStats(context.Context) (*services.SystemStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &services.SystemStats{
		TotalUsers:         len(m.users),
		TotalConversations: len(m.messages),
		TotalAssessments:   len(m.assessments),
		TotalSessions:      len(m.sessions),
	}
	for _, msg := range m.messages {
		if msg.CrisisDetected {
			st.TotalCrisisMessages++
		}
	}
	return st, nil
}

func (m *memoryStore) PruneChatBefore(_ context.Context, cutoff time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	counts := map[string]int{}
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		counts[msg.SessionID]++
		kept = append(kept, msg)
	}
	m.messages = kept
	var sessions int64
	for id, s := range m.sessions {
		if counts[id] == 0 && lastActivity(s).Before(cutoff) {
			delete(m.sessions, id)
			sessions++
			continue
		}
		if removed > 0 {
			s.MessageCount = counts[id]
		}
	}
	return removed, sessions, nil
}
