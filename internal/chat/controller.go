// Package chat holds the client-side chat session controller: the session
// list, the active thread's transcript and the single optimistic send.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Solace/internal/client"
	"github.com/soaringjerry/Solace/internal/markup"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultCrisisMessage = "Crisis detected. Please seek immediate help."

	msgSendFailed     = "Failed to send message"
	msgHistoryFailed  = "Failed to load chat history"
	msgSessionsFailed = "Failed to load chat sessions"
	msgDeleteFailed   = "Failed to delete session"
)

var ErrNotConfirmed = errors.New("chat: deletion not confirmed")

// Message is a transcript entry. LocalID is assigned by the controller and
// only identifies the entry in this process.
type Message struct {
	LocalID   int64
	Role      Role
	Content   string
	Timestamp time.Time
	Pending   bool
}

// RenderedMessage pairs a message with its markup fragment.
type RenderedMessage struct {
	Message
	HTML string
}

// Crisis is the advisory banner set by a send response.
type Crisis struct {
	Message   string
	Resources []client.CrisisResource
}

// API is the part of the remote API the controller needs.
type API interface {
	Sessions(ctx context.Context) ([]client.Session, error)
	History(ctx context.Context, sessionID string) ([]client.ServerMessage, error)
	SendMessage(ctx context.Context, req client.SendRequest) (*client.SendResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// State is a copy of the controller state.
type State struct {
	Sessions     []client.Session
	ActiveID     string
	Transcript   []Message
	SendInFlight bool
	Error        string
	Crisis       *Crisis
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfirm installs the hook asked before a session is deleted. Without
// one every deletion is refused.
func WithConfirm(fn func(client.Session) bool) Option {
	return func(c *Controller) { c.confirm = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller is safe for concurrent use. Network calls run without the lock
// held; their effects are applied atomically once they return.
type Controller struct {
	api     API
	now     func() time.Time
	confirm func(client.Session) bool
	render  func(string) string

	mu         sync.Mutex
	sessions   []client.Session
	activeID   string
	transcript []Message
	out        outbox
	nextID     int64
	errMsg     string
	crisis     *Crisis
	// epoch changes whenever the displayed thread changes.
	epoch uint64
}

func NewController(api API, opts ...Option) *Controller {
	c := &Controller{api: api, now: time.Now, render: markup.Render}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LoadSessions refreshes the session list. When no session is active the
// first one is selected and its transcript loaded.
func (c *Controller) LoadSessions(ctx context.Context) error {
	list, err := c.api.Sessions(ctx)
	if err != nil {
		c.setError(client.Detail(err, msgSessionsFailed))
		return err
	}
	c.mu.Lock()
	c.sessions = list
	var load string
	if c.activeID == "" && len(list) > 0 {
		c.activeID = list[0].SessionID
		c.epoch++
		load = c.activeID
	}
	c.mu.Unlock()
	if load != "" {
		return c.LoadTranscript(ctx, load)
	}
	return nil
}

// Select makes sessionID active and loads its transcript. The previous
// transcript stays in place until the load succeeds.
func (c *Controller) Select(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.activeID != sessionID {
		c.activeID = sessionID
		c.epoch++
	}
	c.mu.Unlock()
	return c.LoadTranscript(ctx, sessionID)
}

// LoadTranscript replaces the transcript with the server's messages for
// sessionID. A response is dropped when another thread has been selected
// since the request was issued.
func (c *Controller) LoadTranscript(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	records, err := c.api.History(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.activeID == sessionID && c.epoch == epoch
	if err != nil {
		if current {
			c.errMsg = client.Detail(err, msgHistoryFailed)
		}
		return err
	}
	if !current {
		return nil
	}
	msgs := make([]Message, 0, len(records)+1)
	for _, r := range records {
		msgs = append(msgs, c.newMessage(roleOf(r.Sender), r.MessageText, r.CreatedAt, false))
	}
	// keep the optimistic message of a send still in flight on this thread
	if c.out.inFlight() && c.out.epoch == c.epoch {
		for _, m := range c.transcript {
			if m.LocalID == c.out.localID {
				msgs = append(msgs, m)
			}
		}
	}
	c.transcript = msgs
	return nil
}

func roleOf(sender string) Role {
	if sender == "user" {
		return RoleUser
	}
	return RoleAssistant
}

func (c *Controller) newMessage(role Role, content string, ts time.Time, pending bool) Message {
	c.nextID++
	return Message{LocalID: c.nextID, Role: role, Content: content, Timestamp: ts, Pending: pending}
}

// Send posts text on the active thread, or starts a new one. It does nothing
// for blank text or while another send is in flight. On failure the
// optimistic message is removed and the error surfaced.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.mu.Lock()
	if c.out.inFlight() {
		c.mu.Unlock()
		return nil
	}
	c.errMsg = ""
	c.crisis = nil
	msg := c.newMessage(RoleUser, text, c.now(), true)
	if err := c.out.begin(msg.LocalID, c.epoch); err != nil {
		c.mu.Unlock()
		return err
	}
	c.transcript = append(c.transcript, msg)
	sessionID := c.activeID
	c.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			c.mu.Lock()
			c.rollbackLocked()
			c.mu.Unlock()
		}
	}()

	resp, err := c.api.SendMessage(ctx, client.SendRequest{Message: text, SessionID: sessionID})

	c.mu.Lock()
	settled = true
	if err != nil {
		c.rollbackLocked()
		c.errMsg = client.Detail(err, msgSendFailed)
		c.mu.Unlock()
		return err
	}
	refresh := c.confirmLocked(sessionID, resp)
	c.mu.Unlock()

	if refresh {
		// a failed refresh only sets the error banner; the send itself stood
		_ = c.LoadSessions(ctx)
	}
	return nil
}

func (c *Controller) rollbackLocked() {
	id, err := c.out.rollback()
	if err != nil {
		return
	}
	c.transcript, _ = removeLocal(c.transcript, id)
}

// confirmLocked applies a successful send and reports whether the session
// list needs refreshing.
func (c *Controller) confirmLocked(sessionID string, resp *client.SendResponse) bool {
	id, err := c.out.confirm()
	if err != nil {
		return false
	}
	if resp.CrisisDetected {
		msg := resp.CrisisMessage
		if msg == "" {
			msg = DefaultCrisisMessage
		}
		c.crisis = &Crisis{Message: msg, Resources: resp.CrisisResources}
	}
	if c.epoch != c.out.epoch {
		return false
	}
	for i := range c.transcript {
		if c.transcript[i].LocalID == id {
			c.transcript[i].Pending = false
		}
	}
	c.transcript = append(c.transcript, c.newMessage(RoleAssistant, resp.Response, c.now(), false))
	if sessionID == "" && c.activeID == "" && resp.SessionID != "" {
		c.activeID = resp.SessionID
		return true
	}
	return false
}

// NewThread clears the active session and transcript. No request is made;
// the thread exists once its first message is sent.
func (c *Controller) NewThread() {
	c.mu.Lock()
	c.resetThreadLocked()
	c.mu.Unlock()
}

func (c *Controller) resetThreadLocked() {
	c.activeID = ""
	c.transcript = nil
	c.crisis = nil
	c.epoch++
}

// DeleteSession deletes a session after the confirm hook approves it.
func (c *Controller) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	target := client.Session{SessionID: sessionID}
	for _, s := range c.sessions {
		if s.SessionID == sessionID {
			target = s
			break
		}
	}
	confirm := c.confirm
	c.mu.Unlock()

	if confirm == nil || !confirm(target) {
		return ErrNotConfirmed
	}
	if err := c.api.DeleteSession(ctx, sessionID); err != nil {
		c.setError(client.Detail(err, msgDeleteFailed))
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.sessions[:0:0]
	for _, s := range c.sessions {
		if s.SessionID != sessionID {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	if c.activeID == sessionID {
		c.resetThreadLocked()
	}
	return nil
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

func (c *Controller) DismissError() { c.setError("") }

func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

func (c *Controller) SendInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.inFlight()
}

func (c *Controller) Crisis() *Crisis {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crisis == nil {
		return nil
	}
	cp := *c.crisis
	return &cp
}

func (c *Controller) Sessions() []client.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]client.Session(nil), c.sessions...)
}

func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.transcript...)
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Sessions:     append([]client.Session(nil), c.sessions...),
		ActiveID:     c.activeID,
		Transcript:   append([]Message(nil), c.transcript...),
		SendInFlight: c.out.inFlight(),
		Error:        c.errMsg,
	}
	if c.crisis != nil {
		cp := *c.crisis
		st.Crisis = &cp
	}
	return st
}

// Rendered returns the transcript with each message run through the markup
// renderer.
func (c *Controller) Rendered() []RenderedMessage {
	msgs := c.Transcript()
	out := make([]RenderedMessage, len(msgs))
	for i, m := range msgs {
		out[i] = RenderedMessage{Message: m, HTML: c.render(m.Content)}
	}
	return out
}
