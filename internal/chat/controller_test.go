package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soaringjerry/Solace/internal/client"
)

type historyCall struct {
	records []client.ServerMessage
	err     error
	gate    chan struct{}
}

type fakeAPI struct {
	mu        sync.Mutex
	sessions  []client.Session
	sessErr   error
	histories map[string]*historyCall
	sendResp  *client.SendResponse
	sendErr   error
	sendGate  chan struct{}
	sendCalls int
	lastSend  client.SendRequest
	deleted   []string
	deleteErr error
}

func (f *fakeAPI) Sessions(ctx context.Context) ([]client.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Session(nil), f.sessions...), f.sessErr
}

func (f *fakeAPI) History(ctx context.Context, id string) ([]client.ServerMessage, error) {
	f.mu.Lock()
	call := f.histories[id]
	f.mu.Unlock()
	if call == nil {
		return nil, nil
	}
	if call.gate != nil {
		<-call.gate
	}
	return call.records, call.err
}

func (f *fakeAPI) SendMessage(ctx context.Context, req client.SendRequest) (*client.SendResponse, error) {
	f.mu.Lock()
	f.sendCalls++
	f.lastSend = req
	gate := f.sendGate
	resp, err := f.sendResp, f.sendErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return resp, err
}

func (f *fakeAPI) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func msgs(texts ...string) []client.ServerMessage {
	out := make([]client.ServerMessage, 0, len(texts))
	for i, t := range texts {
		sender := "user"
		if i%2 == 1 {
			sender = "ai"
		}
		out = append(out, client.ServerMessage{MessageText: t, Sender: sender, CreatedAt: time.Unix(int64(i), 0)})
	}
	return out
}

func TestLoadSessionsSelectsFirst(t *testing.T) {
	api := &fakeAPI{
		sessions:  []client.Session{{SessionID: "a", Title: "A"}, {SessionID: "b", Title: "B"}},
		histories: map[string]*historyCall{"a": {records: msgs("hello", "hi there")}},
	}
	c := NewController(api)
	if err := c.LoadSessions(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	st := c.Snapshot()
	if st.ActiveID != "a" || len(st.Sessions) != 2 {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(st.Transcript) != 2 || st.Transcript[0].Role != RoleUser || st.Transcript[1].Role != RoleAssistant {
		t.Fatalf("unexpected transcript %+v", st.Transcript)
	}
	if st.Transcript[1].Content != "hi there" {
		t.Fatalf("content %q", st.Transcript[1].Content)
	}
}

func TestLoadSessionsKeepsActive(t *testing.T) {
	api := &fakeAPI{sessions: []client.Session{{SessionID: "a"}, {SessionID: "b"}}}
	c := NewController(api)
	_ = c.Select(context.Background(), "b")
	if err := c.LoadSessions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.ActiveID() != "b" {
		t.Fatalf("active=%q, want b", c.ActiveID())
	}
}

func TestLoadFailurePreservesState(t *testing.T) {
	api := &fakeAPI{histories: map[string]*historyCall{"a": {records: msgs("one")}}}
	c := NewController(api)
	if err := c.Select(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	api.histories["a"] = &historyCall{err: &client.APIError{Status: 500}}
	if err := c.LoadTranscript(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	st := c.Snapshot()
	if len(st.Transcript) != 1 || st.Error != "Failed to load chat history" {
		t.Fatalf("unexpected state %+v", st)
	}
	c.DismissError()
	if c.Err() != "" {
		t.Fatal("error not dismissed")
	}

	api.sessErr = errors.New("offline")
	before := c.Sessions()
	_ = c.LoadSessions(context.Background())
	if len(c.Sessions()) != len(before) || c.Err() != "Failed to load chat sessions" {
		t.Fatalf("sessions changed or no error: %v %q", c.Sessions(), c.Err())
	}
}

func TestSelectFailureKeepsTranscript(t *testing.T) {
	api := &fakeAPI{histories: map[string]*historyCall{
		"a": {records: msgs("one", "two")},
		"b": {err: &client.APIError{Status: 500}},
	}}
	c := NewController(api)
	if err := c.Select(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Select(context.Background(), "b"); err == nil {
		t.Fatal("expected error")
	}
	tr := c.Transcript()
	if len(tr) != 2 || tr[0].Content != "one" || c.ActiveID() != "b" || c.Err() != "Failed to load chat history" {
		t.Fatalf("active=%q err=%q transcript=%+v", c.ActiveID(), c.Err(), tr)
	}
}

func TestStaleTranscriptDiscarded(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{histories: map[string]*historyCall{
		"a": {records: msgs("from a"), gate: gate},
		"b": {records: msgs("from b")},
	}}
	c := NewController(api)

	done := make(chan error, 1)
	go func() { done <- c.Select(context.Background(), "a") }()
	// a is selected; its load may or may not have been issued yet
	for c.ActiveID() != "a" {
		time.Sleep(time.Millisecond)
	}
	if err := c.Select(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	tr := c.Transcript()
	if c.ActiveID() != "b" || len(tr) != 1 || tr[0].Content != "from b" {
		t.Fatalf("stale load applied: active=%q transcript=%+v", c.ActiveID(), tr)
	}
}

func TestSendNewThreadAdoptsSession(t *testing.T) {
	api := &fakeAPI{sendResp: &client.SendResponse{Response: "**hello**", SessionID: "s1"}}
	c := NewController(api)
	// the refresh after adoption lists the new session
	api.sessions = []client.Session{{SessionID: "s1", Title: "hi"}}
	if err := c.Send(context.Background(), "  hi  "); err != nil {
		t.Fatalf("send: %v", err)
	}
	st := c.Snapshot()
	if st.ActiveID != "s1" || len(st.Sessions) != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(st.Transcript) != 2 || st.Transcript[0].Content != "hi" || st.Transcript[0].Pending {
		t.Fatalf("unexpected transcript %+v", st.Transcript)
	}
	if api.lastSend.SessionID != "" || api.lastSend.Message != "hi" {
		t.Fatalf("unexpected request %+v", api.lastSend)
	}
	r := c.Rendered()
	if r[1].HTML != "<strong>hello</strong>" {
		t.Fatalf("rendered %q", r[1].HTML)
	}
	if st.SendInFlight {
		t.Fatal("send still in flight")
	}
}

func TestSendUsesActiveSession(t *testing.T) {
	api := &fakeAPI{
		histories: map[string]*historyCall{"a": {records: msgs("x", "y")}},
		sendResp:  &client.SendResponse{Response: "ok", SessionID: "a"},
	}
	c := NewController(api)
	_ = c.Select(context.Background(), "a")
	if err := c.Send(context.Background(), "z"); err != nil {
		t.Fatal(err)
	}
	if api.lastSend.SessionID != "a" || len(c.Transcript()) != 4 {
		t.Fatalf("request %+v transcript %d", api.lastSend, len(c.Transcript()))
	}
}

func TestSendBlankIsNoop(t *testing.T) {
	api := &fakeAPI{sendResp: &client.SendResponse{}}
	c := NewController(api)
	if err := c.Send(context.Background(), "   \n"); err != nil {
		t.Fatal(err)
	}
	if api.sendCalls != 0 || len(c.Transcript()) != 0 {
		t.Fatal("blank send issued a request")
	}
}

func TestSendWhileInFlightIsNoop(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{sendResp: &client.SendResponse{Response: "r", SessionID: "s"}, sendGate: gate}
	c := NewController(api)
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "first") }()
	for !c.SendInFlight() {
		time.Sleep(time.Millisecond)
	}
	before := len(c.Transcript())
	if err := c.Send(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	if len(c.Transcript()) != before {
		t.Fatal("second send changed transcript")
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	api.mu.Lock()
	calls := api.sendCalls
	api.mu.Unlock()
	if calls != 1 {
		t.Fatalf("sendCalls=%d, want 1", calls)
	}
}

func TestSendFailureRollsBack(t *testing.T) {
	api := &fakeAPI{
		histories: map[string]*historyCall{"a": {records: msgs("x", "y")}},
		sendErr:   &client.APIError{Status: 503, Detail: "model offline"},
	}
	c := NewController(api)
	_ = c.Select(context.Background(), "a")
	before := c.Transcript()
	if err := c.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	st := c.Snapshot()
	if len(st.Transcript) != len(before) {
		t.Fatalf("transcript len %d, want %d", len(st.Transcript), len(before))
	}
	for i := range before {
		if st.Transcript[i] != before[i] {
			t.Fatalf("entry %d changed", i)
		}
	}
	if st.ActiveID != "a" || st.Error != "model offline" || st.SendInFlight {
		t.Fatalf("unexpected state %+v", st)
	}

	api.sendErr = errors.New("connection refused")
	_ = c.Send(context.Background(), "again")
	if c.Err() != "Failed to send message" {
		t.Fatalf("fallback error %q", c.Err())
	}
}

func TestSendCrisisBanner(t *testing.T) {
	api := &fakeAPI{sendResp: &client.SendResponse{
		Response:        "please reach out",
		SessionID:       "s",
		CrisisDetected:  true,
		CrisisResources: []client.CrisisResource{{Name: "Lifeline", Contact: "988", Type: "hotline"}},
	}}
	c := NewController(api)
	_ = c.Send(context.Background(), "help")
	cr := c.Crisis()
	if cr == nil || cr.Message != DefaultCrisisMessage || len(cr.Resources) != 1 {
		t.Fatalf("crisis %+v", cr)
	}
	api.sendResp = &client.SendResponse{Response: "ok", SessionID: "s"}
	_ = c.Send(context.Background(), "thanks")
	if c.Crisis() != nil {
		t.Fatal("crisis banner not cleared by next send")
	}
	api.sendResp = &client.SendResponse{Response: "r", SessionID: "s", CrisisDetected: true, CrisisMessage: "call now"}
	_ = c.Send(context.Background(), "x")
	if c.Crisis().Message != "call now" {
		t.Fatalf("crisis message %q", c.Crisis().Message)
	}
	c.NewThread()
	if c.Crisis() != nil || c.ActiveID() != "" || len(c.Transcript()) != 0 {
		t.Fatal("new thread did not reset state")
	}
}

func TestReplyAfterThreadSwitchIsDropped(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{sendResp: &client.SendResponse{Response: "late", SessionID: "a"}, sendGate: gate}
	c := NewController(api)
	_ = c.Select(context.Background(), "a")
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "q") }()
	for !c.SendInFlight() {
		time.Sleep(time.Millisecond)
	}
	c.NewThread()
	close(gate)
	<-done
	if len(c.Transcript()) != 0 || c.ActiveID() != "" {
		t.Fatalf("late reply leaked into new thread: %+v", c.Transcript())
	}
}

func TestDeleteSession(t *testing.T) {
	api := &fakeAPI{sessions: []client.Session{{SessionID: "a"}, {SessionID: "b"}}}
	var asked []string
	answer := false
	c := NewController(api, WithConfirm(func(s client.Session) bool {
		asked = append(asked, s.SessionID)
		return answer
	}))
	_ = c.LoadSessions(context.Background())

	if err := c.DeleteSession(context.Background(), "a"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err=%v, want ErrNotConfirmed", err)
	}
	if len(api.deleted) != 0 {
		t.Fatal("deleted without confirmation")
	}
	answer = true
	if err := c.DeleteSession(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	st := c.Snapshot()
	if len(st.Sessions) != 1 || st.Sessions[0].SessionID != "b" || st.ActiveID != "" {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(asked) != 2 {
		t.Fatalf("confirm asked %d times", len(asked))
	}

	api.deleteErr = &client.APIError{Status: 404, Detail: "Session not found"}
	if err := c.DeleteSession(context.Background(), "b"); err == nil {
		t.Fatal("expected error")
	}
	if c.Err() != "Session not found" || len(c.Sessions()) != 1 {
		t.Fatalf("err %q sessions %v", c.Err(), c.Sessions())
	}
}

func TestDeleteWithoutHookRefused(t *testing.T) {
	c := NewController(&fakeAPI{})
	if err := c.DeleteSession(context.Background(), "a"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err=%v", err)
	}
}
