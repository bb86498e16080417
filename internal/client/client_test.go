package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendsBearerAndDecodes(t *testing.T) {
	var gotAuth string
	var gotBody SendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/chat/message" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(SendResponse{Response: "hi", SessionID: "s1"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("tok"))
	resp, err := c.SendMessage(context.Background(), SendRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header %q", gotAuth)
	}
	if gotBody.Message != "hello" || gotBody.SessionID != "" {
		t.Fatalf("unexpected body %+v", gotBody)
	}
	if resp.Response != "hi" || resp.SessionID != "s1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClientErrorDetail(t *testing.T) {
	cases := []struct {
		body     string
		wantText string
	}{
		{`{"detail":"Session not found"}`, "Session not found"},
		{`{"error":"bad things"}`, "bad things"},
		{`{"detail":[{"loc":["body"]}]}`, "fallback"},
		{`plain failure`, "plain failure"},
		{`<html>oops</html>`, "fallback"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(tc.body))
		}))
		err := New(srv.URL).DeleteSession(context.Background(), "abc")
		srv.Close()
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
			t.Fatalf("body %q: expected APIError, got %v", tc.body, err)
		}
		if got := Detail(err, "fallback"); got != tc.wantText {
			t.Fatalf("body %q: Detail=%q, want %q", tc.body, got, tc.wantText)
		}
	}
	if got := Detail(errors.New("dial tcp: refused"), "Failed to send message"); got != "Failed to send message" {
		t.Fatalf("transport error detail %q", got)
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "abc", TokenType: "bearer"})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(User{ID: "u1", Username: "sam"})
		}
	}))
	defer srv.Close()
	c := New(srv.URL)
	if _, err := c.Login(context.Background(), "sam", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	u, err := c.Me(context.Background())
	if err != nil || u.Username != "sam" {
		t.Fatalf("me=%+v,%v", u, err)
	}
}

func TestHistoryEscapesSessionID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	msgs, err := New(srv.URL).History(context.Background(), "a/b")
	if err != nil || len(msgs) != 0 {
		t.Fatalf("history=%v,%v", msgs, err)
	}
	if gotPath != "/api/chat/history/a%2Fb" {
		t.Fatalf("path %q", gotPath)
	}
}
