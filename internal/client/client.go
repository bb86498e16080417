// Package client talks to the Solace REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// APIError is a non-2xx response. Detail is the server's human-readable
// message when the body carried one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Detail returns the server-provided detail carried by err, or fallback when
// there is none.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		log.Printf("client: %s %s -> %d", method, path, resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// parseDetail understands {"detail": "..."} and {"error": "..."} bodies and
// falls back to a short plain-text body.
func parseDetail(raw []byte) string {
	var body struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if s, ok := body.Detail.(string); ok && s != "" {
			return s
		}
		if body.Error != "" {
			return body.Error
		}
		return ""
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 || strings.HasPrefix(s, "<") {
		return ""
	}
	return s
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	in := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAssessment(ctx context.Context, sub Submission) (*AssessmentResult, error) {
	var out AssessmentResult
	if err := c.do(ctx, http.MethodPost, "/api/assessments/submit", sub, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssessmentHistory is newest first.
func (c *Client) AssessmentHistory(ctx context.Context) ([]AssessmentResult, error) {
	var out []AssessmentResult
	if err := c.do(ctx, http.MethodGet, "/api/assessments/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, req SendRequest) (*SendResponse, error) {
	var out SendResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/message", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := c.do(ctx, http.MethodGet, "/api/chat/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, sessionID string) ([]ServerMessage, error) {
	var out []ServerMessage
	if err := c.do(ctx, http.MethodGet, "/api/chat/history/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/session/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardTrends is oldest first.
func (c *Client) DashboardTrends(ctx context.Context) ([]TrendPoint, error) {
	var out []TrendPoint
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/trends", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
