// Package llm generates assistant replies through any OpenAI-compatible
// chat completion API (OpenAI itself, or a local Ollama at /v1).
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

const SystemPrompt = "You are Solace, a warm and supportive mental health companion. " +
	"Listen carefully, respond with empathy, keep answers concise, and encourage professional help when appropriate. " +
	"You are not a replacement for a licensed clinician."

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

var ErrNoChoices = errors.New("llm: empty completion")

func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = 0.7
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(oc), model: model, temperature: temp}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Conversation builds the request for a reply: the system prompt, prior
// turns, then the new user message.
func Conversation(history []Message, userText string) []Message {
	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	out = append(out, history...)
	return append(out, Message{Role: openai.ChatMessageRoleUser, Content: userText})
}
