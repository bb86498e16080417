package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Solace/internal/scoring"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Assessment is a stored questionnaire result. RiskLevel is the tier at the
// time of submission; readers recompute it from the scores.
type Assessment struct {
	ID          string       `json:"id"`
	UserID      string       `json:"-"`
	PHQ9Answers []int        `json:"-"`
	GAD7Answers []int        `json:"-"`
	PHQ9Score   int          `json:"phq9_score"`
	GAD7Score   int          `json:"gad7_score"`
	StressLevel int          `json:"stress_level"`
	RiskLevel   scoring.Tier `json:"risk_level"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ChatSession struct {
	ID            string     `json:"session_id"`
	UserID        string     `json:"-"`
	Title         string     `json:"title"`
	MessageCount  int        `json:"message_count"`
	StartedAt     time.Time  `json:"started_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

type ChatMessage struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"-"`
	UserID         string    `json:"-"`
	Text           string    `json:"message_text"`
	Sender         string    `json:"sender"`
	CrisisDetected bool      `json:"crisis_detected"`
	CreatedAt      time.Time `json:"created_at"`
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(id) {
		return id
	}
	return id[:n]
}
