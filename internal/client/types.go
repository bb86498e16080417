package client

import (
	"time"

	"github.com/soaringjerry/Solace/internal/scoring"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Submission is the body of POST /api/assessments/submit.
type Submission struct {
	PHQ9Answers []int  `json:"phq9_answers"`
	GAD7Answers []int  `json:"gad7_answers"`
	StressLevel int    `json:"stress_level"`
	Notes       string `json:"notes,omitempty"`
}

// AssessmentResult is a stored result as returned by the server. RiskLevel
// and SeverityInterpretation are informational; clients recompute tiers.
type AssessmentResult struct {
	scoring.Result
	RiskLevel              string `json:"risk_level,omitempty"`
	SeverityInterpretation string `json:"severity_interpretation,omitempty"`
}

type Session struct {
	SessionID     string     `json:"session_id"`
	Title         string     `json:"title"`
	MessageCount  int        `json:"message_count"`
	StartedAt     time.Time  `json:"started_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ServerMessage is a transcript record as stored by the server.
type ServerMessage struct {
	MessageText string    `json:"message_text"`
	Sender      string    `json:"sender"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// CrisisResource is a helpline shown with a crisis banner. Type is
// "hotline" or "text".
type CrisisResource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Type    string `json:"type,omitempty"`
}

type SendResponse struct {
	Response        string           `json:"response"`
	SessionID       string           `json:"session_id"`
	CrisisDetected  bool             `json:"crisis_detected"`
	CrisisMessage   string           `json:"crisis_message,omitempty"`
	CrisisResources []CrisisResource `json:"crisis_resources,omitempty"`
}

type DashboardStats struct {
	TotalConversations int    `json:"total_conversations"`
	TotalAssessments   int    `json:"total_assessments"`
	CurrentRiskLevel   string `json:"current_risk_level,omitempty"`
	RecentActivityDays int    `json:"recent_activity_days"`
	CrisisAlerts       int    `json:"crisis_alerts"`
}

// TrendPoint.Date is YYYY-MM-DD.
type TrendPoint struct {
	Date        string `json:"date"`
	PHQ9Score   int    `json:"phq9_score"`
	GAD7Score   int    `json:"gad7_score"`
	StressLevel int    `json:"stress_level"`
	RiskLevel   string `json:"risk_level"`
}
