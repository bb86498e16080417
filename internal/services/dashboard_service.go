package services

import (
	"context"
	"time"

	"github.com/soaringjerry/Solace/internal/scoring"
)

type DashboardStore interface {
	CountAssessments(ctx context.Context, userID string) (int, error)
	ListAssessments(ctx context.Context, userID string, limit int) ([]*Assessment, error)
	CountSessions(ctx context.Context, userID string) (int, error)
	CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountCrisisMessages(ctx context.Context, userID string) (int, error)
}

type DashboardStats struct {
	TotalConversations int    `json:"total_conversations"`
	TotalAssessments   int    `json:"total_assessments"`
	CurrentRiskLevel   string `json:"current_risk_level,omitempty"`
	RecentActivityDays int    `json:"recent_activity_days"`
	CrisisAlerts       int    `json:"crisis_alerts"`
}

type TrendPoint struct {
	Date        string `json:"date"`
	PHQ9Score   int    `json:"phq9_score"`
	GAD7Score   int    `json:"gad7_score"`
	StressLevel int    `json:"stress_level"`
	RiskLevel   string `json:"risk_level"`
}

const (
	trendWindow    = 10
	activityWindow = 7 * 24 * time.Hour
)

type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *DashboardService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	conv, err := s.store.CountSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountAssessments(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.ListAssessments(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.CountSessionsSince(ctx, userID, s.now().Add(-activityWindow))
	if err != nil {
		return nil, err
	}
	alerts, err := s.store.CountCrisisMessages(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &DashboardStats{TotalConversations: conv, TotalAssessments: total, CrisisAlerts: alerts}
	if len(latest) > 0 {
		a := latest[0]
		out.CurrentRiskLevel = scoring.CombinedRisk(a.PHQ9Score, a.GAD7Score, a.StressLevel).String()
	}
	if recent > 0 {
		out.RecentActivityDays = 7
	}
	return out, nil
}

// Trends returns the last ten assessments oldest first.
func (s *DashboardService) Trends(ctx context.Context, userID string) ([]TrendPoint, error) {
	rows, err := s.store.ListAssessments(ctx, userID, trendWindow)
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		a := rows[i]
		out = append(out, TrendPoint{
			Date:        a.CreatedAt.Format("2006-01-02"),
			PHQ9Score:   a.PHQ9Score,
			GAD7Score:   a.GAD7Score,
			StressLevel: a.StressLevel,
			RiskLevel:   scoring.CombinedRisk(a.PHQ9Score, a.GAD7Score, a.StressLevel).String(),
		})
	}
	return out, nil
}
