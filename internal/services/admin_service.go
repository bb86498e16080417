package services

import (
	"context"
	"strings"
)

type AdminStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	// SystemStats counts rows across all users.
	SystemStats(ctx context.Context) (*SystemStats, error)
}

type SystemStats struct {
	TotalUsers          int `json:"total_users"`
	TotalConversations  int `json:"total_conversations"`
	TotalAssessments    int `json:"total_assessments"`
	TotalCrisisMessages int `json:"total_crisis_logs"`
	TotalSessions       int `json:"total_sessions"`
}

// AdminService serves deployment-wide counts to the usernames listed in
// SOLACE_ADMIN_USERS. It never returns message text or answers.
type AdminService struct {
	store  AdminStore
	admins map[string]bool
}

func NewAdminService(store AdminStore, usernames []string) *AdminService {
	admins := map[string]bool{}
	for _, u := range usernames {
		if u = strings.TrimSpace(u); u != "" {
			admins[u] = true
		}
	}
	return &AdminService{store: store, admins: admins}
}

func (s *AdminService) Stats(ctx context.Context, userID string) (*SystemStats, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.admins[u.Username] {
		return nil, NewForbiddenError("Admin access required")
	}
	return s.store.SystemStats(ctx)
}
