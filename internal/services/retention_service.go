package services

import (
	"context"
	"log"
	"time"
)

type RetentionStore interface {
	// PruneChatBefore deletes messages created before cutoff and sessions
	// left without messages. Assessments are never touched.
	PruneChatBefore(ctx context.Context, cutoff time.Time) (messages, sessions int64, err error)
}

type RetentionService struct {
	store RetentionStore
	keep  time.Duration
	now   func() time.Time
}

type PruneResult struct {
	Cutoff   time.Time
	Messages int64
	Sessions int64
}

func NewRetentionService(store RetentionStore, days int) *RetentionService {
	return &RetentionService{
		store: store,
		keep:  time.Duration(days) * 24 * time.Hour,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *RetentionService) Enabled() bool { return s.keep > 0 }

func (s *RetentionService) Run(ctx context.Context) (PruneResult, error) {
	if !s.Enabled() {
		return PruneResult{}, NewInvalidError("retention disabled")
	}
	cutoff := s.now().Add(-s.keep)
	msgs, sessions, err := s.store.PruneChatBefore(ctx, cutoff)
	if err != nil {
		return PruneResult{}, err
	}
	if msgs > 0 || sessions > 0 {
		log.Printf("retention: removed %d messages and %d sessions older than %s", msgs, sessions, cutoff.Format(time.RFC3339))
	}
	return PruneResult{Cutoff: cutoff, Messages: msgs, Sessions: sessions}, nil
}
