package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/soaringjerry/Solace/internal/scoring"
)

type assessStubStore struct {
	rows     []*Assessment
	sessions int
	recent   int
	crisis   int
	err      error
}

func (s *assessStubStore) AddAssessment(_ context.Context, a *Assessment) error {
	if s.err != nil {
		return s.err
	}
	copy := *a
	s.rows = append(s.rows, &copy)
	return nil
}

func (s *assessStubStore) ListAssessments(_ context.Context, userID string, limit int) ([]*Assessment, error) {
	var out []*Assessment
	for _, a := range s.rows {
		if a.UserID == userID {
			copy := *a
			out = append(out, &copy)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *assessStubStore) CountAssessments(ctx context.Context, userID string) (int, error) {
	rows, _ := s.ListAssessments(ctx, userID, 0)
	return len(rows), nil
}

func (s *assessStubStore) CountSessions(context.Context, string) (int, error) { return s.sessions, nil }

func (s *assessStubStore) CountSessionsSince(context.Context, string, time.Time) (int, error) {
	return s.recent, nil
}

func (s *assessStubStore) CountCrisisMessages(context.Context, string) (int, error) {
	return s.crisis, nil
}

func answers(n, each int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = each
	}
	return out
}

func TestAssessmentSubmit(t *testing.T) {
	ctx := context.Background()
	store := &assessStubStore{}
	svc := NewAssessmentService(store)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	svc.idGen = func() string { return "a1" }

	a, err := svc.Submit(ctx, "u1", SubmitAssessmentRequest{
		PHQ9Answers: []int{3, 3, 3, 3, 3, 3, 2, 1, 1},
		GAD7Answers: []int{2, 2, 1, 1, 1, 1, 0},
		StressLevel: 4,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.PHQ9Score != 22 || a.GAD7Score != 8 || a.RiskLevel != scoring.Severe || a.ID != "a1" {
		t.Fatalf("unexpected assessment %+v", a)
	}
	if len(store.rows) != 1 || len(store.rows[0].PHQ9Answers) != 9 {
		t.Fatal("answers not stored")
	}

	cases := []struct {
		name string
		req  SubmitAssessmentRequest
		msg  string
	}{
		{"short phq", SubmitAssessmentRequest{PHQ9Answers: answers(8, 0), GAD7Answers: answers(7, 0)}, "PHQ-9 requires 9 answers"},
		{"long gad", SubmitAssessmentRequest{PHQ9Answers: answers(9, 0), GAD7Answers: answers(8, 0)}, "GAD-7 requires 7 answers"},
		{"range", SubmitAssessmentRequest{PHQ9Answers: answers(9, 4), GAD7Answers: answers(7, 0)}, ""},
		{"unanswered", SubmitAssessmentRequest{PHQ9Answers: answers(9, 0), GAD7Answers: answers(7, -1)}, ""},
		{"stress", SubmitAssessmentRequest{PHQ9Answers: answers(9, 0), GAD7Answers: answers(7, 0), StressLevel: 11}, ""},
	}
	for _, c := range cases {
		_, err := svc.Submit(ctx, "u1", c.req)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorInvalid {
			t.Fatalf("%s: err=%v, want invalid", c.name, err)
		}
		if c.msg != "" && se.Message != c.msg {
			t.Fatalf("%s: message %q", c.name, se.Message)
		}
	}

	store.err = errors.New("locked")
	if _, err := svc.Submit(ctx, "u1", SubmitAssessmentRequest{PHQ9Answers: answers(9, 0), GAD7Answers: answers(7, 0)}); err == nil {
		t.Fatal("expected store error")
	}
}

func TestAssessmentHistoryRecomputesTier(t *testing.T) {
	store := &assessStubStore{rows: []*Assessment{
		{ID: "old", UserID: "u1", PHQ9Score: 12, GAD7Score: 6, StressLevel: 6, RiskLevel: scoring.Severe, CreatedAt: time.Unix(10, 0)},
		{ID: "new", UserID: "u1", PHQ9Score: 0, GAD7Score: 0, StressLevel: 0, RiskLevel: scoring.Mild, CreatedAt: time.Unix(20, 0)},
		{ID: "other", UserID: "u2", CreatedAt: time.Unix(30, 0)},
	}}
	rows, err := NewAssessmentService(store).History(context.Background(), "u1")
	if err != nil || len(rows) != 2 {
		t.Fatalf("history=%v,%v", rows, err)
	}
	if rows[0].ID != "new" || rows[0].RiskLevel != scoring.Minimal || rows[1].RiskLevel != scoring.Moderate {
		t.Fatalf("unexpected rows %+v %+v", rows[0], rows[1])
	}
}

func TestDashboardStatsAndTrends(t *testing.T) {
	ctx := context.Background()
	store := &assessStubStore{sessions: 3, recent: 1, crisis: 2}
	svc := NewDashboardService(store)

	st, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalConversations != 3 || st.TotalAssessments != 0 || st.CurrentRiskLevel != "" || st.RecentActivityDays != 7 || st.CrisisAlerts != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		store.rows = append(store.rows, &Assessment{UserID: "u1", PHQ9Score: i, GAD7Score: 0, StressLevel: 0, CreatedAt: base.AddDate(0, 0, i)})
	}
	st, _ = svc.Stats(ctx, "u1")
	if st.TotalAssessments != 12 || st.CurrentRiskLevel != "Moderate" {
		t.Fatalf("unexpected stats %+v", st)
	}

	tr, err := svc.Trends(ctx, "u1")
	if err != nil || len(tr) != 10 {
		t.Fatalf("trends=%d,%v", len(tr), err)
	}
	if tr[0].PHQ9Score != 2 || tr[9].PHQ9Score != 11 || tr[0].Date != "2025-05-03" {
		t.Fatalf("unexpected trend bounds %+v %+v", tr[0], tr[9])
	}
	if tr[0].RiskLevel != "Minimal" || tr[9].RiskLevel != "Moderate" {
		t.Fatalf("trend tiers %s %s", tr[0].RiskLevel, tr[9].RiskLevel)
	}
}
