package services

import (
	"context"
	"errors"
	"time"

	"github.com/soaringjerry/Solace/internal/scoring"
)

type AssessmentStore interface {
	AddAssessment(ctx context.Context, a *Assessment) error
	// ListAssessments is newest first; limit <= 0 returns all.
	ListAssessments(ctx context.Context, userID string, limit int) ([]*Assessment, error)
	CountAssessments(ctx context.Context, userID string) (int, error)
}

type AssessmentService struct {
	store AssessmentStore
	now   func() time.Time
	idGen func() string
}

type SubmitAssessmentRequest struct {
	PHQ9Answers []int  `json:"phq9_answers"`
	GAD7Answers []int  `json:"gad7_answers"`
	StressLevel int    `json:"stress_level"`
	Notes       string `json:"notes,omitempty"`
}

func NewAssessmentService(store AssessmentStore) *AssessmentService {
	return &AssessmentService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Submit scores and stores a questionnaire. Answers are validated with the
// same rules the client applies.
func (s *AssessmentService) Submit(ctx context.Context, userID string, req SubmitAssessmentRequest) (*Assessment, error) {
	if len(req.PHQ9Answers) != scoring.PHQ9.Items() {
		return nil, NewInvalidError("PHQ-9 requires 9 answers")
	}
	if len(req.GAD7Answers) != scoring.GAD7.Items() {
		return nil, NewInvalidError("GAD-7 requires 7 answers")
	}
	phq, err := scoring.ScoreInstrument(scoring.PHQ9, req.PHQ9Answers)
	if err != nil {
		return nil, asInvalid(err)
	}
	gad, err := scoring.ScoreInstrument(scoring.GAD7, req.GAD7Answers)
	if err != nil {
		return nil, asInvalid(err)
	}
	if err := scoring.ValidateStress(req.StressLevel); err != nil {
		return nil, asInvalid(err)
	}
	a := &Assessment{
		ID:          s.idGen(),
		UserID:      userID,
		PHQ9Answers: append([]int(nil), req.PHQ9Answers...),
		GAD7Answers: append([]int(nil), req.GAD7Answers...),
		PHQ9Score:   phq,
		GAD7Score:   gad,
		StressLevel: req.StressLevel,
		RiskLevel:   scoring.CombinedRisk(phq, gad, req.StressLevel),
		Notes:       req.Notes,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddAssessment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func asInvalid(err error) error {
	var ve *scoring.ValidationError
	if errors.As(err, &ve) {
		return NewInvalidError(ve.Error())
	}
	return err
}

// History is newest first. Tiers are recomputed so threshold changes apply
// to old records too.
func (s *AssessmentService) History(ctx context.Context, userID string) ([]*Assessment, error) {
	rows, err := s.store.ListAssessments(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		a.RiskLevel = scoring.CombinedRisk(a.PHQ9Score, a.GAD7Score, a.StressLevel)
	}
	return rows, nil
}
