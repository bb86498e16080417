// Package assessment drives the questionnaire submit flow and the
// historical views computed from stored results.
package assessment

import (
	"context"
	"sync"

	"github.com/soaringjerry/Solace/internal/client"
	"github.com/soaringjerry/Solace/internal/scoring"
)

const (
	DefaultStress = 5
	// TrendWindow is how many results the trend view covers.
	TrendWindow = 10

	msgIncomplete    = "Please answer all questions"
	msgSubmitFailed  = "Failed to submit assessment"
	msgHistoryFailed = "Failed to load assessment history"
)

// Form holds answers being filled in. Unset items are scoring.Unanswered.
type Form struct {
	PHQ9   []int
	GAD7   []int
	Stress int
}

func NewForm() *Form {
	f := &Form{
		PHQ9:   make([]int, scoring.PHQ9.Items()),
		GAD7:   make([]int, scoring.GAD7.Items()),
		Stress: DefaultStress,
	}
	for i := range f.PHQ9 {
		f.PHQ9[i] = scoring.Unanswered
	}
	for i := range f.GAD7 {
		f.GAD7[i] = scoring.Unanswered
	}
	return f
}

// Set records the answer to item idx of an instrument.
func (f *Form) Set(in scoring.Instrument, idx, value int) error {
	answers := f.answers(in)
	if idx < 0 || idx >= len(answers) {
		return &scoring.ValidationError{Field: string(in) + "_answers", Message: "item out of range"}
	}
	if value < scoring.MinItemValue || value > scoring.MaxItemValue {
		return &scoring.ValidationError{Field: string(in) + "_answers", Message: "answer out of range"}
	}
	answers[idx] = value
	return nil
}

func (f *Form) answers(in scoring.Instrument) []int {
	if in == scoring.GAD7 {
		return f.GAD7
	}
	return f.PHQ9
}

// Validate rejects a form with any unanswered item before scoring it.
func (f *Form) Validate() error {
	if !scoring.Complete(f.PHQ9) || !scoring.Complete(f.GAD7) {
		return &scoring.ValidationError{Message: msgIncomplete}
	}
	if _, err := scoring.ScoreInstrument(scoring.PHQ9, f.PHQ9); err != nil {
		return err
	}
	if _, err := scoring.ScoreInstrument(scoring.GAD7, f.GAD7); err != nil {
		return err
	}
	return scoring.ValidateStress(f.Stress)
}

// Preview scores the form locally.
func (f *Form) Preview() (scoring.Result, error) {
	if err := f.Validate(); err != nil {
		return scoring.Result{}, err
	}
	phq, _ := scoring.ScoreInstrument(scoring.PHQ9, f.PHQ9)
	gad, _ := scoring.ScoreInstrument(scoring.GAD7, f.GAD7)
	return scoring.Result{PHQ9Score: phq, GAD7Score: gad, StressLevel: f.Stress}, nil
}

func (f *Form) submission() client.Submission {
	return client.Submission{
		PHQ9Answers: append([]int(nil), f.PHQ9...),
		GAD7Answers: append([]int(nil), f.GAD7...),
		StressLevel: f.Stress,
	}
}

type API interface {
	SubmitAssessment(ctx context.Context, sub client.Submission) (*client.AssessmentResult, error)
	AssessmentHistory(ctx context.Context) ([]client.AssessmentResult, error)
}

// TrendPoint is one result in the trend view with its recomputed tier.
type TrendPoint struct {
	scoring.Result
	Tier scoring.Tier
}

// Aggregator owns the submit flow and the cached newest-first history.
type Aggregator struct {
	api API

	mu      sync.Mutex
	history []scoring.Result
	loaded  bool
	errMsg  string
}

func NewAggregator(api API) *Aggregator { return &Aggregator{api: api} }

// Submit validates the form and posts it. Validation errors are returned
// without contacting the server. The stored result is prepended to the
// cached history.
func (a *Aggregator) Submit(ctx context.Context, f *Form) (scoring.Result, error) {
	if err := f.Validate(); err != nil {
		a.setError(err.Error())
		return scoring.Result{}, err
	}
	a.setError("")
	res, err := a.api.SubmitAssessment(ctx, f.submission())
	if err != nil {
		a.setError(client.Detail(err, msgSubmitFailed))
		return scoring.Result{}, err
	}
	a.mu.Lock()
	a.history = append([]scoring.Result{res.Result}, a.history...)
	a.mu.Unlock()
	return res.Result, nil
}

// Load replaces the cached history. On failure the previous history stays.
func (a *Aggregator) Load(ctx context.Context) error {
	rows, err := a.api.AssessmentHistory(ctx)
	if err != nil {
		a.setError(client.Detail(err, msgHistoryFailed))
		return err
	}
	hist := make([]scoring.Result, len(rows))
	for i, r := range rows {
		hist[i] = r.Result
	}
	a.mu.Lock()
	a.history = hist
	a.loaded = true
	a.mu.Unlock()
	return nil
}

func (a *Aggregator) History() []scoring.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]scoring.Result(nil), a.history...)
}

// Summary is the dashboard headline over the cached history.
func (a *Aggregator) Summary() scoring.Summary { return scoring.Summarize(a.History()) }

// Trends returns up to TrendWindow most recent results, oldest first.
func (a *Aggregator) Trends() []TrendPoint {
	hist := a.History()
	if len(hist) > TrendWindow {
		hist = hist[:TrendWindow]
	}
	out := make([]TrendPoint, 0, len(hist))
	for i := len(hist) - 1; i >= 0; i-- {
		out = append(out, TrendPoint{Result: hist[i], Tier: hist[i].Risk()})
	}
	return out
}

func (a *Aggregator) setError(msg string) {
	a.mu.Lock()
	a.errMsg = msg
	a.mu.Unlock()
}

func (a *Aggregator) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

func (a *Aggregator) DismissError() { a.setError("") }

// Loaded reports whether history has been fetched at least once.
func (a *Aggregator) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}
