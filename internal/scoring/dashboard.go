package scoring

import (
	"math"
	"time"
)

// Result is a stored assessment outcome. Risk tiers are not part of it;
// they are recomputed from the scores whenever a result is displayed.
type Result struct {
	ID          string    `json:"id,omitempty"`
	PHQ9Score   int       `json:"phq9_score"`
	GAD7Score   int       `json:"gad7_score"`
	StressLevel int       `json:"stress_level"`
	CreatedAt   time.Time `json:"created_at"`
}

// Risk is the combined tier of the result.
func (r Result) Risk() Tier { return CombinedRisk(r.PHQ9Score, r.GAD7Score, r.StressLevel) }

// Summary is the dashboard headline over a history.
type Summary struct {
	Empty   bool
	Count   int
	AvgPHQ9 float64
	AvgGAD7 float64
	Latest  Result
	Tier    Tier
}

// Summarize aggregates a newest-first history. The headline tier is the
// latest record's tier, not one derived from the averages. An empty history
// yields Summary{Empty: true}.
func Summarize(history []Result) Summary {
	if len(history) == 0 {
		return Summary{Empty: true}
	}
	var phq, gad int
	for _, r := range history {
		phq += r.PHQ9Score
		gad += r.GAD7Score
	}
	n := float64(len(history))
	latest := history[0]
	return Summary{
		Count:   len(history),
		AvgPHQ9: round1(float64(phq) / n),
		AvgGAD7: round1(float64(gad) / n),
		Latest:  latest,
		Tier:    latest.Risk(),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
