package scoring

import "fmt"

// Instrument identifies a standardized questionnaire.
type Instrument string

const (
	PHQ9 Instrument = "phq9"
	GAD7 Instrument = "gad7"
)

const (
	// Unanswered marks an item the user has not picked a value for yet.
	Unanswered = -1

	MinItemValue = 0
	MaxItemValue = 3
	MinStress    = 0
	MaxStress    = 10
)

// Items returns the number of questions of the instrument.
func (in Instrument) Items() int {
	switch in {
	case PHQ9:
		return 9
	case GAD7:
		return 7
	default:
		return 0
	}
}

// MaxScore is the highest total the instrument can produce.
func (in Instrument) MaxScore() int { return in.Items() * MaxItemValue }

func (in Instrument) String() string {
	switch in {
	case PHQ9:
		return "PHQ-9"
	case GAD7:
		return "GAD-7"
	default:
		return string(in)
	}
}

// ValidationError reports questionnaire input that cannot be scored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Score sums answers after checking the vector has the expected length and
// every element lies within [0,3].
func Score(answers []int, expected int) (int, error) {
	if len(answers) != expected {
		return 0, newValidationError("answers", "expected %d answers, got %d", expected, len(answers))
	}
	total := 0
	for i, a := range answers {
		if a < MinItemValue || a > MaxItemValue {
			return 0, newValidationError(fmt.Sprintf("answers[%d]", i), "value %d outside [%d,%d]", a, MinItemValue, MaxItemValue)
		}
		total += a
	}
	return total, nil
}

// ScoreInstrument scores answers against the instrument's item count.
func ScoreInstrument(in Instrument, answers []int) (int, error) {
	n := in.Items()
	if n == 0 {
		return 0, newValidationError("instrument", "unknown instrument %q", string(in))
	}
	total, err := Score(answers, n)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Field = string(in) + "_" + ve.Field
		}
		return 0, err
	}
	return total, nil
}

// ValidateStress checks the self-reported stress level.
func ValidateStress(level int) error {
	if level < MinStress || level > MaxStress {
		return newValidationError("stress_level", "value %d outside [%d,%d]", level, MinStress, MaxStress)
	}
	return nil
}

// Complete reports whether no item is still Unanswered.
func Complete(answers []int) bool {
	for _, a := range answers {
		if a == Unanswered {
			return false
		}
	}
	return true
}
