package scoring

// Tier is an ordered severity level. Higher values are more severe.
type Tier int

const (
	Minimal Tier = iota
	Mild
	Moderate
	ModeratelySevere
	Severe
)

var tierNames = [...]string{"Minimal", "Mild", "Moderate", "Moderately Severe", "Severe"}

func (t Tier) String() string {
	if t < Minimal || t > Severe {
		return "Unknown"
	}
	return tierNames[t]
}

// ParseTier maps a label back to its tier.
func ParseTier(label string) (Tier, bool) {
	for i, n := range tierNames {
		if n == label {
			return Tier(i), true
		}
	}
	return Minimal, false
}

// MarshalText lets tiers travel as their display label in JSON.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	v, ok := ParseTier(string(b))
	if !ok {
		return &ValidationError{Field: "risk_level", Message: "unknown tier " + string(b)}
	}
	*t = v
	return nil
}

// Style is the display token pair for a combined risk tier.
type Style struct {
	Color      string
	Background string
}

var tierStyles = [...]Style{
	Minimal:          {Color: "text-green-600", Background: "bg-green-100"},
	Mild:             {Color: "text-blue-600", Background: "bg-blue-100"},
	Moderate:         {Color: "text-yellow-600", Background: "bg-yellow-100"},
	ModeratelySevere: {Color: "text-orange-600", Background: "bg-orange-100"},
	Severe:           {Color: "text-red-600", Background: "bg-red-100"},
}

func (t Tier) Style() Style {
	if t < Minimal || t > Severe {
		return tierStyles[Minimal]
	}
	return tierStyles[t]
}

type threshold struct {
	min  int
	tier Tier
}

// Evaluated top-down, first match wins.
var (
	phq9Labels = []threshold{{20, Severe}, {15, ModeratelySevere}, {10, Moderate}, {5, Mild}}
	// GAD-7 deliberately has no Moderately Severe band.
	gad7Labels = []threshold{{15, Severe}, {10, Moderate}, {5, Mild}}
)

func firstMatch(table []threshold, score int) Tier {
	for _, th := range table {
		if score >= th.min {
			return th.tier
		}
	}
	return Minimal
}

// PHQ9Severity is the five-tier per-instrument label for a PHQ-9 score.
func PHQ9Severity(score int) Tier { return firstMatch(phq9Labels, score) }

// GAD7Severity is the four-tier per-instrument label for a GAD-7 score.
func GAD7Severity(score int) Tier { return firstMatch(gad7Labels, score) }

// Severity dispatches to the instrument's label table.
func Severity(in Instrument, score int) Tier {
	if in == GAD7 {
		return GAD7Severity(score)
	}
	return PHQ9Severity(score)
}

// Instrument colour tables used by the dashboard. GAD-7 maps >=10 to orange
// while its label says Moderate.
var (
	phq9Colors = []struct {
		min   int
		color string
	}{{20, "text-red-600"}, {15, "text-orange-600"}, {10, "text-yellow-600"}, {5, "text-blue-600"}}
	gad7Colors = []struct {
		min   int
		color string
	}{{15, "text-red-600"}, {10, "text-orange-600"}, {5, "text-yellow-600"}}
)

// SeverityColor returns the text colour token for an instrument score.
func SeverityColor(in Instrument, score int) string {
	table := phq9Colors
	if in == GAD7 {
		table = gad7Colors
	}
	for _, c := range table {
		if score >= c.min {
			return c.color
		}
	}
	return "text-green-600"
}

// WeightedTotal counts stress double.
func WeightedTotal(phq9, gad7, stress int) int { return phq9 + gad7 + stress*2 }

// CombinedRisk classifies the three dimensions together. Any single elevated
// dimension escalates the whole; rules are a priority list.
func CombinedRisk(phq9, gad7, stress int) Tier {
	w := WeightedTotal(phq9, gad7, stress)
	switch {
	case phq9 >= 20 || gad7 >= 15 || stress >= 9:
		return Severe
	case phq9 >= 15 || gad7 >= 10 || stress >= 7 || w >= 35:
		return ModeratelySevere
	case phq9 >= 10 || gad7 >= 5 || stress >= 5 || w >= 25:
		return Moderate
	case phq9 >= 5 || gad7 >= 3 || stress >= 3 || w >= 15:
		return Mild
	default:
		return Minimal
	}
}
