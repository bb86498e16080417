package scoring

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPerInstrumentLabels(t *testing.T) {
	cases := []struct {
		in    Instrument
		score int
		want  string
	}{
		{PHQ9, 0, "Minimal"},
		{PHQ9, 4, "Minimal"},
		{PHQ9, 5, "Mild"},
		{PHQ9, 10, "Moderate"},
		{PHQ9, 15, "Moderately Severe"},
		{PHQ9, 19, "Moderately Severe"},
		{PHQ9, 20, "Severe"},
		{PHQ9, 27, "Severe"},
		{GAD7, 4, "Minimal"},
		{GAD7, 5, "Mild"},
		{GAD7, 10, "Moderate"},
		{GAD7, 14, "Moderate"},
		{GAD7, 15, "Severe"},
		{GAD7, 21, "Severe"},
	}
	for _, c := range cases {
		if got := Severity(c.in, c.score).String(); got != c.want {
			t.Fatalf("Severity(%s,%d)=%q, want %q", c.in, c.score, got, c.want)
		}
	}
	for s := 0; s <= GAD7.MaxScore(); s++ {
		if GAD7Severity(s) == ModeratelySevere {
			t.Fatalf("GAD-7 score %d produced Moderately Severe", s)
		}
	}
}

func TestSeverityColor(t *testing.T) {
	cases := []struct {
		in    Instrument
		score int
		want  string
	}{
		{PHQ9, 22, "text-red-600"},
		{PHQ9, 16, "text-orange-600"},
		{PHQ9, 11, "text-yellow-600"},
		{PHQ9, 6, "text-blue-600"},
		{PHQ9, 1, "text-green-600"},
		{GAD7, 15, "text-red-600"},
		{GAD7, 12, "text-orange-600"},
		{GAD7, 7, "text-yellow-600"},
		{GAD7, 2, "text-green-600"},
	}
	for _, c := range cases {
		if got := SeverityColor(c.in, c.score); got != c.want {
			t.Fatalf("SeverityColor(%s,%d)=%q, want %q", c.in, c.score, got, c.want)
		}
	}
}

func TestCombinedRisk(t *testing.T) {
	cases := []struct {
		phq, gad, stress int
		want             Tier
	}{
		{22, 8, 4, Severe},
		{12, 6, 6, Moderate},
		{0, 0, 9, Severe},
		{0, 0, 7, ModeratelySevere},
		{14, 9, 6, ModeratelySevere}, // weighted 35
		{9, 4, 6, Moderate},
		{4, 2, 4, Mild},    // weighted 14, stress>=3
		{4, 2, 2, Minimal}, // weighted 10
		{4, 4, 2, Mild},    // gad>=3
		{4, 2, 0, Minimal},
		{0, 0, 0, Minimal},
		{9, 4, 1, Mild}, // weighted 15
	}
	for _, c := range cases {
		if got := CombinedRisk(c.phq, c.gad, c.stress); got != c.want {
			t.Fatalf("CombinedRisk(%d,%d,%d)=%s, want %s", c.phq, c.gad, c.stress, got, c.want)
		}
	}
}

func TestCombinedRiskMonotonicAndConservative(t *testing.T) {
	for p := 0; p <= 27; p++ {
		for g := 0; g <= 21; g++ {
			for s := 0; s <= 10; s++ {
				tier := CombinedRisk(p, g, s)
				if tier < PHQ9Severity(p) || tier < GAD7Severity(g) {
					t.Fatalf("CombinedRisk(%d,%d,%d)=%s below per-instrument label", p, g, s, tier)
				}
				if p < 27 && CombinedRisk(p+1, g, s) < tier {
					t.Fatalf("raising phq9 from %d lowered tier", p)
				}
				if g < 21 && CombinedRisk(p, g+1, s) < tier {
					t.Fatalf("raising gad7 from %d lowered tier", g)
				}
				if s < 10 && CombinedRisk(p, g, s+1) < tier {
					t.Fatalf("raising stress from %d lowered tier", s)
				}
			}
		}
	}
}

func TestTierStyleAndText(t *testing.T) {
	if st := Severe.Style(); st.Color != "text-red-600" || st.Background != "bg-red-100" {
		t.Fatalf("unexpected severe style %+v", st)
	}
	if st := Mild.Style(); st.Color != "text-blue-600" {
		t.Fatalf("unexpected mild style %+v", st)
	}
	b, err := json.Marshal(struct {
		Risk Tier `json:"risk"`
	}{ModeratelySevere})
	if err != nil || string(b) != `{"risk":"Moderately Severe"}` {
		t.Fatalf("marshal=%s,%v", b, err)
	}
	var out struct {
		Risk Tier `json:"risk"`
	}
	if err := json.Unmarshal([]byte(`{"risk":"Mild"}`), &out); err != nil || out.Risk != Mild {
		t.Fatalf("unmarshal=%v,%v", out.Risk, err)
	}
	if err := json.Unmarshal([]byte(`{"risk":"Extreme"}`), &out); err == nil {
		t.Fatal("expected unknown tier error")
	}
}

func TestSummarize(t *testing.T) {
	if s := Summarize(nil); !s.Empty {
		t.Fatal("empty history should be Empty")
	}
	now := time.Now()
	history := []Result{
		{PHQ9Score: 4, GAD7Score: 2, StressLevel: 1, CreatedAt: now},
		{PHQ9Score: 22, GAD7Score: 15, StressLevel: 9, CreatedAt: now.Add(-time.Hour)},
		{PHQ9Score: 10, GAD7Score: 3, StressLevel: 2, CreatedAt: now.Add(-2 * time.Hour)},
	}
	s := Summarize(history)
	if s.Empty || s.Count != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.AvgPHQ9 != 12 || s.AvgGAD7 != 6.7 {
		t.Fatalf("averages %v/%v", s.AvgPHQ9, s.AvgGAD7)
	}
	// headline follows the newest record even though older ones are worse
	if s.Tier != Minimal {
		t.Fatalf("tier=%s, want Minimal", s.Tier)
	}
}
