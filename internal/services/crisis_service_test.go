package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCrisisDetectDefaults(t *testing.T) {
	d := NewCrisisDetector(nil, nil)
	cases := []struct {
		msg       string
		crisis    bool
		wantScore int
	}{
		{"I had a nice day", false, 0},
		{"I want   to DIE", true, 3},
		{"feeling hopeless", false, 2},
		{"hopeless and worthless", true, 3},
		{"I feel worthless", false, 1},
		{"no point, I want to die, hopeless", true, 5},
	}
	for _, c := range cases {
		res := d.Detect(c.msg)
		if res.IsCrisis != c.crisis || res.Score != c.wantScore {
			t.Fatalf("Detect(%q)=%+v, want crisis=%v score=%d", c.msg, res, c.crisis, c.wantScore)
		}
		if res.IsCrisis && len(res.Resources) != 2 {
			t.Fatalf("Detect(%q) resources=%v", c.msg, res.Resources)
		}
		if !res.IsCrisis && res.Resources != nil {
			t.Fatalf("Detect(%q) returned resources without crisis", c.msg)
		}
	}
}

func TestLoadCrisisDetector(t *testing.T) {
	d, err := LoadCrisisDetector(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || !d.Detect("suicide").IsCrisis {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}

	path := filepath.Join(t.TempDir(), "crisis.json")
	data := `{"crisis_keywords":{"high_severity":["Overdose"],"misc":["tired"]},
	"crisis_resources":[{"name":"Local Line","contact":"123","type":"hotline"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err = LoadCrisisDetector(path)
	if err != nil {
		t.Fatal(err)
	}
	res := d.Detect("thinking about an overdose")
	if !res.IsCrisis || res.Resources[0].Name != "Local Line" {
		t.Fatalf("unexpected result %+v", res)
	}
	if d.Detect("so tired").IsCrisis {
		t.Fatal("single low keyword should not be a crisis")
	}
	if d.Detect("suicide").IsCrisis {
		t.Fatal("custom file should replace default keywords")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte("{"), 0o600)
	if _, err := LoadCrisisDetector(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCrisisReply(t *testing.T) {
	msg := CrisisReply(defaultCrisisResources)
	if !strings.Contains(msg, "988") || !strings.Contains(msg, "Text HOME to 741741") {
		t.Fatalf("reply missing resources: %q", msg)
	}
}
