package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

type CrisisResource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Type    string `json:"type,omitempty"`
}

type CrisisResult struct {
	IsCrisis bool
	Score    int
	Keywords []string
	// Resources is only set when IsCrisis.
	Resources []CrisisResource
}

const (
	TierHigh   = "high_severity"
	TierMedium = "medium_severity"
	TierLow    = "low_severity"

	crisisThreshold = 3
)

var defaultCrisisKeywords = map[string][]string{
	TierHigh:   {"suicide", "kill myself", "end my life", "want to die", "cut myself", "hurt myself", "self-harm"},
	TierMedium: {"can't go on", "no point", "hopeless"},
	TierLow:    {"worthless"},
}

var defaultCrisisResources = []CrisisResource{
	{Name: "National Suicide Prevention Lifeline", Contact: "988", Type: "hotline"},
	{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Type: "text"},
}

// CrisisDetector flags messages that warrant an emergency-resources banner.
// It is read-only after construction and safe for concurrent use.
type CrisisDetector struct {
	keywords  map[string][]string
	order     []string
	resources []CrisisResource
}

type crisisFile struct {
	Keywords  map[string][]string `json:"crisis_keywords"`
	Resources []CrisisResource    `json:"crisis_resources"`
}

func NewCrisisDetector(keywords map[string][]string, resources []CrisisResource) *CrisisDetector {
	if len(keywords) == 0 {
		keywords = defaultCrisisKeywords
	}
	if len(resources) == 0 {
		resources = defaultCrisisResources
	}
	d := &CrisisDetector{keywords: map[string][]string{}, resources: append([]CrisisResource(nil), resources...)}
	for tier, words := range keywords {
		norm := make([]string, 0, len(words))
		for _, w := range words {
			if w = normalize(w); w != "" {
				norm = append(norm, w)
			}
		}
		d.keywords[tier] = norm
		d.order = append(d.order, tier)
	}
	// high tier first, then medium, then the rest by name
	sort.Slice(d.order, func(i, j int) bool {
		wi, wj := tierWeight(d.order[i]), tierWeight(d.order[j])
		if wi != wj {
			return wi > wj
		}
		return d.order[i] < d.order[j]
	})
	return d
}

// LoadCrisisDetector reads keywords and resources from a JSON file. A
// missing path or file yields the built-in lists.
func LoadCrisisDetector(path string) (*CrisisDetector, error) {
	if strings.TrimSpace(path) == "" {
		return NewCrisisDetector(nil, nil), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewCrisisDetector(nil, nil), nil
		}
		return nil, fmt.Errorf("read crisis data: %w", err)
	}
	var f crisisFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse crisis data: %w", err)
	}
	return NewCrisisDetector(f.Keywords, f.Resources), nil
}

func tierWeight(tier string) int {
	switch tier {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	default:
		return 1
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Detect scores a message. Each tier counts at most once; any high tier
// match, or a total of at least three, is a crisis.
func (d *CrisisDetector) Detect(message string) CrisisResult {
	text := normalize(message)
	var res CrisisResult
	high := false
	for _, tier := range d.order {
		for _, kw := range d.keywords[tier] {
			if strings.Contains(text, kw) {
				w := tierWeight(tier)
				res.Score += w
				res.Keywords = append(res.Keywords, kw)
				if w == 3 {
					high = true
				}
				break
			}
		}
	}
	res.IsCrisis = high || res.Score >= crisisThreshold
	if res.IsCrisis {
		res.Resources = append([]CrisisResource(nil), d.resources...)
	}
	return res
}

// Resources returns the configured helplines.
func (d *CrisisDetector) Resources() []CrisisResource {
	return append([]CrisisResource(nil), d.resources...)
}

// CrisisReply is the assistant text that replaces the model reply when a
// crisis is detected.
func CrisisReply(resources []CrisisResource) string {
	var b strings.Builder
	b.WriteString("I'm really concerned about what you're sharing. Your safety is the most important thing, ")
	b.WriteString("and you don't have to face this alone.\n\n")
	if len(resources) > 0 {
		b.WriteString("Please reach out to a crisis line right now:\n")
		for _, r := range resources {
			b.WriteString("- **")
			b.WriteString(r.Name)
			b.WriteString("**: ")
			b.WriteString(r.Contact)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("These counselors are trained for moments like this. You matter, and help is available.")
	return b.String()
}
