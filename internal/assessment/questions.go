package assessment

import "github.com/soaringjerry/Solace/internal/scoring"

var PHQ9Questions = []string{
	"Little interest or pleasure in doing things",
	"Feeling down, depressed, or hopeless",
	"Trouble falling/staying asleep, sleeping too much",
	"Feeling tired or having little energy",
	"Poor appetite or overeating",
	"Feeling bad about yourself or that you are a failure",
	"Trouble concentrating on things",
	"Moving or speaking slowly or being fidgety/restless",
	"Thoughts that you would be better off dead or hurting yourself",
}

var GAD7Questions = []string{
	"Feeling nervous, anxious, or on edge",
	"Not being able to stop or control worrying",
	"Worrying too much about different things",
	"Trouble relaxing",
	"Being so restless that it is hard to sit still",
	"Becoming easily annoyed or irritable",
	"Feeling afraid as if something awful might happen",
}

// Options are the answer choices shared by both instruments, indexed by value.
var Options = []string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

// Questions returns the item texts of an instrument.
func Questions(in scoring.Instrument) []string {
	if in == scoring.GAD7 {
		return GAD7Questions
	}
	return PHQ9Questions
}
