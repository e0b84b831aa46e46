package qbank

// Letters is the option order for every question. E is optional in the
// source data and absent from a question's Options map when null.
var Letters = []string{"A", "B", "C", "D", "E"}

type Question struct {
	ID          string            `json:"id"` // composite: system tag + local id
	System      string            `json:"system"`
	Stem        string            `json:"stem"`
	Options     map[string]string `json:"options"` // letter -> text
	Answer      string            `json:"answer"`  // correct letter
	Explanation string            `json:"explanation,omitempty"`
}

// DisplayLetters returns the letters present on this question, in A..E order.
func (q Question) DisplayLetters() []string {
	out := make([]string, 0, len(q.Options))
	for _, l := range Letters {
		if _, ok := q.Options[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// HasOption reports whether letter is a valid choice for this question.
func (q Question) HasOption(letter string) bool {
	_, ok := q.Options[letter]
	return ok
}
