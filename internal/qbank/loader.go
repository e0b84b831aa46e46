package qbank

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// rawQuestion is the flat on-disk record shape. Source files are hand-edited
// exports, so id may arrive as a string or a bare number.
type rawQuestion struct {
	ID            flexID  `json:"id"`
	System        string  `json:"system"`
	Stem          string  `json:"stem"`
	ChoiceA       *string `json:"choice_a"`
	ChoiceB       *string `json:"choice_b"`
	ChoiceC       *string `json:"choice_c"`
	ChoiceD       *string `json:"choice_d"`
	ChoiceE       *string `json:"choice_e"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
}

type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Bank holds the question collection loaded once at process start.
type Bank struct {
	questions []Question
	byID      map[string]Question
	systems   []string
}

// LoadDir reads every *.json file under dir, each a flat array of question
// records, and normalizes them. A malformed file or record is logged and
// skipped; it never aborts the load.
func LoadDir(dir string) (*Bank, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read question dir: %w", err)
	}

	var qs []Question
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("qbank: skip %s: %v", e.Name(), err)
			continue
		}
		var raws []rawQuestion
		if err := json.Unmarshal(data, &raws); err != nil {
			log.Printf("qbank: skip %s: bad json: %v", e.Name(), err)
			continue
		}
		for i, r := range raws {
			q, err := normalize(r)
			if err != nil {
				log.Printf("qbank: skip %s[%d]: %v", e.Name(), i, err)
				continue
			}
			qs = append(qs, q)
		}
	}
	return NewBank(qs), nil
}

// NewBank indexes a normalized question list. Duplicate IDs keep the first
// occurrence.
func NewBank(qs []Question) *Bank {
	b := &Bank{byID: make(map[string]Question, len(qs))}
	sysSet := map[string]bool{}
	for _, q := range qs {
		if _, dup := b.byID[q.ID]; dup {
			continue
		}
		b.byID[q.ID] = q
		b.questions = append(b.questions, q)
		sysSet[q.System] = true
	}
	for s := range sysSet {
		b.systems = append(b.systems, s)
	}
	sort.Strings(b.systems)
	return b
}

// All returns the full question list. Callers must not mutate it.
func (b *Bank) All() []Question { return b.questions }

func (b *Bank) ByID(id string) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Systems returns the sorted, duplicate-free category tags.
func (b *Bank) Systems() []string { return b.systems }

func (b *Bank) Len() int { return len(b.questions) }

func normalize(r rawQuestion) (Question, error) {
	if r.ID == "" {
		return Question{}, fmt.Errorf("missing id")
	}
	if r.System == "" {
		return Question{}, fmt.Errorf("missing system")
	}
	if r.Stem == "" {
		return Question{}, fmt.Errorf("missing stem")
	}
	opts := map[string]string{}
	for i, c := range []*string{r.ChoiceA, r.ChoiceB, r.ChoiceC, r.ChoiceD, r.ChoiceE} {
		if c != nil && *c != "" {
			opts[Letters[i]] = *c
		}
	}
	ans := strings.ToUpper(strings.TrimSpace(r.CorrectAnswer))
	if _, ok := opts[ans]; !ok {
		return Question{}, fmt.Errorf("correct_answer %q not among choices", r.CorrectAnswer)
	}
	return Question{
		ID:          r.System + "-" + string(r.ID),
		System:      r.System,
		Stem:        r.Stem,
		Options:     opts,
		Answer:      ans,
		Explanation: r.Explanation,
	}, nil
}
