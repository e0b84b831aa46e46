package http

import (
	"time"

	"github.com/medqbank/qbank/internal/qbank"
	"github.com/medqbank/qbank/internal/session"
)

type optionView struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type questionView struct {
	ID      string       `json:"id"`
	System  string       `json:"system"`
	Stem    string       `json:"stem"`
	Options []optionView `json:"options"`
	Chosen  string       `json:"chosen,omitempty"`
	Marked  bool         `json:"marked"`

	// Feedback fields are only populated once revealed: after an answer is
	// recorded in reading mode, or once the session is completed.
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type sessionView struct {
	ID            string       `json:"id"`
	Mode          session.Mode `json:"mode"`
	Systems       []string     `json:"systems,omitempty"`
	QuestionCount int          `json:"question_count"`
	Index         int          `json:"index"`
	Answered      int          `json:"answered"`
	Completed     bool         `json:"completed"`
	StartedAt     time.Time    `json:"started_at"`

	// test mode only
	RemainingSec int `json:"remaining_sec,omitempty"`

	Question *questionView `json:"question,omitempty"`

	// Capped is set when the filtered pool could not supply the requested
	// number of questions.
	Capped int `json:"capped,omitempty"`
}

type reviewItem struct {
	questionView
	Correct bool `json:"correct"`
}

type reviewView struct {
	ID            string       `json:"id"`
	Mode          session.Mode `json:"mode"`
	QuestionCount int          `json:"question_count"`
	Score         int          `json:"score"`
	Percent       float64      `json:"percent"`
	Items         []reviewItem `json:"items"`
}

func newQuestionView(s *session.Session, q qbank.Question) questionView {
	v := questionView{
		ID:     q.ID,
		System: q.System,
		Stem:   q.Stem,
		Chosen: s.Answers[q.ID],
		Marked: s.Marked[q.ID],
	}
	for _, l := range q.DisplayLetters() {
		v.Options = append(v.Options, optionView{Letter: l, Text: q.Options[l]})
	}
	if revealed(s, q.ID) {
		v.Answer = q.Answer
		v.Explanation = q.Explanation
	}
	return v
}

// revealed enforces the feedback contract: the correct answer is never shown
// before an answer is recorded.
func revealed(s *session.Session, questionID string) bool {
	if s.Completed {
		return true
	}
	_, answered := s.Answers[questionID]
	return s.Mode == session.ModeReading && answered
}

func newSessionView(s *session.Session, now time.Time) sessionView {
	v := sessionView{
		ID:            s.ID,
		Mode:          s.Mode,
		Systems:       s.Systems,
		QuestionCount: len(s.Questions),
		Index:         s.Index,
		Answered:      len(s.Answers),
		Completed:     s.Completed,
		StartedAt:     s.StartedAt,
		Capped:        s.Capped(),
	}
	if s.Mode == session.ModeTest && !s.Completed {
		v.RemainingSec = int(s.Remaining(now) / time.Second)
	}
	if !s.Completed && len(s.Questions) > 0 {
		q := newQuestionView(s, s.Current())
		v.Question = &q
	}
	return v
}

func newReviewView(s *session.Session) reviewView {
	score, pct := s.Score()
	v := reviewView{
		ID:            s.ID,
		Mode:          s.Mode,
		QuestionCount: len(s.Questions),
		Score:         score,
		Percent:       pct,
	}
	for _, q := range s.Questions {
		v.Items = append(v.Items, reviewItem{
			questionView: newQuestionView(s, q),
			Correct:      s.Answers[q.ID] == q.Answer,
		})
	}
	return v
}
