package session

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/medqbank/qbank/internal/qbank"
)

type Mode string

const (
	// ModeReading reveals the correct answer and explanation immediately
	// after each recorded answer.
	ModeReading Mode = "reading"
	// ModeTest defers all feedback and runs a countdown of 90 seconds per
	// question; hitting zero force-completes the session.
	ModeTest Mode = "test"
)

const PerQuestionBudget = 90 * time.Second

var (
	ErrEmptyPool       = errors.New("question pool is empty")
	ErrUnknownQuestion = errors.New("question not in this session")
	ErrInvalidOption   = errors.New("choice is not an option for this question")
	ErrOutOfRange      = errors.New("question index out of range")
	ErrCompleted       = errors.New("session already completed")
	ErrInvalidMode     = errors.New("mode must be reading or test")
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReading, ModeTest:
		return Mode(s), nil
	}
	return "", ErrInvalidMode
}

// Session is one practice-test attempt. The question list is a fixed
// snapshot taken at Start, not a live filter. A completed session is only
// read from (review), never mutated.
type Session struct {
	ID        string
	User      string
	Mode      Mode
	Systems   []string
	Questions []qbank.Question
	Answers   map[string]string // question ID -> chosen letter
	Marked    map[string]bool
	Index     int
	StartedAt time.Time
	Completed bool

	capped int // shortfall when the pool was smaller than requested
}

// Start draws a uniform random sample of min(count, |pool|) distinct
// questions without replacement. A pool smaller than count caps silently;
// Capped reports the shortfall so callers can surface a warning.
func Start(user string, pool []qbank.Question, count int, mode Mode, systems []string, now time.Time) (*Session, error) {
	if len(pool) == 0 && count > 0 {
		return nil, ErrEmptyPool
	}
	n := count
	if n > len(pool) {
		n = len(pool)
	}
	qs := make([]qbank.Question, 0, n)
	for _, i := range rand.Perm(len(pool))[:n] {
		qs = append(qs, pool[i])
	}
	return &Session{
		ID:        uuid.NewString(),
		User:      user,
		Mode:      mode,
		Systems:   systems,
		Questions: qs,
		Answers:   map[string]string{},
		Marked:    map[string]bool{},
		StartedAt: now,
		capped:    count - n,
	}, nil
}

// Capped returns how many requested questions the pool could not supply.
func (s *Session) Capped() int { return s.capped }

func (s *Session) Current() qbank.Question { return s.Questions[s.Index] }

// Find returns the snapshot question with the given ID.
func (s *Session) Find(questionID string) (qbank.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return qbank.Question{}, false
}

// Answer records or overwrites the chosen letter for a question in the
// snapshot. The letter must be one of that question's available options.
func (s *Session) Answer(questionID, letter string) error {
	if s.Completed {
		return ErrCompleted
	}
	q, ok := s.Find(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if !q.HasOption(letter) {
		return ErrInvalidOption
	}
	s.Answers[questionID] = letter
	return nil
}

// Next advances the index; at the last question it completes the session
// instead of moving out of bounds.
func (s *Session) Next() error {
	if s.Completed {
		return ErrCompleted
	}
	if s.Index >= len(s.Questions)-1 {
		return s.Complete()
	}
	s.Index++
	return nil
}

// Prev is a no-op at index 0.
func (s *Session) Prev() error {
	if s.Completed {
		return ErrCompleted
	}
	if s.Index > 0 {
		s.Index--
	}
	return nil
}

func (s *Session) Jump(target int) error {
	if s.Completed {
		return ErrCompleted
	}
	if target < 0 || target >= len(s.Questions) {
		return ErrOutOfRange
	}
	s.Index = target
	return nil
}

// ToggleMark flips a question's membership in the marked set.
func (s *Session) ToggleMark(questionID string) error {
	if s.Completed {
		return ErrCompleted
	}
	if _, ok := s.Find(questionID); !ok {
		return ErrUnknownQuestion
	}
	if s.Marked[questionID] {
		delete(s.Marked, questionID)
	} else {
		s.Marked[questionID] = true
	}
	return nil
}

// Budget is the total time allowance in test mode.
func (s *Session) Budget() time.Duration {
	return time.Duration(len(s.Questions)) * PerQuestionBudget
}

func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Remaining never goes negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	r := s.Budget() - s.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// Tick enforces the test-mode deadline. Once remaining time reaches zero the
// session is force-completed regardless of the current index; answers
// recorded so far are kept. Returns true when this call completed the
// session.
func (s *Session) Tick(now time.Time) bool {
	if s.Mode != ModeTest || s.Completed {
		return false
	}
	if s.Remaining(now) > 0 {
		return false
	}
	s.Completed = true
	return true
}

// Complete transitions active -> completed exactly once.
func (s *Session) Complete() error {
	if s.Completed {
		return ErrCompleted
	}
	s.Completed = true
	return nil
}

// Score counts answers matching each question's correct letter. A session
// with no questions scores 0%.
func (s *Session) Score() (correct int, percent float64) {
	for _, q := range s.Questions {
		if s.Answers[q.ID] == q.Answer {
			correct++
		}
	}
	if len(s.Questions) == 0 {
		return 0, 0
	}
	return correct, float64(correct) / float64(len(s.Questions)) * 100
}
