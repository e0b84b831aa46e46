package session_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/medqbank/qbank/internal/qbank"
	"github.com/medqbank/qbank/internal/session"
)

func makePool(n int) []qbank.Question {
	pool := make([]qbank.Question, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, qbank.Question{
			ID:     fmt.Sprintf("Renal-%d", i),
			System: "Renal",
			Stem:   fmt.Sprintf("question %d", i),
			Options: map[string]string{
				"A": "option a", "B": "option b", "C": "option c", "D": "option d",
			},
			Answer: "B",
		})
	}
	return pool
}

func start(t *testing.T, pool []qbank.Question, count int, mode session.Mode) *session.Session {
	t.Helper()
	s, err := session.Start("alice", pool, count, mode, []string{"All"}, time.Now())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestStart_SamplesDistinctQuestions(t *testing.T) {
	s := start(t, makePool(100), 20, session.ModeReading)

	if len(s.Questions) != 20 {
		t.Fatalf("expected 20 questions, got %d", len(s.Questions))
	}
	seen := map[string]bool{}
	for _, q := range s.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in sample", q.ID)
		}
		seen[q.ID] = true
	}
	if s.Index != 0 {
		t.Errorf("index = %d, want 0", s.Index)
	}
	if len(s.Answers) != 0 {
		t.Errorf("answers should start empty")
	}
	if s.Capped() != 0 {
		t.Errorf("capped = %d, want 0", s.Capped())
	}
}

func TestStart_CapsAtPoolSize(t *testing.T) {
	s := start(t, makePool(5), 20, session.ModeReading)
	if len(s.Questions) != 5 {
		t.Fatalf("expected all 5 pool questions, got %d", len(s.Questions))
	}
	if s.Capped() != 15 {
		t.Errorf("capped = %d, want 15", s.Capped())
	}
}

func TestStart_EmptyPool(t *testing.T) {
	_, err := session.Start("alice", nil, 10, session.ModeTest, nil, time.Now())
	if !errors.Is(err, session.ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
}

func TestAnswer_OverwritesWithoutDuplicates(t *testing.T) {
	s := start(t, makePool(3), 3, session.ModeReading)
	id := s.Questions[0].ID

	if err := s.Answer(id, "B"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Answer(id, "C"); err != nil {
		t.Fatalf("re-Answer: %v", err)
	}
	if s.Answers[id] != "C" {
		t.Errorf("answer = %q, want C", s.Answers[id])
	}
	if len(s.Answers) != 1 {
		t.Errorf("expected a single entry for %s, got %d answers", id, len(s.Answers))
	}
}

func TestAnswer_Validation(t *testing.T) {
	s := start(t, makePool(2), 2, session.ModeReading)

	if err := s.Answer(s.Questions[0].ID, "E"); !errors.Is(err, session.ErrInvalidOption) {
		t.Errorf("err = %v, want ErrInvalidOption", err)
	}
	if err := s.Answer("Cardiology-99", "A"); !errors.Is(err, session.ErrUnknownQuestion) {
		t.Errorf("err = %v, want ErrUnknownQuestion", err)
	}
}

func TestNavigate_Bounds(t *testing.T) {
	s := start(t, makePool(3), 3, session.ModeReading)

	if err := s.Prev(); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if s.Index != 0 {
		t.Errorf("Prev at 0 moved index to %d", s.Index)
	}

	if err := s.Jump(5); !errors.Is(err, session.ErrOutOfRange) {
		t.Errorf("Jump(5) err = %v, want ErrOutOfRange", err)
	}
	if err := s.Jump(-1); !errors.Is(err, session.ErrOutOfRange) {
		t.Errorf("Jump(-1) err = %v, want ErrOutOfRange", err)
	}

	if err := s.Jump(2); err != nil {
		t.Fatalf("Jump(2): %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next at last: %v", err)
	}
	if !s.Completed {
		t.Error("Next at last index should complete the session")
	}
	if s.Index != 2 {
		t.Errorf("index = %d, must stay in bounds after completing Next", s.Index)
	}
}

func TestToggleMark_Idempotent(t *testing.T) {
	s := start(t, makePool(2), 2, session.ModeReading)
	id := s.Questions[1].ID

	if err := s.ToggleMark(id); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if !s.Marked[id] {
		t.Fatal("expected marked")
	}
	if err := s.ToggleMark(id); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if s.Marked[id] {
		t.Fatal("expected unmarked after second toggle")
	}
}

func TestTick_ForcesCompletionAtDeadline(t *testing.T) {
	startAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := session.Start("alice", makePool(2), 2, session.ModeTest, nil, startAt)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// budget = 2 x 90s = 180s
	if s.Tick(startAt.Add(179 * time.Second)) {
		t.Fatal("tick before the deadline must not complete")
	}
	if got := s.Remaining(startAt.Add(179 * time.Second)); got != time.Second {
		t.Errorf("remaining = %v, want 1s", got)
	}
	if !s.Tick(startAt.Add(181 * time.Second)) {
		t.Fatal("tick past the deadline must force completion")
	}
	if !s.Completed {
		t.Fatal("session should be completed")
	}
	if got := s.Remaining(startAt.Add(200 * time.Second)); got != 0 {
		t.Errorf("remaining = %v, want 0 (never negative)", got)
	}
}

func TestTick_ReadingModeNeverExpires(t *testing.T) {
	startAt := time.Now()
	s, err := session.Start("alice", makePool(1), 1, session.ModeReading, nil, startAt)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Tick(startAt.Add(24 * time.Hour)) {
		t.Fatal("reading mode has no deadline")
	}
}

func TestScore(t *testing.T) {
	s := start(t, makePool(4), 4, session.ModeTest)
	_ = s.Answer(s.Questions[0].ID, "B") // correct
	_ = s.Answer(s.Questions[1].ID, "A") // wrong
	_ = s.Answer(s.Questions[2].ID, "B") // correct

	correct, pct := s.Score()
	if correct != 2 {
		t.Errorf("correct = %d, want 2", correct)
	}
	if pct != 50 {
		t.Errorf("percent = %v, want 50", pct)
	}
}

func TestScore_ZeroQuestions(t *testing.T) {
	s := &session.Session{Answers: map[string]string{}}
	correct, pct := s.Score()
	if correct != 0 || pct != 0 {
		t.Errorf("score of empty session = (%d, %v), want (0, 0)", correct, pct)
	}
}

func TestComplete_ExactlyOnce(t *testing.T) {
	s := start(t, makePool(2), 2, session.ModeReading)
	if err := s.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := s.Complete(); !errors.Is(err, session.ErrCompleted) {
		t.Errorf("second Complete err = %v, want ErrCompleted", err)
	}
	if err := s.Answer(s.Questions[0].ID, "A"); !errors.Is(err, session.ErrCompleted) {
		t.Errorf("Answer after completion err = %v, want ErrCompleted", err)
	}
}
