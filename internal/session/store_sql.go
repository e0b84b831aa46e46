package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/medqbank/qbank/internal/qbank"
)

// payload is the JSON blob column of a tests row: everything needed to
// resume a session that isn't already a dedicated column.
type payload struct {
	Answers     map[string]string `json:"answers"`
	QuestionIDs []string          `json:"questions"`
	Index       int               `json:"index"`
	Marked      []string          `json:"marked"`
}

// Summary is one row of a user's test history.
type Summary struct {
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	Mode          Mode      `json:"mode"`
	QuestionCount int       `json:"question_count"`
	Score         int       `json:"score"`
	Systems       string    `json:"systems"`
	Completed     bool      `json:"completed"`
}

// SQLStore persists sessions as denormalized tests rows, one per session,
// upserted in place as the session progresses.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Save upserts the session's row. Timestamps are always written in the
// canonical format; the completed flag is stored stringified for row
// compatibility with the legacy store.
func (s *SQLStore) Save(ctx context.Context, sess *Session) error {
	ids := make([]string, len(sess.Questions))
	for i, q := range sess.Questions {
		ids[i] = q.ID
	}
	marked := make([]string, 0, len(sess.Marked))
	for id := range sess.Marked {
		marked = append(marked, id)
	}
	sort.Strings(marked)
	blob, err := json.Marshal(payload{
		Answers:     sess.Answers,
		QuestionIDs: ids,
		Index:       sess.Index,
		Marked:      marked,
	})
	if err != nil {
		return err
	}
	score, _ := sess.Score()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (session_id, username, created_at, mode, question_count, score, systems, payload_json, completed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (session_id) DO UPDATE SET
		   score=EXCLUDED.score,
		   payload_json=EXCLUDED.payload_json,
		   completed=EXCLUDED.completed`,
		sess.ID, sess.User, FormatTime(sess.StartedAt), string(sess.Mode),
		len(sess.Questions), score, strings.Join(sess.Systems, ","),
		string(blob), strconv.FormatBool(sess.Completed))
	return err
}

// LoadIncomplete reconstructs the user's most recent incomplete session, or
// returns (nil, nil) when there is none. Stored question IDs are re-resolved
// against the live bank; an ID that no longer resolves degrades to a
// placeholder question rather than failing the resume.
func (s *SQLStore) LoadIncomplete(ctx context.Context, user string, bank *qbank.Bank) (*Session, error) {
	rows, err := s.queryUser(ctx, user)
	if err != nil {
		return nil, err
	}
	var latest *testRow
	for i := range rows {
		if rows[i].completed {
			continue
		}
		if latest == nil || rows[i].createdAt.After(latest.createdAt) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	return s.rebuild(user, *latest, bank), nil
}

func (s *SQLStore) rebuild(user string, r testRow, bank *qbank.Bank) *Session {
	var p payload
	if err := json.Unmarshal([]byte(r.payloadJSON), &p); err != nil {
		p = payload{} // malformed blob degrades to an empty session body
	}
	if p.Answers == nil {
		p.Answers = map[string]string{}
	}
	qs := make([]qbank.Question, 0, len(p.QuestionIDs))
	for _, id := range p.QuestionIDs {
		q, ok := bank.ByID(id)
		if !ok {
			q = placeholder(id)
		}
		qs = append(qs, q)
	}
	marked := make(map[string]bool, len(p.Marked))
	for _, id := range p.Marked {
		marked[id] = true
	}
	idx := p.Index
	if idx < 0 || idx >= len(qs) {
		idx = 0
	}
	return &Session{
		ID:        r.sessionID,
		User:      user,
		Mode:      Mode(r.mode),
		Systems:   splitSystems(r.systems),
		Questions: qs,
		Answers:   p.Answers,
		Marked:    marked,
		Index:     idx,
		StartedAt: r.createdAt,
		Completed: r.completed,
	}
}

// Load reconstructs one stored session by ID for read-only review. It only
// returns rows owned by user.
func (s *SQLStore) Load(ctx context.Context, user, sessionID string, bank *qbank.Bank) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, mode, question_count, score, systems, payload_json, completed
		   FROM tests WHERE session_id=$1 AND username=$2`, sessionID, user)
	var r testRow
	var created, completed string
	if err := row.Scan(&r.sessionID, &created, &r.mode, &r.questionCount,
		&r.score, &r.systems, &r.payloadJSON, &completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.createdAt = ParseStoredTime(created)
	r.completed = ParseStoredBool(completed)
	return s.rebuild(user, r, bank), nil
}

// ListHistory returns the user's test summaries, newest first. Unparseable
// created_at values get the zero time and therefore sort last.
func (s *SQLStore) ListHistory(ctx context.Context, user string) ([]Summary, error) {
	rows, err := s.queryUser(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{
			SessionID:     r.sessionID,
			CreatedAt:     r.createdAt,
			Mode:          Mode(r.mode),
			QuestionCount: r.questionCount,
			Score:         r.score,
			Systems:       r.systems,
			Completed:     r.completed,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type testRow struct {
	sessionID     string
	createdAt     time.Time
	mode          string
	questionCount int
	score         int
	systems       string
	payloadJSON   string
	completed     bool
}

func (s *SQLStore) queryUser(ctx context.Context, user string) ([]testRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, created_at, mode, question_count, score, systems, payload_json, completed
		   FROM tests WHERE username=$1`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []testRow
	for rows.Next() {
		var r testRow
		var created, completed string
		if err := rows.Scan(&r.sessionID, &created, &r.mode, &r.questionCount,
			&r.score, &r.systems, &r.payloadJSON, &completed); err != nil {
			return nil, err
		}
		r.createdAt = ParseStoredTime(created)
		r.completed = ParseStoredBool(completed)
		out = append(out, r)
	}
	return out, rows.Err()
}

// placeholder stands in for a stored question whose ID no longer resolves
// against the loaded bank. This is a tolerated data-loss path: the question
// set may have changed between sessions.
func placeholder(id string) qbank.Question {
	return qbank.Question{
		ID:      id,
		System:  "Unknown",
		Stem:    "This question is no longer available.",
		Options: map[string]string{"A": "Unavailable"},
		Answer:  "A",
	}
}

func splitSystems(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
