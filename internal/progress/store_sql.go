package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// SQLStore reads and writes one progress row per user. All four sets live in
// a single row, so a save is atomic at the row level: the sets update
// together or not at all.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Get returns the stored record, creating and persisting an empty one if the
// user has none yet.
func (s *SQLStore) Get(ctx context.Context, user string) (Progress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT used_json, correct_json, incorrect_json, marked_json FROM progress WHERE username=$1`, user)
	var uj, cj, ij, mj string
	err := row.Scan(&uj, &cj, &ij, &mj)
	if err == sql.ErrNoRows {
		p := New()
		if err := s.Save(ctx, user, p); err != nil {
			return Progress{}, fmt.Errorf("create progress row: %w", err)
		}
		return p, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		Used:      setFromJSON(uj),
		Correct:   setFromJSON(cj),
		Incorrect: setFromJSON(ij),
		Marked:    setFromJSON(mj),
	}, nil
}

// Save overwrites all four sets in one upsert.
func (s *SQLStore) Save(ctx context.Context, user string, p Progress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (username, used_json, correct_json, incorrect_json, marked_json)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (username) DO UPDATE SET
		   used_json=EXCLUDED.used_json,
		   correct_json=EXCLUDED.correct_json,
		   incorrect_json=EXCLUDED.incorrect_json,
		   marked_json=EXCLUDED.marked_json`,
		user, setToJSON(p.Used), setToJSON(p.Correct), setToJSON(p.Incorrect), setToJSON(p.Marked))
	return err
}

// setFromJSON tolerates a malformed stored array by degrading to an empty
// set; progress rows were hand-editable in the legacy store.
func setFromJSON(s string) map[string]bool {
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func setToJSON(set map[string]bool) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b, _ := json.Marshal(ids)
	return string(b)
}
