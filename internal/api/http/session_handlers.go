package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/progress"
	"github.com/medqbank/qbank/internal/qbank"
	"github.com/medqbank/qbank/internal/session"
)

// Deps carries everything the test-flow handlers touch. One active session
// per user lives in Manager; the store holds the durable record.
type Deps struct {
	Bank     *qbank.Bank
	Manager  *session.Manager
	Sessions *session.SQLStore
	Progress *progress.SQLStore
}

func StartTestHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		var req struct {
			Count   int      `json:"count"`
			Mode    string   `json:"mode"`
			Systems []string `json:"systems"`
			Filters []string `json:"filters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Count <= 0 {
			http.Error(w, "count must be positive", 400)
			return
		}
		mode, err := session.ParseMode(req.Mode)
		if err != nil {
			writeError(w, err)
			return
		}
		p, err := d.Progress.Get(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		pool := qbank.Filter(d.Bank.All(), req.Systems, req.Filters, p)
		sess, err := session.Start(user, pool, req.Count, mode, req.Systems, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		d.Manager.Put(user, sess)
		flush(r.Context(), d, sess)
		writeJSON(w, newSessionView(sess, time.Now()))
	}
}

// ActiveTestHandler returns the in-memory session, or resumes the most
// recent incomplete record from the store.
func ActiveTestHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		sess, err := activeSession(r.Context(), d, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if timedOut(r.Context(), d, sess) {
			writeJSON(w, newReviewView(sess))
			return
		}
		writeJSON(w, newSessionView(sess, time.Now()))
	}
}

func AnswerHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		var req struct {
			QuestionID string `json:"question_id"`
			Choice     string `json:"choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, err := activeSession(r.Context(), d, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if timedOut(r.Context(), d, sess) {
			writeJSON(w, newReviewView(sess))
			return
		}
		if err := sess.Answer(req.QuestionID, req.Choice); err != nil {
			writeError(w, err)
			return
		}
		flush(r.Context(), d, sess)
		// In reading mode the recorded answer unlocks feedback, which the
		// refreshed question view now carries.
		q, _ := sess.Find(req.QuestionID)
		writeJSON(w, newQuestionView(sess, q))
	}
}

func NavigateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		var req struct {
			Direction string `json:"direction,omitempty"` // next|prev
			Index     *int   `json:"index,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, err := activeSession(r.Context(), d, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if timedOut(r.Context(), d, sess) {
			writeJSON(w, newReviewView(sess))
			return
		}
		switch {
		case req.Index != nil:
			err = sess.Jump(*req.Index)
		case req.Direction == "prev":
			err = sess.Prev()
		case req.Direction == "next":
			err = sess.Next()
		default:
			http.Error(w, "direction or index required", 400)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if sess.Completed {
			// Next at the last question ends the test.
			finalize(r.Context(), d, sess)
			writeJSON(w, newReviewView(sess))
			return
		}
		flush(r.Context(), d, sess)
		writeJSON(w, newSessionView(sess, time.Now()))
	}
}

func MarkHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		var req struct {
			QuestionID string `json:"question_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, err := activeSession(r.Context(), d, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if timedOut(r.Context(), d, sess) {
			writeJSON(w, newReviewView(sess))
			return
		}
		if err := sess.ToggleMark(req.QuestionID); err != nil {
			writeError(w, err)
			return
		}
		flush(r.Context(), d, sess)
		writeJSON(w, map[string]bool{"marked": sess.Marked[req.QuestionID]})
	}
}

func CompleteTestHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		sess, err := activeSession(r.Context(), d, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if !sess.Completed {
			if err := sess.Complete(); err != nil {
				writeError(w, err)
				return
			}
		}
		finalize(r.Context(), d, sess)
		writeJSON(w, newReviewView(sess))
	}
}

// ReviewTestHandler replays a stored session read-only.
func ReviewTestHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		sess, err := d.Sessions.Load(r.Context(), user, chi.URLParam(r, "sessionID"), d.Bank)
		if err != nil {
			writeError(w, err)
			return
		}
		if sess == nil {
			writeError(w, ErrNoSession)
			return
		}
		writeJSON(w, newReviewView(sess))
	}
}

// activeSession finds the user's session in memory first, then tries to
// resume the newest incomplete record.
func activeSession(ctx context.Context, d Deps, user string) (*session.Session, error) {
	if sess, ok := d.Manager.Get(user); ok {
		return sess, nil
	}
	sess, err := d.Sessions.LoadIncomplete(ctx, user, d.Bank)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	d.Manager.Put(user, sess)
	return sess, nil
}

// timedOut applies the test-mode deadline before any other action and
// finalizes the session when the clock ran out.
func timedOut(ctx context.Context, d Deps, sess *session.Session) bool {
	if !sess.Tick(time.Now()) {
		return false
	}
	finalize(ctx, d, sess)
	return true
}

// flush persists in-progress state best-effort: a failed write is logged and
// the user keeps working from memory; the next action writes again.
func flush(ctx context.Context, d Deps, sess *session.Session) {
	if err := d.Sessions.Save(ctx, sess); err != nil {
		log.Printf("session %s: flush failed: %v", sess.ID, err)
	}
}

// finalize records outcomes into the user's progress sets (latest outcome
// wins), merges session marks, persists the final record and releases the
// in-memory slot.
func finalize(ctx context.Context, d Deps, sess *session.Session) {
	p, err := d.Progress.Get(ctx, sess.User)
	if err != nil {
		log.Printf("session %s: load progress: %v", sess.ID, err)
		p = progress.New()
	}
	for _, q := range sess.Questions {
		p.Record(q.ID, sess.Answers[q.ID] == q.Answer)
	}
	for id := range sess.Marked {
		p.SetMark(id, true)
	}
	if err := d.Progress.Save(ctx, sess.User, p); err != nil {
		log.Printf("session %s: save progress: %v", sess.ID, err)
	}
	flush(ctx, d, sess)
	d.Manager.Drop(sess.User)
}
