package http

import (
	"net/http"

	"github.com/medqbank/qbank/internal/analytics"
	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/progress"
	"github.com/medqbank/qbank/internal/qbank"
	"github.com/medqbank/qbank/internal/session"
)

// HistoryHandler lists a user's test records, newest first.
// GET /tests/history?limit=50&offset=0
func HistoryHandler(sessions *session.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		list, err := sessions.ListHistory(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		if offset < 0 {
			offset = 0
		}
		if offset > len(list) {
			offset = len(list)
		}
		list = list[offset:]
		if limit > 0 && limit < len(list) {
			list = list[:limit]
		}
		writeJSON(w, list)
	}
}

// SummaryHandler serves the analytics view over progress and history.
func SummaryHandler(bank *qbank.Bank, progs *progress.SQLStore, sessions *session.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		p, err := progs.Get(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		hist, err := sessions.ListHistory(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, analytics.Summarize(p, hist, bank.Len()))
	}
}
