package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/session"
)

// ErrNoSession is returned when the user has no active test, in memory or in
// the store.
var ErrNoSession = errors.New("no active test session")

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the single place that maps the error taxonomy to HTTP
// statuses. Everything unmatched is treated as the store being unavailable:
// fatal for this request, never for the process.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUserExists),
		errors.Is(err, session.ErrCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrEmptyPool),
		errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, session.ErrOutOfRange),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrInvalidMode):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "store unavailable: "+err.Error(), http.StatusServiceUnavailable)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
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
