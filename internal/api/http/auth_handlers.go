package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/progress"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupHandler creates the user row plus an empty progress row, mirroring
// account creation in the legacy store.
func SignupHandler(users *auth.Users, progs *progress.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", 400)
			return
		}
		if err := users.Create(r.Context(), req.Username, req.Password); err != nil {
			writeError(w, err)
			return
		}
		if err := progs.Save(r.Context(), req.Username, progress.New()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func LoginHandler(users *auth.Users, a *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := users.Verify(r.Context(), req.Username, req.Password); err != nil {
			writeError(w, err)
			return
		}
		tok, err := a.IssueJWT(req.Username)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		writeJSON(w, map[string]string{"access_token": tok})
	}
}
