package http

import (
	"net/http"

	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/progress"
	"github.com/medqbank/qbank/internal/qbank"
)

// SystemsHandler feeds the create-test UI its category choices.
func SystemsHandler(bank *qbank.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"systems": bank.Systems(),
			"total":   bank.Len(),
		})
	}
}

// PoolCountHandler reports how many questions the given filters would leave,
// so the UI can warn before a capped or empty test.
// GET /pool/count?systems=a,b&filters=Unused,Marked
func PoolCountHandler(bank *qbank.Bank, progs *progress.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		p, err := progs.Get(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		pool := qbank.Filter(bank.All(),
			csvParam(r, "systems"), csvParam(r, "filters"), p)
		writeJSON(w, map[string]int{"count": len(pool)})
	}
}

func csvParam(r *http.Request, key string) []string {
	return splitCSV(r.URL.Query().Get(key))
}
