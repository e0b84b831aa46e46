package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/medqbank/qbank/internal/api/http"
	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/config"
	"github.com/medqbank/qbank/internal/db"
	"github.com/medqbank/qbank/internal/progress"
	"github.com/medqbank/qbank/internal/qbank"
	"github.com/medqbank/qbank/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- Questions (loaded once per process) ---
	bank, err := qbank.LoadDir(cfg.QuestionDir)
	if err != nil {
		log.Fatalf("load questions: %v", err)
	}
	if bank.Len() == 0 {
		log.Printf("warning: no questions loaded from %s", cfg.QuestionDir)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	users := auth.NewUsers(dbh)
	progs := progress.NewSQLStore(dbh)
	sessions := session.NewSQLStore(dbh)
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	deps := api.Deps{
		Bank:     bank,
		Manager:  session.NewManager(),
		Sessions: sessions,
		Progress: progs,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/signup", api.SignupHandler(users, progs))
	r.Post("/auth/login", api.LoginHandler(users, authSvc))

	// Authenticated test flow
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/systems", api.SystemsHandler(bank))
		pr.Get("/pool/count", api.PoolCountHandler(bank, progs))

		pr.Post("/tests", api.StartTestHandler(deps))
		pr.Get("/tests/active", api.ActiveTestHandler(deps))
		pr.Post("/tests/answer", api.AnswerHandler(deps))
		pr.Post("/tests/navigate", api.NavigateHandler(deps))
		pr.Post("/tests/mark", api.MarkHandler(deps))
		pr.Post("/tests/complete", api.CompleteTestHandler(deps))
		pr.Get("/tests/{sessionID}/review", api.ReviewTestHandler(deps))

		pr.Get("/tests/history", api.HistoryHandler(sessions))
		pr.Get("/summary", api.SummaryHandler(bank, progs, sessions))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, questions=%d)", cfg.HTTPAddr, cfg.DBDriver, bank.Len())
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
