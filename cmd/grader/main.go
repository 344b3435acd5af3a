package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/dnvaishnavi/automated-multimodal-grader/internal/api/http"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/arbiter"
	auth "github.com/dnvaishnavi/automated-multimodal-grader/internal/auth/middleware"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/config"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/db"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/nlp"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rbac"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/storage"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/store"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/symbolic"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/syncx"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/vision"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	repo := store.NewSQLRepo(dbh)
	events := syncx.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Grading engine (collaborators are optional; missing config degrades
	// to the heuristic-only path) ---
	var opts []grading.Option
	if cfg.NLIEndpoint != "" {
		opts = append(opts, grading.WithNLI(nlp.NewNLIClient(cfg.NLIEndpoint, cfg.InferenceKey, cfg.CollabTimeout)))
	}
	if cfg.EmbedEndpoint != "" {
		opts = append(opts, grading.WithEmbedder(nlp.NewEmbedClient(cfg.EmbedEndpoint, cfg.InferenceKey, cfg.CollabTimeout)))
	}
	if cfg.MathEndpoint != "" {
		opts = append(opts, grading.WithSymbolic(symbolic.NewClient(cfg.MathEndpoint, cfg.CollabTimeout)))
	}
	if cfg.ArbiterAPIKey != "" {
		arb, err := arbiter.NewClient(cfg.ArbiterAPIKey, cfg.ArbiterBaseURL, cfg.ArbiterModel)
		if err != nil {
			log.Fatalf("arbiter client: %v", err)
		}
		opts = append(opts, grading.WithArbiter(arb))
	}
	opts = append(opts, grading.WithCallTimeout(cfg.CollabTimeout))
	engine := grading.NewEngine(opts...)

	var extractor *vision.Extractor
	if cfg.GeminiAPIKey != "" {
		extractor, err = vision.NewExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("vision extractor: %v", err)
		}
	}

	// --- Auth (local JWT for offline/dev) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("test:publish")).
			Post("/tests", api.PublishTestHandler(repo, events))
		pr.With(rbac.Require("test:view")).
			Get("/tests/active", api.ActiveTestHandler(repo))
		pr.With(rbac.Require("rubric:extract")).
			Post("/tests/{testID}/extract-rubric", api.ExtractRubricHandler(extractor, bs))

		pr.With(rbac.Require("submission:create")).
			Post("/submissions", api.CreateSubmissionHandler(repo, extractor, bs, events))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions", api.ListSubmissionsHandler(repo))
		pr.With(rbac.Require("submission:assign")).
			Post("/submissions/{studentID}/{testID}/assign", api.AssignSubmissionHandler(repo))

		pr.With(rbac.Require("submission:grade")).
			Post("/submissions/{studentID}/{testID}/grade", api.GradeSubmissionHandler(repo, engine, events))
		pr.With(rbac.Require("submission:grade")).
			Post("/tests/{testID}/grade-all", api.GradeAllHandler(repo, engine, events, cfg.GradeWorkers))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
