package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/pathforge/pathforge/internal/access"
	api "github.com/pathforge/pathforge/internal/api/http"
	"github.com/pathforge/pathforge/internal/audit"
	auth "github.com/pathforge/pathforge/internal/auth/middleware"
	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/db"
	"github.com/pathforge/pathforge/internal/progress"
	"github.com/pathforge/pathforge/internal/quiz"
	"github.com/pathforge/pathforge/internal/rbac"
	"github.com/pathforge/pathforge/internal/results"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Stores & core services ---
	currStore := curriculum.NewSQLStore(dbh)
	progStore := progress.NewSQLStore(dbh)
	resStore := results.NewSQLStore(dbh)
	grants := access.NewSQLGrantStore(dbh)
	events := audit.NewEventRepo(dbh)
	perms := rbac.NewDBPermissionSource(dbh, nil)

	tracker := progress.NewTracker(currStore, progStore, resStore, events)
	governor := access.NewGovernor(perms, grants, currStore, tracker, resStore)
	engine := quiz.NewEngine(governor, currStore, resStore, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AdminUser, cfg.AdminPassHash))

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.ClaimRoleFallback))

		// Curriculum authoring (mentor)
		pr.With(rbac.Require("path:create")).Post("/paths", api.CreatePathHandler(currStore))
		pr.With(rbac.Require("path:view")).Get("/paths", api.ListPathsHandler(currStore))
		pr.With(rbac.Require("path:view")).Get("/paths/{pathID}", api.GetPathHandler(currStore))
		pr.With(rbac.Require("test:create")).Post("/tests", api.CreateTestHandler(currStore))
		pr.With(rbac.Require("test:view")).Get("/tests/{testID}", api.GetTestHandler(currStore))

		// Progression (mentor writes, both read)
		pr.With(rbac.Require("path:assign")).
			Post("/trainees/{traineeID}/path", api.AssignPathHandler(tracker))
		pr.With(rbac.Require("stage:open")).
			Post("/instances/{instanceID}/stages/{stageID}/open", api.OpenStageHandler(tracker))
		pr.With(rbac.Require("progress:view-all")).
			Get("/instances/{instanceID}/status", api.InstanceStatusHandler(tracker))
		pr.With(rbac.Require("progress:view-own")).
			Get("/me/status", api.MyStatusHandler(tracker, progStore))

		// Ad-hoc access grants (mentor)
		pr.With(rbac.Require("test:grant")).Post("/grants", api.GrantAccessHandler(grants, events))
		pr.With(rbac.Require("test:grant")).
			Delete("/grants/{traineeID}/{testID}", api.RevokeAccessHandler(grants, events))

		// Quiz flow (trainee)
		pr.With(rbac.Require("test:take")).Post("/attempts", api.StartAttemptHandler(engine))
		pr.With(rbac.Require("test:take")).
			Get("/attempts/{attemptID}/question", api.CurrentQuestionHandler(engine))
		pr.With(rbac.Require("test:take")).
			Post("/attempts/{attemptID}/answer", api.SubmitAnswerHandler(engine))
		pr.With(rbac.Require("test:take")).
			Delete("/attempts/{attemptID}", api.AbortAttemptHandler(engine))

		// Results
		pr.With(rbac.Require("result:view-own")).Get("/me/results", api.MyResultsHandler(resStore))
		pr.With(rbac.Require("result:view-all")).
			Get("/trainees/{traineeID}/results", api.TraineeResultsHandler(resStore))

		// Users (mentor/admin)
		pr.With(rbac.Require("users:bulk_upsert")).Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
