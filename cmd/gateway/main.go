package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	api "github.com/peakprep/peakprep-lms/internal/api/http"
	auth "github.com/peakprep/peakprep-lms/internal/auth/middleware"
	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/config"
	"github.com/peakprep/peakprep-lms/internal/course"
	"github.com/peakprep/peakprep-lms/internal/db"
	"github.com/peakprep/peakprep-lms/internal/events"
	"github.com/peakprep/peakprep-lms/internal/exam"
	"github.com/peakprep/peakprep-lms/internal/flashcards"
	"github.com/peakprep/peakprep-lms/internal/grading"
	"github.com/peakprep/peakprep-lms/internal/rbac"
	"github.com/peakprep/peakprep-lms/internal/storage"
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
	if err := bootstrapAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassword); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	// --- Stores and services ---
	bankStore := bank.NewSQLStore(dbh)
	attempts := exam.NewSQLAttemptStore(dbh, cfg.DBDriver)
	blueprints := exam.NewSQLBlueprintStore(dbh)
	eventLog := events.NewLog(dbh)
	engine := exam.New(bank.NewProvider(bankStore), exam.WithEventSink(eventLog))

	cardStore := flashcards.NewSQLStore(dbh)
	cardSvc := flashcards.NewService(cardStore)

	courseStore := course.NewSQLStore(dbh)
	courseSvc := course.NewService(courseStore, bankStore, grading.NewDefaultGrader(),
		course.WithEventLog(eventLog))

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	attemptAPI := &api.AttemptAPI{Engine: engine, Attempts: attempts, Blueprints: blueprints}
	cardAPI := &api.FlashcardAPI{Store: cardStore, Service: cardSvc}
	courseAPI := &api.CourseAPI{Store: courseStore, Service: courseSvc, Bank: bankStore}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Protected API (JWT → DB role → RBAC).
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.AllowClaimRoleFallback))

		// Question bank (teacher authoring, student read).
		pr.With(rbac.Require("bank:edit")).Post("/questions", api.CreateQuestionHandler(bankStore))
		pr.With(rbac.Require("bank:view")).Get("/questions", api.ListQuestionsHandler(bankStore))
		pr.With(rbac.Require("bank:view")).Get("/questions/{questionID}", api.GetQuestionHandler(bankStore))
		pr.With(rbac.Require("bank:edit")).Delete("/questions/{questionID}", api.DeleteQuestionHandler(bankStore))
		pr.With(rbac.Require("bank:edit")).Post("/question-sets", api.CreateSetHandler(bankStore))
		pr.With(rbac.Require("bank:view")).Get("/question-sets", api.ListSetsHandler(bankStore))
		pr.With(rbac.Require("bank:view")).Get("/question-sets/{setID}", api.GetSetHandler(bankStore))

		// Blueprints.
		pr.With(rbac.Require("blueprint:create")).Post("/blueprints", api.CreateBlueprintHandler(blueprints, bankStore))
		pr.With(rbac.Require("blueprint:create")).Post("/blueprints/digital-sat", api.CreateDigitalSATHandler(blueprints, bankStore))
		pr.With(rbac.Require("blueprint:view")).Get("/blueprints", api.ListBlueprintsHandler(blueprints))
		pr.With(rbac.Require("blueprint:view")).Get("/blueprints/{blueprintID}", api.GetBlueprintHandler(blueprints))

		// Exam attempts.
		pr.With(rbac.Require("attempt:create")).Post("/attempts", attemptAPI.Create())
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts", attemptAPI.List())
		pr.With(rbac.Require("attempt:start")).Post("/attempts/{attemptID}/start", attemptAPI.Start())
		pr.With(rbac.Require("attempt:submit")).Post("/attempts/{attemptID}/modules/submit", attemptAPI.SubmitModule())
		pr.With(rbac.Require("attempt:flag")).Post("/attempts/{attemptID}/flag", attemptAPI.Flag())
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts/{attemptID}", attemptAPI.Get())
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts/{attemptID}/results", attemptAPI.Results())

		// Flashcards.
		pr.With(rbac.Require("flashcards:edit")).Post("/decks", cardAPI.CreateDeck)
		pr.With(rbac.Require("flashcards:view")).Get("/decks", cardAPI.ListDecks)
		pr.With(rbac.Require("flashcards:view")).Get("/decks/{deckID}", cardAPI.GetDeck)
		pr.With(rbac.Require("flashcards:edit")).Delete("/decks/{deckID}", cardAPI.DeleteDeck)
		pr.With(rbac.Require("flashcards:edit")).Post("/decks/{deckID}/cards", cardAPI.AddCard)
		pr.With(rbac.Require("flashcards:edit")).Delete("/decks/{deckID}/cards/{cardID}", cardAPI.DeleteCard)
		pr.With(rbac.Require("flashcards:study")).Get("/decks/{deckID}/due", cardAPI.Due)
		pr.With(rbac.Require("flashcards:study")).Post("/decks/{deckID}/cards/{cardID}/review", cardAPI.Review)

		// Courses and homework.
		pr.With(rbac.Require("course:edit")).Post("/courses", courseAPI.CreateCourse)
		pr.With(rbac.Require("course:view")).Get("/courses", courseAPI.ListCourses)
		pr.With(rbac.Require("course:view")).Get("/courses/{courseID}", courseAPI.GetCourse)
		pr.With(rbac.Require("course:edit")).Post("/courses/{courseID}/students", courseAPI.Enroll)
		pr.With(rbac.Require("course:edit")).Delete("/courses/{courseID}/students/{studentID}", courseAPI.Unenroll)
		pr.With(rbac.Require("course:edit")).Get("/courses/{courseID}/students", courseAPI.Roster)
		pr.With(rbac.Require("homework:assign")).Post("/courses/{courseID}/homework", courseAPI.AssignHomework)
		pr.With(rbac.Require("homework:view")).Get("/courses/{courseID}/homework", courseAPI.ListHomework)
		pr.With(rbac.Require("homework:view")).Get("/homework/{homeworkID}", courseAPI.GetHomework)
		pr.With(rbac.Require("homework:submit")).Post("/homework/{homeworkID}/submissions", courseAPI.SubmitHomework)
		pr.With(rbac.Require("homework:grade")).Get("/homework/{homeworkID}/submissions", courseAPI.ListSubmissions)
		pr.With(rbac.Require("homework:submit")).Get("/homework/{homeworkID}/submissions/mine", courseAPI.MySubmission)
		pr.With(rbac.Require("homework:grade")).Post("/submissions/{submissionID}/grade", courseAPI.GradeSubmission)

		// Users (teacher/admin).
		pr.With(rbac.Require("users:bulk_upsert")).Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).Post("/users/me/password", api.ChangePasswordHandler(dbh))

		// Event log tail for dashboards.
		pr.With(rbac.Require("events:read")).Get("/events", api.EventsHandler(eventLog))

		// Question assets.
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapAdmin creates the initial admin account when the users table is
// empty and a password is configured.
func bootstrapAdmin(ctx context.Context, dbh *sql.DB, username, password string) error {
	if password == "" {
		return nil
	}
	var one int
	err := dbh.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), username, string(hash), "admin", time.Now().Unix())
	if err == nil {
		log.Printf("created bootstrap admin %q", username)
	}
	return err
}
