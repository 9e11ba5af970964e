package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	api "github.com/pupilpath/quizcore/internal/api/http"
	"github.com/pupilpath/quizcore/internal/auth"
	"github.com/pupilpath/quizcore/internal/config"
	"github.com/pupilpath/quizcore/internal/content"
	"github.com/pupilpath/quizcore/internal/db"
	"github.com/pupilpath/quizcore/internal/feedback"
	"github.com/pupilpath/quizcore/internal/quiz"
	"github.com/pupilpath/quizcore/internal/store"
	syncx "github.com/pupilpath/quizcore/internal/sync"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local quiz API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(dbCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	st := store.NewSQLStore(dbh)
	pool := feedback.NewPool()
	if cfg.FeedbackPoolPath != "" {
		if err := pool.LoadFile(cfg.FeedbackPoolPath); err != nil {
			log.Printf("feedback pool: %v (using defaults)", err)
		}
	}
	eng := quiz.NewEngine(content.NewLoader(), st,
		quiz.WithFeedbackPool(pool),
		quiz.WithRewardSink(logRewardSink{}),
	)
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	uploadCtx, stopUpload := context.WithCancel(ctx)
	defer stopUpload()
	if cfg.SyncEndpoint != "" {
		up := syncx.NewUploader(syncx.NewEventRepo(dbh), cfg.SyncEndpoint)
		go up.Run(uploadCtx, time.Minute, 50)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, st))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Post("/sessions", api.StartSessionHandler(eng))
		pr.Route("/sessions/{sessionID}", func(sr chi.Router) {
			sr.Get("/", api.GetSessionHandler(eng))
			sr.Delete("/", api.DropSessionHandler(eng))
			sr.Post("/unlock", api.UnlockHandler(eng))
			sr.Post("/answer", api.SelectAnswerHandler(eng))
			sr.Post("/toggle", api.ToggleChoiceHandler(eng))
			sr.Post("/text", api.EnumerationTextHandler(eng))
			sr.Post("/next", api.NextHandler(eng))
			sr.Post("/back", api.BackHandler(eng))
			sr.Post("/jump", api.JumpHandler(eng))
		})

		pr.Get("/scores", api.ListScoresHandler(st))
		pr.Get("/lessons/{lessonID}", api.LessonHandler(st))
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		log.Println("shutting down")
	case <-ctx.Done():
		log.Println("context canceled, shutting down")
	}

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	return server.Shutdown(shutdownCtx)
}

// logRewardSink stands in for the badge animation the mobile shell plays on a
// perfect score.
type logRewardSink struct{}

func (logRewardSink) RewardEarned(quizID string) {
	log.Printf("reward earned for quiz %s", quizID)
}
