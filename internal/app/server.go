package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/dreammend/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/dreammend/internal/api/middlewares"
	"github.com/markdave123-py/dreammend/internal/config"
	"github.com/markdave123-py/dreammend/internal/metrics"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes carries everything the router needs.
type Routes struct {
	Auth        *handlers.AuthHandler
	Profile     *handlers.ProfileHandler
	Chat        *handlers.ChatHandler
	Summary     *handlers.SummaryHandler
	DreamEntry  *handlers.DreamEntryHandler
	Tokens      appMiddleware.TokenParser
	Health      Pinger
	CORSOrigins []string
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(cfg *config.Config, logger *slog.Logger, routes Routes) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(logger, routes),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the chi router with every route.
func NewRouter(logger *slog.Logger, rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/health", health(rt.Health))
	r.Handle("/metrics", metrics.Handler())

	// public endpoints
	r.Post("/signup", rt.Auth.Signup)
	r.Post("/login", rt.Auth.Login)
	r.Post("/verify-token", rt.Auth.VerifyToken)
	r.Post("/forgot-password", rt.Auth.ForgotPassword)
	r.Post("/check-code", rt.Auth.CheckCode)
	r.Post("/reset-password", rt.Auth.ResetPassword)

	// internal summary endpoints, called by the pipeline and tooling
	r.Post("/summary", rt.Summary.CreateSummary)
	r.Post("/summary/select/{summary_id}", rt.Summary.SelectSummary)

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(appMiddleware.JWTMiddleware(rt.Tokens))

		protected.Post("/home", rt.Auth.Home)
		protected.Get("/user", rt.Auth.CurrentUser)

		protected.Get("/profile", rt.Profile.GetProfile)
		protected.Post("/profile", rt.Profile.GetProfile)
		protected.Patch("/profile", rt.Profile.UpdateProfile)
		protected.Post("/verify-email", rt.Profile.VerifyEmail)
		protected.Patch("/profile/image", rt.Profile.UploadImage)

		protected.Post("/conversations", rt.Chat.StartConversation)
		protected.Post("/messages", rt.Chat.SendMessage)
		protected.Get("/export_chat/{conversation_id}", rt.Chat.ExportChat)

		protected.Post("/migrate_summaries_to_dream_entries", rt.Summary.Migrate)

		protected.Get("/dreamEntries", rt.DreamEntry.List)
		protected.Post("/dreamEntries", rt.DreamEntry.Create)
		protected.Put("/dreamEntries/{entry_id}", rt.DreamEntry.Update)
		protected.Delete("/dreamEntries/{entry_id}", rt.DreamEntry.Delete)
		protected.Get("/dreamEntries/{entry_id}/similar", rt.DreamEntry.Similar)
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
