package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/cookoff-engine/internal/challenge"
	"github.com/terra-clan/cookoff-engine/internal/config"
	"github.com/terra-clan/cookoff-engine/internal/health"
	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ratelimit"
	"github.com/terra-clan/cookoff-engine/internal/storage"
	"github.com/terra-clan/cookoff-engine/internal/vocab"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	service        *challenge.Service
	vocabulary     *vocab.Loader
	health         *health.Registry
	authMiddleware *AuthMiddleware
	limiter        *ratelimit.KeyedRateLimiter
	addrLimiter    *ratelimit.KeyedRateLimiter
	validator      *Validator
	streamInterval time.Duration
}

// ServerOption configures optional server behaviour
type ServerOption func(*Server)

// WithRateLimiter throttles every authenticated client separately
func WithRateLimiter(l *ratelimit.KeyedRateLimiter) ServerOption {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithAddressRateLimiter throttles every remote address before its API key
// is checked, so requests with bad keys are limited too
func WithAddressRateLimiter(l *ratelimit.KeyedRateLimiter) ServerOption {
	return func(s *Server) {
		s.addrLimiter = l
	}
}

// WithStreamInterval sets how often live leaderboards are recomputed
func WithStreamInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	service *challenge.Service,
	vocabulary *vocab.Loader,
	repo storage.Repository,
	registry *health.Registry,
	opts ...ServerOption,
) *Server {
	s := &Server{
		config:         cfg,
		service:        service,
		vocabulary:     vocabulary,
		health:         registry,
		authMiddleware: NewAuthMiddleware(repo),
		validator:      NewValidator(),
		streamInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		if s.addrLimiter != nil {
			r.Use(rateLimitMiddleware(s.addrLimiter, addressRateLimitKey))
		}
		r.Use(s.authMiddleware.Authenticate)
		if s.limiter != nil {
			r.Use(rateLimitMiddleware(s.limiter, clientRateLimitKey))
		}

		r.Use(requestTimeout(60 * time.Second))

		perm := s.authMiddleware.RequirePermission

		r.Route("/challenges", func(r chi.Router) {
			r.With(perm(models.PermChallengesRead)).Get("/", s.handleListChallenges)
			r.With(perm(models.PermChallengesWrite)).Post("/", s.handleCreateChallenge)

			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(models.PermChallengesRead)).Get("/", s.handleGetChallenge)
				r.With(perm(models.PermChallengesRead)).Get("/submissions", s.handleListSubmissions)
				r.With(perm(models.PermChallengesWrite)).Post("/submissions", s.handleSubmit)
				r.With(perm(models.PermChallengesRead)).Get("/leaderboard", s.handleLeaderboard)
				r.With(perm(models.PermChallengesRead)).Get("/leaderboard/stream", s.handleLeaderboardStream)
				r.With(perm(models.PermChallengesRead)).Get("/best", s.handleBestSubmissions)
				r.With(perm(models.PermChallengesRead)).Get("/top", s.handleTop)
			})
		})

		r.Route("/recipes", func(r chi.Router) {
			r.With(perm(models.PermRecipesRead)).Get("/discover", s.handleDiscover)
			r.With(perm(models.PermRecipesWrite)).Post("/", s.handleCreateRecipe)
			r.With(perm(models.PermRecipesRead)).Get("/{id}", s.handleGetRecipe)
			r.With(perm(models.PermRecipesWrite)).Post("/{id}/like", s.handleLikeRecipe)
			r.With(perm(models.PermRecipesWrite)).Post("/{id}/reviews", s.handleAddReview)
		})

		r.With(perm(models.PermRecipesRead)).Get("/filters", s.handleListFilters)

		r.With(perm(models.PermChallengesRead)).Get("/standings", s.handleStandings)
		r.With(perm(models.PermChallengesRead)).Get("/featured-winners", s.handleFeaturedWinners)
		r.With(perm(models.PermChallengesRead)).Get("/authors/{author}/badges", s.handleBadges)
		r.With(perm(models.PermAdminRollover)).Post("/rollover", s.handleRollover)

		// Stateless compute over caller-supplied snapshots
		r.With(perm(models.PermRankCompute)).Post("/rank/leaderboard", s.handleComputeLeaderboard)
		r.With(perm(models.PermRankCompute)).Post("/rank/best", s.handleComputeBest)
		r.With(perm(models.PermRankCompute)).Post("/discover", s.handleComputeDiscover)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// requestTimeout bounds request handling; websocket upgrades live as long
// as the connection and are left alone
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	timeout := middleware.Timeout(d)
	return func(next http.Handler) http.Handler {
		limited := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
