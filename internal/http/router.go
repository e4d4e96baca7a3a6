// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbourn/go-workout-backend/internal/config"
	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/http/handlers"
	"github.com/tbourn/go-workout-backend/internal/http/middleware"
	"github.com/tbourn/go-workout-backend/internal/repo"
	"github.com/tbourn/go-workout-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// workoutRepoShim adapts the repository free functions to the
// services.WorkoutRepo interface expected by the WorkoutService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type workoutRepoShim struct{}

// CreateWorkout proxies repo.CreateWorkout.
func (workoutRepoShim) CreateWorkout(ctx context.Context, db *gorm.DB, userID string, name *string, date string) (*domain.Workout, error) {
	return repo.CreateWorkout(ctx, db, userID, name, date)
}

// GetWorkout proxies repo.GetWorkout.
func (workoutRepoShim) GetWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error) {
	return repo.GetWorkout(ctx, db, id, userID)
}

// ListWorkoutsByDate proxies repo.ListWorkoutsByDate.
func (workoutRepoShim) ListWorkoutsByDate(ctx context.Context, db *gorm.DB, userID, date string) ([]domain.Workout, error) {
	return repo.ListWorkoutsByDate(ctx, db, userID, date)
}

// UpdateWorkout proxies repo.UpdateWorkout.
func (workoutRepoShim) UpdateWorkout(ctx context.Context, db *gorm.DB, id, userID string, name *string, date string) error {
	return repo.UpdateWorkout(ctx, db, id, userID, name, date)
}

// DeleteWorkout proxies repo.DeleteWorkout.
func (workoutRepoShim) DeleteWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error) {
	return repo.DeleteWorkout(ctx, db, id, userID)
}

// exerciseRepoShim adapts the exercise repository free functions to the
// services.ExerciseRepo interface expected by the ExerciseService.
type exerciseRepoShim struct{}

// CreateExercise proxies repo.CreateExercise.
func (exerciseRepoShim) CreateExercise(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	return repo.CreateExercise(ctx, db, userID, name)
}

// ListExercises proxies repo.ListExercises.
func (exerciseRepoShim) ListExercises(ctx context.Context, db *gorm.DB, userID string) ([]domain.Exercise, error) {
	return repo.ListExercises(ctx, db, userID)
}

// GetExerciseByName proxies repo.GetExerciseByName.
func (exerciseRepoShim) GetExerciseByName(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	return repo.GetExerciseByName(ctx, db, userID, name)
}

// CountExercises proxies repo.CountExercises (pagination support).
func (exerciseRepoShim) CountExercises(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountExercises(ctx, db, userID)
}

// ListExercisesPage proxies repo.ListExercisesPage (pagination support).
func (exerciseRepoShim) ListExercisesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Exercise, error) {
	return repo.ListExercisesPage(ctx, db, userID, offset, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and
// rate limiting, compression, CORS and security headers, health and metrics
// endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. gzip, CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scopeID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scopeID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) Response compression for list-heavy endpoints
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	workoutSvc := services.NewWorkoutService(db, workoutRepoShim{})
	exerciseSvc := services.NewExerciseService(db, exerciseRepoShim{})
	aggSvc := &services.WorkoutExerciseService{
		DB:      db,
		Catalog: exerciseSvc,
		IdemTTL: cfg.IdempotencyTTL,
	}
	h := handlers.New(workoutSvc, exerciseSvc, aggSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Workouts
		api.POST("/workouts", h.CreateWorkout)
		api.GET("/workouts", h.ListWorkouts)
		api.GET("/workouts/:id", h.GetWorkout)
		api.PUT("/workouts/:id", h.UpdateWorkout)
		api.DELETE("/workouts/:id", h.DeleteWorkout)

		// Workout exercises
		api.POST("/workouts/:id/exercises", h.AddExercise)
		api.DELETE("/workout-exercises/:id", h.RemoveExercise)

		// Sets
		api.POST("/workout-exercises/:id/sets", h.AddSet)
		api.DELETE("/sets/:id", h.RemoveSet)

		// Exercise library
		api.GET("/exercises", h.ListExercises)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
