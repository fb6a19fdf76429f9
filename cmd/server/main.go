package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kolmetry/kolmetry/internal/cache"
	"github.com/kolmetry/kolmetry/internal/database"
	"github.com/kolmetry/kolmetry/internal/errors"
	"github.com/kolmetry/kolmetry/internal/matching"
	"github.com/kolmetry/kolmetry/internal/monitoring"
	"github.com/kolmetry/kolmetry/internal/nomination"
	"github.com/kolmetry/kolmetry/internal/ratelimit"
	"github.com/kolmetry/kolmetry/internal/redisclient"
	"github.com/kolmetry/kolmetry/internal/registry"
	"github.com/kolmetry/kolmetry/internal/scopelock"
	"github.com/kolmetry/kolmetry/internal/scoring"
	"github.com/kolmetry/kolmetry/internal/types"
)

const version = "1.0.0"

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	lockTTL := getEnvDurationOrDefault("SCOPE_LOCK_TTL", 30*time.Second)
	cacheTTL := getEnvDurationOrDefault("SUGGESTION_CACHE_TTL", 10*time.Minute)

	// Initialize database
	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional: without it scope locks and rate limits fall back
	// to in-process state.
	redisClient, err := redisclient.New(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-process fallback", "error", err)
	}
	defer redisClient.Close()

	// Monitoring system
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Core services
	registryStore := registry.NewStore(db)
	nominationStore := nomination.NewStore(db)
	scoringStore := scoring.NewStore(db)
	engine := matching.NewEngine()
	suggestionCache := cache.NewSuggestionCache(cacheTTL)
	locks := scopelock.NewLocker(redisClient, lockTTL)

	nominationService := nomination.NewService(db, registryStore, nominationStore, engine,
		suggestionCache, locks, appLogger, appMetrics)
	scoringService := scoring.NewService(scoringStore, registryStore, locks, appLogger, appMetrics)

	rateLimiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig())

	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(rateLimiter.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnvOrDefault("CORS_ORIGIN", "http://localhost:3000")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		checks := map[string]string{"database": "ok", "redis": "disabled"}
		status := "healthy"

		if err := db.Ping(); err != nil {
			checks["database"] = err.Error()
			status = "degraded"
		}
		if redisClient.IsEnabled() {
			checks["redis"] = "ok"
			if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
				checks["redis"] = err.Error()
				status = "degraded"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, types.HealthResponse{
			Status:    status,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		})
	})

	r.GET("/api/stats", func(c *gin.Context) {
		stats := appMetrics.GetStats()
		stats["suggestion_cache_size"] = suggestionCache.Size()
		stats["db_pool"] = db.GetPoolStats()
		c.JSON(http.StatusOK, stats)
	})

	api := r.Group("/api")

	api.POST("/persons", func(c *gin.Context) {
		var req types.CreatePersonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		person, err := registry.NewPerson(req.NPI, req.Name, req.Specialty, req.City, req.State)
		if err != nil {
			c.Error(err)
			return
		}
		if err := registryStore.CreatePerson(c.Request.Context(), person); err != nil {
			c.Error(err)
			return
		}

		suggestionCache.Clear()
		c.JSON(http.StatusCreated, person)
	})

	api.GET("/persons/:npi", func(c *gin.Context) {
		person, err := registryStore.GetPerson(c.Request.Context(), c.Param("npi"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, person)
	})

	api.POST("/nominations", func(c *gin.Context) {
		var req types.SubmitNominationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		nom, err := nominationService.Submit(c.Request.Context(),
			req.Scope, req.ResponseID, req.NominationType, req.RawName, req.NominatorNPI)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, nom)
	})

	api.GET("/nominations/:id", func(c *gin.Context) {
		nom, err := nominationService.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, nom)
	})

	api.GET("/nominations/:id/suggestions", func(c *gin.Context) {
		id := c.Param("id")
		suggestions, err := nominationService.Suggest(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, types.SuggestionsResponse{
			NominationID: id,
			Suggestions:  suggestions,
		})
	})

	api.POST("/nominations/:id/match", func(c *gin.Context) {
		var req types.MatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		nom, err := nominationService.Match(c.Request.Context(), c.Param("id"), req.NPI, req.AddAlias)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, nom)
	})

	api.POST("/nominations/:id/exclude", func(c *gin.Context) {
		nom, err := nominationService.Exclude(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, nom)
	})

	api.POST("/nominations/:id/create-person", func(c *gin.Context) {
		var req types.CreatePersonAndMatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		nom, err := nominationService.CreatePersonAndMatch(c.Request.Context(), c.Param("id"),
			nomination.PersonAttributes{
				NPI:       req.NPI,
				Name:      req.Name,
				Specialty: req.Specialty,
				City:      req.City,
				State:     req.State,
			})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, nom)
	})

	api.POST("/scopes/:scope/auto-match", func(c *gin.Context) {
		result, err := nominationService.BulkAutoMatch(c.Request.Context(), c.Param("scope"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.POST("/scopes/:scope/survey-scores", func(c *gin.Context) {
		result, err := scoringService.CalculateSurveyScores(c.Request.Context(), c.Param("scope"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.POST("/scopes/:scope/composites", func(c *gin.Context) {
		result, err := scoringService.RecalculateComposites(c.Request.Context(), c.Param("scope"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.GET("/scopes/:scope/weights", func(c *gin.Context) {
		scope := c.Param("scope")
		weights, err := scoringService.GetWeightConfig(c.Request.Context(), scope)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, types.WeightsResponse{Scope: scope, Weights: weights})
	})

	api.PUT("/scopes/:scope/weights", func(c *gin.Context) {
		var req types.UpdateWeightsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		result, err := scoringService.UpdateWeightConfig(c.Request.Context(), c.Param("scope"), req.Weights)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.DELETE("/scopes/:scope/weights", func(c *gin.Context) {
		result, err := scoringService.ResetWeightConfig(c.Request.Context(), c.Param("scope"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.GET("/scopes/:scope/scores", func(c *gin.Context) {
		scope := c.Param("scope")
		scores, err := scoringService.ListScores(c.Request.Context(), scope)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, types.ScoresResponse{Scope: scope, Count: len(scores), Scores: scores})
	})

	api.PUT("/scopes/:scope/persons/:npi/segments", func(c *gin.Context) {
		var segments scoring.SegmentScores
		if err := c.ShouldBindJSON(&segments); err != nil {
			c.Error(errors.NewValidationError("invalid request body", err.Error()))
			return
		}

		score, err := scoringService.UpsertSegmentScores(c.Request.Context(),
			c.Param("scope"), c.Param("npi"), segments)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, score)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.SystemLogger("server_start", "listening on :"+port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.SystemLogger("server_shutdown", "draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
