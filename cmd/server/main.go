package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/config"
	"github.com/yourusername/clarity-api/internal/handler"
	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/repository"
	"github.com/yourusername/clarity-api/internal/service"
	"github.com/yourusername/clarity-api/internal/session"
)

func main() {
	// ── Logging ──────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ── Config ───────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting ResumeClarity API")

	// ── Database ─────────────────────────────────────────
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connected")

	// ── Redis ────────────────────────────────────────────
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping Redis")
	}
	log.Info().Msg("Redis connected")

	// ── Repositories ─────────────────────────────────────
	userRepo := repository.NewUserRepo(pool)
	passRepo := repository.NewPassRepo(pool)
	runRepo := repository.NewRunRepo(pool)

	// ── Services ─────────────────────────────────────────
	sessions := session.NewStore(userRepo, passRepo, runRepo, rdb, cfg.FreeRunLimit)
	llm := service.NewLLMClient(cfg.ModelAPIKey, cfg.ModelBaseURL, cfg.ModelName)
	stripeService := service.NewStripeService(cfg, passRepo, userRepo, sessions)
	exporter := service.NewPDFExporter(cfg.PDFRendererURL)

	// ── Handlers ─────────────────────────────────────────
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS)

	authHandler := handler.NewAuthHandler(userRepo, sessions, authMiddleware, cfg.Env == "development")
	feedbackHandler := handler.NewFeedbackHandler(llm, sessions)
	ideasHandler := handler.NewIdeasHandler(llm)
	meHandler := handler.NewMeHandler(sessions)
	billingHandler := handler.NewBillingHandler(stripeService)
	uploadHandler := handler.NewUploadHandler()
	exportHandler := handler.NewExportHandler(exporter)

	// ── Router ───────────────────────────────────────────
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check (unauthenticated)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "clarity-api",
			"time":    time.Now().UTC(),
		})
	})

	// Static fixtures
	r.GET("/sample-report.json", handler.SampleReport)
	r.GET("/sample-resume.txt", handler.SampleResume)

	// Stripe webhook (unauthenticated — signature verified instead)
	r.POST("/api/stripe/webhook", billingHandler.HandleWebhook)

	// ── API Routes ───────────────────────────────────────
	api := r.Group("/api", authMiddleware.Authenticate(), rateLimiter.Limit())
	{
		// Login
		api.POST("/login/request-code", authHandler.RequestCode)
		api.POST("/login/verify", authHandler.Verify)

		// Session
		api.GET("/me", meHandler.Get)

		// Feedback pipeline
		api.POST("/resume-feedback", feedbackHandler.Run)
		api.POST("/resume-ideas", ideasHandler.Run)
		api.POST("/resume-upload", uploadHandler.Upload)
		api.POST("/export-pdf", exportHandler.Export)

		// Billing
		api.POST("/create-checkout-session", billingHandler.CreateCheckout)
	}

	// ── Server ───────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("ResumeClarity API server running")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// requestLogger logs every request with zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg(fmt.Sprintf("%s %s", c.Request.Method, path))
	}
}
