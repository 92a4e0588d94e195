package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"linguapath/internal/app"
	"linguapath/internal/content"
	"linguapath/internal/handlers"
	"linguapath/internal/lesson"
	"linguapath/internal/repository"
	"linguapath/internal/security"
	"linguapath/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	cfg, logger := env.Config, env.Logger

	// Load lesson content
	catalog, err := loadCatalog(cfg.LessonsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load lessons")
	}
	logger.WithField("lessons", len(catalog.List())).Info("Lesson catalog loaded")

	// Initialize repositories
	userRepo := repository.NewUserRepository(env.DB)
	studyRepo := repository.NewStudyRepository(env.DB)

	// Initialize services
	userService := service.NewUserService(userRepo, logger)
	statsService := service.NewStatsService(studyRepo, cfg.Location(), logger)
	lessonService := service.NewLessonService(catalog, studyRepo, service.LessonSettings{
		HeartsInitial: cfg.HeartsInitial,
		Grading:       lesson.GradingPolicy{CaseSensitive: cfg.GradingCaseSensitive},
		XPPerLesson:   cfg.XPPerLesson,
		XPPerHeart:    cfg.XPPerHeart,
		SessionTTL:    cfg.SessionTTL,
		Location:      cfg.Location(),
	}, logger)

	verifier, err := security.NewTokenVerifier(cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthJWKSURL, cfg.AuthHMACSecret)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure token verification")
	}
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Background cleanup
	go limiter.RunCleanup(ctx, time.Hour)
	go lessonService.RunJanitor(ctx, time.Minute)

	// Setup routes
	mux := http.NewServeMux()
	handlers.Routes(mux,
		handlers.NewMiddleware(verifier, limiter, logger),
		env.DB,
		handlers.NewUserHandler(userService, statsService, logger),
		handlers.NewLessonHandler(catalog, lessonService, logger),
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	// Wrap with logging middleware
	handler := handlers.Logging(logger, corsHandler.Handler(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

func loadCatalog(dir string) (*content.Catalog, error) {
	if dir == "" {
		return content.Builtin()
	}
	return content.LoadDir(dir)
}
