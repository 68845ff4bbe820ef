package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"nihongo/internal/audio"
	"nihongo/internal/config"
	"nihongo/internal/database"
	"nihongo/internal/handlers"
	"nihongo/internal/lesson"
	"nihongo/internal/logger"
	"nihongo/internal/metrics"
	"nihongo/internal/practice"
	"nihongo/internal/security"
	"nihongo/internal/service"
	"nihongo/internal/templates"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	log.Info("database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations()
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("migrations completed", "applied", applied)

	tmpl, err := templates.Load()
	if err != nil {
		log.Fatal("failed to load templates", "error", err)
	}

	loader := newLessonLoader(cfg, log)
	store, memoryStore := newPracticeStore(ctx, cfg, log)

	var speaker service.Speaker
	if cfg.TTSEnabled {
		speaker = audio.NewTTSService(cfg.AudioPath)
		log.Info("tts enabled", "dir", cfg.AudioPath)
	}

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}

	// Initialize services
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(db, tokens, emailService, cfg.SessionDuration, log)
	progressService := service.NewProgressService(db)
	practiceService := service.NewPracticeService(store, progressService, speaker, "/audio", log)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	middleware := handlers.NewMiddleware(authService, security.NewCSRF(cfg.CSRFSecret), limiter, log)
	authHandler := handlers.NewAuthHandler(authService, progressService, loader, tmpl, middleware, oauthProviders, cfg.OAuthRedirectBaseURL, log)
	lessonHandler := handlers.NewLessonHandler(practiceService, loader, tmpl, middleware, log)

	// Setup routes
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))
	mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(cfg.AudioPath))))
	mux.Handle("GET /metrics", metrics.Handler())
	handlers.RegisterRoutes(mux, authHandler, lessonHandler, middleware)

	// Logging sits inside Identify so it sees the pattern the mux matched.
	handler := middleware.Identify(handlers.Logging(log)(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go runCleanup(ctx, log, authService, memoryStore, limiter)

	go func() {
		log.Info("server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// newLessonLoader reads lessons from RESOURCES_BASE_URL when set, else from
// RESOURCES_PATH, behind a TTL cache.
func newLessonLoader(cfg *config.Config, log *logger.Logger) lesson.Loader {
	var loader lesson.Loader
	if cfg.ResourcesBaseURL != "" {
		loader = lesson.NewHTTPLoader(cfg.ResourcesBaseURL, &http.Client{Timeout: 10 * time.Second})
		log.Info("loading lessons over http", "base_url", cfg.ResourcesBaseURL)
	} else {
		loader = lesson.NewFSLoader(os.DirFS(cfg.ResourcesPath))
		log.Info("loading lessons from disk", "path", cfg.ResourcesPath)
	}
	if cfg.ResourceCacheTTL <= 0 {
		return loader
	}
	return lesson.NewCache(loader, cfg.ResourceCacheTTL)
}

// newPracticeStore returns the configured store. The memory store is also
// returned on its own so the cleanup loop can sweep it.
func newPracticeStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (practice.Store, *practice.MemoryStore) {
	if cfg.PracticeStore == "redis" {
		rdb, err := practice.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		log.Info("practice sessions stored in redis", "addr", cfg.RedisAddr)
		return practice.NewRedisStore(rdb, cfg.PracticeSessionTTL), nil
	}
	store := practice.NewMemoryStore(cfg.PracticeSessionTTL)
	return store, store
}

// runCleanup periodically removes expired refresh sessions, practice
// sessions and idle rate limiter entries.
func runCleanup(ctx context.Context, log *logger.Logger, authService *service.AuthService, store *practice.MemoryStore, limiter *security.RateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := authService.CleanupExpiredSessions(); err != nil {
			log.Error("failed to clean up expired sessions", "error", err)
		} else if n > 0 {
			log.Info("expired sessions cleaned up", "count", n)
		}
		if store != nil {
			if n := store.Sweep(); n > 0 {
				log.Debug("expired practice sessions swept", "count", n)
			}
		}
		limiter.Sweep()
	}
}
