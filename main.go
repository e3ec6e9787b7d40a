package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/database"
	"github.com/username/kryptogain/backend/src/handlers"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/processors"
	"github.com/username/kryptogain/backend/src/security"
	"github.com/username/kryptogain/backend/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("KryptoGain backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Loading jurisdiction table...", "path", config.Cfg.JurisdictionDataPath)
	if err := processors.LoadJurisdictions(config.Cfg.JurisdictionDataPath); err != nil {
		logger.L.Warn("Failed to load jurisdiction file, keeping built-in defaults", "error", err)
	}
	if _, err := processors.GetJurisdiction(config.Cfg.DefaultJurisdiction); err != nil {
		logger.L.Error("DEFAULT_JURISDICTION is not in the jurisdiction table", "id", config.Cfg.DefaultJurisdiction)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	priceService := services.NewPriceService(config.Cfg.PriceAPIBaseURL)

	uploadService := services.NewUploadService(
		processors.NewTransactionProcessor(),
		processors.NewFIFOTaxProcessor(),
		priceService,
		reportCache,
	)

	userHandler := handlers.NewUserHandler(authService, emailService, uploadService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	reportHandler := handlers.NewReportHandler(uploadService)
	txHandler := handlers.NewTransactionHandler(uploadService)
	handlers.InitializeGoogleOAuthConfig()

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler)
	apiRouter.HandleFunc("GET /api/auth/google/login", userHandler.HandleGoogleLogin)
	apiRouter.HandleFunc("GET /api/auth/google/callback", userHandler.HandleGoogleCallback)

	// Mutating auth actions go through CSRF protection.
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.HandleFunc("POST /logout", userHandler.LogoutUserHandler)
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)(authActionRouter)))

	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(http.HandlerFunc(userHandler.AuthMiddleware(handler)))
	}

	apiRouter.Handle("POST /api/upload", applyCsrfAndAuth(uploadHandler.HandleUpload))
	apiRouter.Handle("GET /api/report", applyCsrfAndAuth(reportHandler.HandleGetReport))
	apiRouter.Handle("GET /api/holdings", applyCsrfAndAuth(reportHandler.HandleGetHoldings))
	apiRouter.Handle("GET /api/jurisdictions", http.HandlerFunc(reportHandler.HandleGetJurisdictions))
	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(txHandler.HandleGetTransactions))
	apiRouter.Handle("GET /api/transactions/export", applyCsrfAndAuth(txHandler.HandleExportTransactions))
	apiRouter.Handle("DELETE /api/transactions/all", applyCsrfAndAuth(txHandler.HandleDeleteAllTransactions))
	apiRouter.Handle("GET /api/user/has-data", applyCsrfAndAuth(userHandler.HasDataHandler))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "KryptoGain backend is running"})
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
	finalHandler := handlers.CORSMiddleware([]string{config.Cfg.FrontendBaseURL})(
		handlers.RateLimitMiddleware(limiter)(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
