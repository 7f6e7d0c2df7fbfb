// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/config"
	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/handlers"
	"github.com/aiplatform/chat-backend/internal/middleware"
	"github.com/aiplatform/chat-backend/internal/ratelimit"
	adminmessagerepo "github.com/aiplatform/chat-backend/internal/repository/adminmessage"
	chatrepo "github.com/aiplatform/chat-backend/internal/repository/chat"
	messagerepo "github.com/aiplatform/chat-backend/internal/repository/message"
	settingsrepo "github.com/aiplatform/chat-backend/internal/repository/settings"
	userrepo "github.com/aiplatform/chat-backend/internal/repository/user"
	"github.com/aiplatform/chat-backend/internal/services"
	"github.com/aiplatform/chat-backend/internal/services/admin_services"
	"github.com/aiplatform/chat-backend/internal/services/metrics"
	"github.com/aiplatform/chat-backend/internal/services/retention"
	"github.com/aiplatform/chat-backend/internal/services/user_services"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Chat{},
		&domain.Message{},
		&domain.RetentionSettings{},
		&domain.AdminMessage{},
	); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := userrepo.NewGormUserRepository(db)
	chatRepo := chatrepo.NewChatRepository(db)
	messageRepo := messagerepo.NewMessageRepository(db)
	settingsRepo := settingsrepo.NewSettingsRepository(db)
	adminMessageRepo := adminmessagerepo.NewAdminMessageRepository(db)

	// --- Services ---
	cleanupMetrics := metrics.New(prometheus.DefaultRegisterer)

	settingsService := retention.NewSettingsService(settingsRepo, services.NewLogger("SettingsService"))
	evaluator := retention.NewEvaluator(chatRepo)
	cleanupService := retention.NewCleanupService(
		chatRepo, settingsService, evaluator, cleanupMetrics, services.NewLogger("CleanupService"))

	chatService := services.NewChatService(
		chatRepo, messageRepo, settingsService, services.NewCannedResponder(), services.NewLogger("ChatService"))
	historyService := services.NewHistoryService(
		chatRepo, messageRepo, settingsService, services.NewLogger("HistoryService"))

	authService := user_services.NewAuthService(
		userRepo, cleanupService, cfg.JWTSecretKey, cfg.AdminEmail, services.NewLogger("AuthService"))
	userService := user_services.NewUserService(userRepo, adminMessageRepo, services.NewLogger("UserService"))
	adminService := admin_services.NewAdminService(userRepo, adminMessageRepo)

	// --- Scheduled cleanup ---
	var scheduler *retention.Scheduler
	if cfg.CleanupScheduleEnabled {
		scheduler = retention.NewScheduler(
			settingsRepo, cleanupService, cfg.CleanupCronSpec, services.NewLogger("Scheduler"))
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start cleanup scheduler: %v", err)
		}
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	dataHandler := handlers.NewDataHandler(settingsService, cleanupService, chatService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware(authService)
	adminMiddleware := middleware.RequireAdmin(userRepo)
	supportMiddleware := middleware.RequireSupport(userRepo)

	limiterCfg := ratelimit.DefaultAuthConfig()
	limiterCfg.MaxAttempts = cfg.LoginRateLimitAttempts
	loginLimiter := ratelimit.NewMemoryRateLimiter(limiterCfg)
	defer loginLimiter.Close()

	r.Use(corsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.Use(middleware.RateLimitMiddleware(loginLimiter, "auth"))
	auth.Use(middleware.AuthSuccessMiddleware(loginLimiter))
	auth.HandleFunc("/register", authHandler.Register).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")

	// --- Protected API Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/batch", chatHandler.BatchOperation).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", chatHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/title", chatHandler.RenameChat).Methods("PATCH")
	api.HandleFunc("/chats/{id:[0-9]+}/favorite", chatHandler.ToggleFavorite).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/protect", chatHandler.ToggleProtected).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/export", chatHandler.ExportChat).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}", chatHandler.DeleteChat).Methods("DELETE")

	api.HandleFunc("/history", historyHandler.ListChats).Methods("GET")
	api.HandleFunc("/history/suggestions", historyHandler.SuggestTitles).Methods("GET")
	api.HandleFunc("/history/statistics", historyHandler.Statistics).Methods("GET")

	api.HandleFunc("/data/settings", dataHandler.GetSettings).Methods("GET")
	api.HandleFunc("/data/settings", dataHandler.UpdateSettings).Methods("PUT")
	api.HandleFunc("/data/cleanup", dataHandler.RunCleanup).Methods("POST")
	api.HandleFunc("/data/export", dataHandler.ExportAllChats).Methods("GET")
	api.HandleFunc("/data/delete-all", dataHandler.DeleteAllChats).Methods("POST")

	api.HandleFunc("/user/profile", userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/user/profile", userHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/user/inbox", userHandler.Inbox).Methods("GET")
	api.HandleFunc("/user/inbox/{id:[0-9]+}/read", userHandler.MarkMessageRead).Methods("POST")
	api.HandleFunc("/user/support", userHandler.SendSupportMessage).Methods("POST")
	api.HandleFunc("/user/support", userHandler.SupportThread).Methods("GET")

	// --- Admin API Routes ---
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware)
	adminAPI.Use(adminMiddleware)
	adminAPI.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	adminAPI.HandleFunc("/users/{id:[0-9]+}/status", adminHandler.SetUserStatus).Methods("PUT")
	adminAPI.HandleFunc("/users/{id:[0-9]+}/notice", adminHandler.SendNotice).Methods("POST")

	supportAPI := r.PathPrefix("/api/support").Subrouter()
	supportAPI.Use(authMiddleware)
	supportAPI.Use(supportMiddleware)
	supportAPI.HandleFunc("/users/{id:[0-9]+}/thread", adminHandler.GetSupportThread).Methods("GET")
	supportAPI.HandleFunc("/users/{id:[0-9]+}/reply", adminHandler.ReplySupport).Methods("POST")

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Chat backend starting on port %s (env=%s, scheduler=%t)",
		cfg.ServerPort, cfg.Environment, cfg.CleanupScheduleEnabled)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
