package main

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

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/cache"
	"github.com/finsight/backend/internal/config"
	"github.com/finsight/backend/internal/database"
	"github.com/finsight/backend/internal/handlers"
	mW "github.com/finsight/backend/internal/middleware"
	"github.com/finsight/backend/internal/services"
	"github.com/finsight/backend/internal/store"
)

// requiredAuthority guards every /api route.
const requiredAuthority = auth.ScopePrefix + "fin:app"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := database.InitRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var categoryCache cache.Cache
	if redisClient != nil {
		categoryCache = cache.NewRedis(redisClient, "categories:", 10*time.Minute)
	} else {
		categoryCache = cache.NewMemory(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	verifier, err := auth.NewVerifier(ctx, cfg.Auth.IssuerURI, cfg.Auth.Audience)
	if err != nil {
		log.Fatalf("Failed to initialize token verifier: %v", err)
	}

	transactionService := services.NewTransactionService(st)
	categoryService := services.NewCategoryService(st, categoryCache)
	userService := services.NewUserService(st)

	validator := handlers.NewValidator()
	transactionHandler := handlers.NewTransactionHandler(transactionService, validator)
	categoryHandler := handlers.NewCategoryHandler(categoryService, validator)
	userHandler := handlers.NewUserHandler(userService, validator)

	limiter := mW.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window())
	defer limiter.Stop()

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(limiter.Handler)

	r.Use(mW.PreflightStatus)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	r.NotFound(handlers.NotFoundHandler)
	r.MethodNotAllowed(handlers.MethodNotAllowedHandler)

	// Health check
	r.Get("/healthz", handlers.Healthz)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(mW.Authenticator(verifier))
		r.Use(mW.RequireScope(requiredAuthority))

		r.Route("/transactions", transactionHandler.Routes)
		r.Route("/categories", categoryHandler.Routes)
		r.Route("/users", userHandler.Routes)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
