package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medilinko/internal/config"
	"medilinko/internal/handler"
	"medilinko/internal/middleware"
	"medilinko/internal/repository"
	"medilinko/internal/service"
	"medilinko/internal/utils"
	"medilinko/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	appCfg, err := config.LoadApp()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}
	gin.SetMode(appCfg.GinMode)

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = config.AutoMigrate(migrateCtx, dbPool)
	cancelMigrate()
	if err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize Utilities ---
	sessions := utils.NewSessionSigner(appCfg.JWTSecret, appCfg.JWTExpirationHours)
	tokens := utils.NewQRTokenGenerator()

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)

	// --- Initialize Services ---
	userService := service.NewUserService(userRepo, tokens)
	qrService := service.NewQRService(userRepo, tokens, appCfg.WebURL)
	authService := service.NewAuthService(userRepo, sessions, appCfg.AdminEmail)

	// --- Initialize Handlers ---
	userHandler := handler.NewUserHandler(userService, qrService)
	qrHandler := handler.NewQRHandler(qrService)
	authHandler := handler.NewAuthHandler(authService, userService)
	healthHandler := handler.NewHealthHandler(dbPool)
	pages := web.NewPages(userService, qrService)

	// --- Setup Gin Router ---
	router := gin.New()
	router.Use(gin.Logger(), middleware.Recovery())
	router.Use(middleware.CORSMiddleware(appCfg.AllowedOrigins))
	if err := web.LoadTemplates(router); err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(sessions)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api")
	healthHandler.RegisterHealthRoutes(apiGroup)
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	userHandler.RegisterUserRoutes(apiGroup)
	qrHandler.RegisterQRRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	pages.RegisterRoutes(router)

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + appCfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s, profiles served under %s%s", appCfg.ServerPort, appCfg.WebURL, service.ProfilePathPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
