package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"harbor-backend/internal/auth"
	"harbor-backend/internal/config"
	"harbor-backend/internal/database"
	"harbor-backend/internal/handlers"
	"harbor-backend/internal/middleware"
	"harbor-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to redis (OAuth state + rate limiting)
	rdb, err := database.ConnectRedis(cfg.GetRedisAddr(), cfg.Redis.Password)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Initialize services
	authService := services.NewAuthService(database.GetDB(), rdb)
	userService := services.NewUserService(database.GetDB())
	referralService := services.NewReferralService(database.GetDB())
	rewardsService := services.NewRewardsService(database.GetDB())

	// Initialize handlers
	googleOAuth := auth.NewGoogleOAuthConfig(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.CallbackURL,
	)
	authHandler := handlers.NewAuthHandler(authService, googleOAuth, cfg.App.FrontendURL)
	userHandler := handlers.NewUserHandler(userService, referralService)
	referralHandler := handlers.NewReferralHandler(referralService)
	claimsHandler := handlers.NewClaimsHandler(rewardsService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		cfg.App.FrontendURL,
		"http://localhost:5173", // Vite dev server
		"http://localhost:3000",
		"http://127.0.0.1:5173",
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting over the whole API
	router.Use(middleware.RateLimiter(rdb, cfg.App.RateLimitPerMinute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/signup", authHandler.Register) // SPA alias
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/google", authHandler.GoogleLogin)
		authRoutes.GET("/google/callback", authHandler.GoogleCallback)
	}

	// User routes (protected)
	userRoutes := router.Group("/api/user")
	userRoutes.Use(auth.AuthMiddleware())
	{
		userRoutes.GET("/me", userHandler.GetMe)
		userRoutes.GET("/chart-data", userHandler.GetChartData)
		userRoutes.GET("/referraltree", userHandler.GetReferralTree)
		userRoutes.POST("/stake", userHandler.RecordStake)
		userRoutes.POST("/referral", referralHandler.EnsureReferralCode)
		userRoutes.GET("/referrallist", referralHandler.GetReferralList)
	}

	// Claims routes (protected)
	claimsRoutes := router.Group("/api/claims")
	claimsRoutes.Use(auth.AuthMiddleware())
	{
		claimsRoutes.GET("/eligibility", claimsHandler.GetEligibility)
		claimsRoutes.POST("/claim", claimsHandler.Claim)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
