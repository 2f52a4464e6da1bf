// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/ai"
	"github.com/appprovts/SolarFlowPro/internal/api/handlers"
	"github.com/appprovts/SolarFlowPro/internal/api/middleware"
	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/cron"
	"github.com/appprovts/SolarFlowPro/internal/db"
	"github.com/appprovts/SolarFlowPro/internal/email"
	"github.com/appprovts/SolarFlowPro/internal/notification"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/seed"
	"github.com/appprovts/SolarFlowPro/internal/service"
	"github.com/appprovts/SolarFlowPro/internal/socket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("[Main] Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("[Main] Migration failed: %v", err)
	}
	log.Println("[Main] Database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	postgres, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Main] Failed to connect to PostgreSQL: %v", err)
	}
	defer postgres.Close()
	log.Println("[Main] Connected to PostgreSQL")

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(postgres.Pool)
	log.Println("[Main] Repositories initialized")

	// ============================================
	// Initialize Redis (optional, sessions degrade without it)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("[Main] Failed to connect to Redis: %v (continuing without sessions)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("[Main] Redis connected")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailSvc *email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		log.Println("[Main] Email service initialized")
	} else {
		log.Println("[Main] Email not configured (SMTP_HOST not set)")
	}

	var emailQueue *email.EmailQueue
	if emailSvc != nil {
		emailQueue = email.NewEmailQueue(emailSvc, 2)
		defer emailQueue.Stop()
	}

	// ============================================
	// Initialize Gemini Drafter (optional)
	// ============================================
	var drafter *ai.Drafter
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiProModel)
		if err != nil {
			log.Printf("[Main] Failed to initialize Gemini: %v (drafting disabled)", err)
		} else {
			defer geminiClient.Close()
			drafter = ai.NewDrafter(geminiClient)
			log.Println("[Main] Gemini drafting service initialized")
		}
	} else {
		log.Println("[Main] Drafting not configured (GEMINI_API_KEY not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	// WebSocket handler with JWT secret for self-authentication
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("[Main] WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	notificationSvc.SetBroadcaster(broadcaster)
	if emailQueue != nil {
		notificationSvc.SetEmailQueue(emailQueue, cfg.FrontendURL)
	}

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		Redis:       redisDB,
		NotifSvc:    notificationSvc,
		EmailSvc:    emailSvc,
		Drafter:     drafter,
		Broadcaster: broadcaster,
	})
	log.Println("[Main] All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(
		notificationSvc,
		repos.ProjectRepo,
		repos.UserRepo,
		repos.NotificationRepo,
	)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173", cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   "connected",
			"sessions":   redisStatus(redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      emailStatus(emailSvc),
			"drafting":   drafterStatus(drafter),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/forgot-password", h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
		}

		// WebSocket route (authenticates itself via token query param)
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		protected.Use(middleware.SessionAgeMiddleware(redisDB, cfg.SessionMaxAge))
		{
			protected.POST("/auth/logout", h.Auth.Logout)

			// User routes
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me", h.User.UpdateCurrentUser)
				users.GET("/integrators", h.User.ListIntegrators)
				users.GET("/online", func(c *gin.Context) {
					c.JSON(http.StatusOK, gin.H{"online": hub.GetOnlineUsers()})
				})
				users.GET("", middleware.RequireManagement(), h.User.ListUsers)
				users.PUT("/:id/role", middleware.RequireAdmin(), h.User.ChangeRole)
			}

			// Project routes
			projects := protected.Group("/projects")
			{
				projects.GET("", h.Project.List)
				projects.POST("", h.Project.Create)
				projects.GET("/stats", h.Project.Stats)
				projects.GET("/:id", h.Project.GetByID)
				projects.PUT("/:id", h.Project.Update)
				projects.DELETE("/:id", h.Project.Delete)

				// Workflow
				projects.POST("/:id/advance", h.Project.Advance)
				projects.POST("/:id/retract", h.Project.Retract)
				projects.POST("/:id/reset", h.Project.ResetToSurvey)

				// Survey
				projects.PUT("/:id/survey", h.Project.SubmitSurvey)
				projects.PUT("/:id/assign", h.Project.AssignIntegrator)

				// Drafting & documents
				projects.POST("/:id/analysis", h.Project.RunAnalysis)
				projects.POST("/:id/memorial", h.Project.GenerateMemorial)
				projects.GET("/:id/memorial.pdf", h.Project.MemorialPDF)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/count", h.Notification.UnreadCount)
				notifications.PUT("/:id/read", h.Notification.MarkAsRead)
				notifications.PUT("/read-all", h.Notification.MarkAllAsRead)
				notifications.DELETE("", h.Notification.Clear)
			}

			// Equipment catalog routes
			equipment := protected.Group("/equipment")
			{
				equipment.GET("", h.Equipment.List)
				equipment.POST("", h.Equipment.Create)
				equipment.POST("/specs-lookup", h.Equipment.SpecsLookup)
				equipment.GET("/:id", h.Equipment.GetByID)
				equipment.PUT("/:id", h.Equipment.Update)
				equipment.DELETE("/:id", h.Equipment.Delete)
			}
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("[Main] Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func redisStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func emailStatus(emailSvc *email.Service) string {
	if emailSvc != nil {
		return "configured"
	}
	return "disabled"
}

func drafterStatus(drafter *ai.Drafter) string {
	if drafter != nil {
		return "configured"
	}
	return "disabled"
}
