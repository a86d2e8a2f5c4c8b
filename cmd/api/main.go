package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"
	"travel-requisition-api/config"
	"travel-requisition-api/middleware"
	"travel-requisition-api/routes"
	"travel-requisition-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.LoadSettings()
	config.InitLogging()

	// Initialize database
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := config.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "database": "down"})
			return
		}
		c.JSON(200, gin.H{"status": "healthy", "database": "up"})
	})

	// Setup routes
	routes.SetupRoutes(router)

	// Background sweep of read notifications past their retention window
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := services.DefaultCleanupInterval
	if raw := os.Getenv("CLEANUP_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		} else {
			log.Printf("Warning: invalid CLEANUP_INTERVAL_MINUTES %q, using default", raw)
		}
	}
	services.NewCleanupScheduler(services.NewNotificationService(config.DB), interval).Start(ctx)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📊 Database connected successfully")
	log.Printf("🧹 Notification cleanup runs every %s", interval)
	if config.App.DevelopmentMode {
		log.Printf("🔧 Running with DEVELOPMENT_MODE enabled")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
