package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/handlers"
	"accreditation-backend/internal/repositories"
	"accreditation-backend/internal/services"
	"accreditation-backend/pkg/database"
	"accreditation-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// Run migrations
	if err := repositories.AutoMigrate(db); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	// Initialize store and services
	store := repositories.NewStore(db)

	authSvc := services.NewAuthService(store, cfg)
	issuer := services.NewTicketIssuer(cfg)
	memberSvc := services.NewMemberService(store, issuer, cfg)
	accredSvc := services.NewAccreditationService(store)
	churchSvc := services.NewChurchService(store, cfg)
	redemptionSvc := services.NewRedemptionService(store, cfg)

	// Initialize handlers
	handler := handlers.NewHandler(authSvc, memberSvc, accredSvc, churchSvc, redemptionSvc, cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Accreditation API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Create the QR render directory
	if err := os.MkdirAll(cfg.QRDir, 0755); err != nil {
		log.Fatalf("Failed to create QR directory: %v", err)
	}

	// Static file serving for rendered QR codes
	app.Static("/qrcodes", cfg.QRDir)

	// Register routes
	api := app.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped gracefully")
}
