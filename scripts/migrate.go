package main

import (
	"log"
	"os"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"
	"accreditation-backend/internal/utils"
	"accreditation-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

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
	log.Println("Database migrations completed successfully")

	if err := seedDirectory(db); err != nil {
		log.Fatalf("Seed error: %v", err)
	}

	if err := seedAdmin(db); err != nil {
		log.Fatalf("Admin seed error: %v", err)
	}

	log.Println("Seeding completed successfully")
}

// seedDirectory inserts the initial regions and zones when the directory
// is empty. Names match the reference deployment.
func seedDirectory(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Region{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Directory already seeded, skipping")
		return nil
	}

	regions := map[string][]models.Zone{
		"Región del Maule": {
			{Code: "MAU-01", Name: "Talca"},
			{Code: "MAU-02", Name: "Curicó"},
			{Code: "MAU-03", Name: "Linares"},
		},
		"Región de Ñuble": {
			{Code: "NUB-01", Name: "Chillán"},
			{Code: "NUB-02", Name: "San Carlos"},
		},
		"Región Metropolitana": {
			{Code: "RM-01", Name: "Santiago Centro"},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for name, zones := range regions {
			region := models.Region{ID: uuid.New(), Name: name}
			if err := tx.Create(&region).Error; err != nil {
				return err
			}
			for _, zone := range zones {
				zone.ID = uuid.New()
				zone.RegionID = region.ID
				if err := tx.Create(&zone).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// seedAdmin creates the bootstrap administrator from ADMIN_EMAIL and
// ADMIN_PASSWORD, if one does not exist yet.
func seedAdmin(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	rut := utils.NormalizeRUT(os.Getenv("ADMIN_RUT"))
	if rut == "" {
		rut = "000000000"
	}

	admin := models.User{
		ID:       uuid.New(),
		RUT:      rut,
		FullName: "Administrator",
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
	}

	return db.Create(&admin).Error
}
