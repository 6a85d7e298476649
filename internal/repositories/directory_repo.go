package repositories

import (
	"accreditation-backend/internal/models"

	"gorm.io/gorm"
)

type directoryRepo struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepo{db: db}
}

func (r *directoryRepo) ListRegions() ([]models.Region, error) {
	var regions []models.Region
	if err := r.db.Order("name ASC").Find(&regions).Error; err != nil {
		return nil, err
	}
	return regions, nil
}

func (r *directoryRepo) ListZones() ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.Preload("Region").Order("code ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *directoryRepo) GetZoneByID(id string) (*models.Zone, error) {
	var zone models.Zone
	if err := r.db.Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}
