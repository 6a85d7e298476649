package repositories

import (
	"accreditation-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type churchRepo struct {
	db *gorm.DB
}

func NewChurchRepository(db *gorm.DB) ChurchRepository {
	return &churchRepo{db: db}
}

func (r *churchRepo) CreateChurch(church *models.Church) error {
	return r.db.Create(church).Error
}

func (r *churchRepo) GetChurchByID(id string) (*models.Church, error) {
	var church models.Church
	if err := r.db.Preload("Zone").Preload("Region").
		Where("id = ?", id).First(&church).Error; err != nil {
		return nil, err
	}
	return &church, nil
}

// GetChurchForUpdate takes a row lock so concurrent member registrations
// against the same church serialize on the capacity check.
func (r *churchRepo) GetChurchForUpdate(id string) (*models.Church, error) {
	var church models.Church
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&church).Error; err != nil {
		return nil, err
	}
	return &church, nil
}

func (r *churchRepo) ListChurches(offset, limit int) ([]models.Church, int64, error) {
	var churches []models.Church
	var total int64

	if err := r.db.Model(&models.Church{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Preload("Zone").Preload("Region").
		Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&churches).Error; err != nil {
		return nil, 0, err
	}

	return churches, total, nil
}

func (r *churchRepo) DeleteChurch(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Church{}).Error
}
