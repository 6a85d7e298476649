package repositories

import (
	"accreditation-backend/internal/models"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Church").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetUserByRUT(rut string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("rut = ?", rut).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListMembersByChurch(churchID string, offset, limit int) ([]models.User, int64, error) {
	var members []models.User
	var total int64

	base := r.db.Model(&models.User{}).
		Where("church_id = ? AND role = ?", churchID, models.RoleAttendee)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Where("church_id = ? AND role = ?", churchID, models.RoleAttendee).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *userRepo) CountAttendeesByChurch(churchID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).
		Where("church_id = ? AND role = ?", churchID, models.RoleAttendee).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepo) CountAccreditedByChurch(churchID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).
		Where("church_id = ? AND role = ? AND is_accredited = ?", churchID, models.RoleAttendee, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepo) SetAccreditation(userID string, accredited bool) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_accredited", accredited).Error
}

func (r *userRepo) DeleteUser(userID string) error {
	return r.db.Where("id = ?", userID).Delete(&models.User{}).Error
}
