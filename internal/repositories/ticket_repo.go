package repositories

import (
	"time"

	"accreditation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ticketRepo struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) CreateTicket(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

func (r *ticketRepo) GetTicketByQRCode(qrCode string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("User").Where("qr_code = ?", qrCode).First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepo) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := r.db.Where("user_id = ?", userID).
		Order("ticket_type ASC").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepo) CountTicketsByUser(userID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Ticket{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// RedeemTicket is the single conditional write that makes redemption safe
// under concurrent scans: the guard on is_used means at most one caller
// ever sees a non-zero rows-affected for a given code.
func (r *ticketRepo) RedeemTicket(qrCode string, actorID uuid.UUID, usedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Ticket{}).
		Where("qr_code = ? AND is_used = ?", qrCode, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": usedAt,
			"used_by": actorID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *ticketRepo) CountByType(ticketType string) (int64, int64, error) {
	var total, used int64

	if err := r.db.Model(&models.Ticket{}).
		Where("ticket_type = ?", ticketType).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	if err := r.db.Model(&models.Ticket{}).
		Where("ticket_type = ? AND is_used = ?", ticketType, true).
		Count(&used).Error; err != nil {
		return 0, 0, err
	}

	return total, used, nil
}

func (r *ticketRepo) DeleteTicketsByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Ticket{}).Error
}
