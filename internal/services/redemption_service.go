package services

import (
	"errors"
	"time"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RedemptionService consumes meal tickets scanned by kitchen staff. The
// contract: for any QR code at most one caller ever observes success, no
// matter how many stations scan the same coupon concurrently.
type RedemptionService interface {
	Redeem(actor *Principal, qrCode string) (*models.Ticket, error)
	TicketStatus(qrCode string) (*models.Ticket, error)
	MealStats() ([]MealTypeStats, error)
}

type MealTypeStats struct {
	TicketType string `json:"ticket_type"`
	Total      int64  `json:"total"`
	Used       int64  `json:"used"`
	Remaining  int64  `json:"remaining"`
}

type redemptionService struct {
	store repositories.Store
	cfg   *config.Config
}

func NewRedemptionService(store repositories.Store, cfg *config.Config) RedemptionService {
	return &redemptionService{store: store, cfg: cfg}
}

// Redeem marks a ticket used through a single conditional write. A lost
// race and a previously consumed coupon are deliberately indistinguishable:
// both surface as ALREADY_REDEEMED, the coupon is not honored either way.
func (s *redemptionService) Redeem(actor *Principal, qrCode string) (*models.Ticket, error) {
	if actor == nil {
		return nil, NewServiceError("redemption requires an authenticated actor", ErrForbidden, nil)
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleCocina:
	case models.RoleMonitor, models.RoleAttendee:
		return nil, NewServiceError("role cannot redeem tickets", ErrForbidden, nil)
	default:
		return nil, NewServiceError("unknown role", ErrForbidden, nil)
	}

	if qrCode == "" {
		return nil, NewServiceError("ticket not found for code", ErrInvalidCode, nil)
	}

	// Malformed codes get the same answer as unknown ones: the lookup
	// simply misses. No format detail leaks to the scanner.
	if _, err := s.store.Tickets().GetTicketByQRCode(qrCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("ticket not found for code", ErrInvalidCode, err)
		}
		return nil, NewServiceError("failed to look up ticket", ErrDatabaseError, err)
	}

	affected, err := s.store.Tickets().RedeemTicket(qrCode, actor.UserID, time.Now())
	if err != nil {
		return nil, NewServiceError("failed to redeem ticket", ErrDatabaseError, err)
	}
	if affected == 0 {
		logrus.WithField("qr_code", qrCode).Info("redemption refused: ticket already used")
		return nil, NewServiceError("ticket already redeemed", ErrAlreadyRedeemed, nil)
	}

	ticket, err := s.store.Tickets().GetTicketByQRCode(qrCode)
	if err != nil {
		return nil, NewServiceError("failed to load redeemed ticket", ErrDatabaseError, err)
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"ticket_type": ticket.TicketType,
		"used_by":     actor.UserID,
	}).Info("ticket redeemed")

	return ticket, nil
}

// TicketStatus is the read-only check scanning clients use after a timeout,
// instead of blindly retrying Redeem.
func (s *redemptionService) TicketStatus(qrCode string) (*models.Ticket, error) {
	ticket, err := s.store.Tickets().GetTicketByQRCode(qrCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("ticket not found for code", ErrInvalidCode, err)
		}
		return nil, NewServiceError("failed to look up ticket", ErrDatabaseError, err)
	}
	return ticket, nil
}

// MealStats derives per-category consumption counts for the kitchen
// dashboard. Always computed fresh, never cached.
func (s *redemptionService) MealStats() ([]MealTypeStats, error) {
	stats := make([]MealTypeStats, 0, len(s.cfg.MealTypes))
	for _, mealType := range s.cfg.MealTypes {
		total, used, err := s.store.Tickets().CountByType(mealType)
		if err != nil {
			return nil, NewServiceError("failed to count tickets", ErrDatabaseError, err)
		}
		stats = append(stats, MealTypeStats{
			TicketType: mealType,
			Total:      total,
			Used:       used,
			Remaining:  total - used,
		})
	}
	return stats, nil
}
