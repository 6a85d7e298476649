package services

import (
	"errors"
	"fmt"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"
	"accreditation-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// tokenAttempts bounds collision retries when minting QR tokens. With
// UUIDv4 tokens a single collision is already vanishingly unlikely.
const tokenAttempts = 3

// TicketIssuer mints the fixed set of meal coupons for a newly registered
// member. It always runs against a transaction-bound store, so a failed
// issuance rolls the member registration back with it.
type TicketIssuer struct {
	cfg *config.Config
}

func NewTicketIssuer(cfg *config.Config) *TicketIssuer {
	return &TicketIssuer{cfg: cfg}
}

// IssueTickets creates one unused ticket per configured meal category for
// the member. Calling it for a member that already holds tickets is a
// programming error and fails with ALREADY_ISSUED instead of double-issuing.
func (s *TicketIssuer) IssueTickets(store repositories.Store, member *models.User) ([]models.Ticket, error) {
	existing, err := store.Tickets().CountTicketsByUser(member.ID.String())
	if err != nil {
		return nil, NewServiceError("failed to check existing tickets", ErrDatabaseError, err)
	}
	if existing > 0 {
		return nil, NewServiceError(
			fmt.Sprintf("tickets already issued for member %s", member.ID),
			ErrAlreadyIssued, nil)
	}

	tickets := make([]models.Ticket, 0, len(s.cfg.MealTypes))
	for _, mealType := range s.cfg.MealTypes {
		ticket, err := s.mintTicket(store, member.ID, mealType)
		if err != nil {
			// The transaction rolls the rows back; the already rendered
			// PNGs have to go too.
			for _, minted := range tickets {
				s.discardImage(minted.QRCode)
			}
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}

	return tickets, nil
}

func (s *TicketIssuer) mintTicket(store repositories.Store, userID uuid.UUID, mealType string) (*models.Ticket, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token := uuid.NewString()

		filename, err := utils.GenerateQRCodeImage(token, s.cfg.QRDir)
		if err != nil {
			return nil, NewServiceError("failed to render QR code", ErrDatabaseError, err)
		}

		ticket := &models.Ticket{
			ID:         uuid.New(),
			UserID:     userID,
			TicketType: mealType,
			QRCode:     token,
			QRPath:     fmt.Sprintf("/qrcodes/%s", filename),
		}

		err = store.Tickets().CreateTicket(ticket)
		if err == nil {
			return ticket, nil
		}
		s.discardImage(token)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Token collision: retry with a fresh token, never surface
			// the collision to the caller.
			continue
		}
		return nil, NewServiceError("failed to create ticket", ErrDatabaseError, err)
	}

	return nil, NewServiceError("could not mint a unique ticket token", ErrDatabaseError, nil)
}

// discardImage removes the PNG for a token whose ticket row did not make
// it into the database.
func (s *TicketIssuer) discardImage(token string) {
	if err := utils.RemoveQRCodeImage(token+".png", s.cfg.QRDir); err != nil {
		logrus.WithError(err).WithField("token", token).Warn("could not remove QR image")
	}
}
