package services

import (
	"errors"
	"fmt"
	"strings"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"
	"accreditation-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MemberService struct {
	store  repositories.Store
	issuer *TicketIssuer
	cfg    *config.Config
}

func NewMemberService(store repositories.Store, issuer *TicketIssuer, cfg *config.Config) *MemberService {
	return &MemberService{store: store, issuer: issuer, cfg: cfg}
}

type CreateMemberRequest struct {
	ChurchID string
	RUT      string
	FullName string
	Email    string
	Phone    string
	Gender   string
	Age      *int
}

// CreateMember registers an attendee for a church and synchronously issues
// their meal tickets. The whole sequence runs in one transaction with the
// church row locked, so the capacity ceiling holds under concurrent
// registrations and a member is never observable without tickets.
func (s *MemberService) CreateMember(caller *Principal, req CreateMemberRequest) (*models.User, error) {
	if err := s.checkRegistrarCapability(caller, req.ChurchID); err != nil {
		return nil, err
	}

	rut := utils.NormalizeRUT(req.RUT)
	if rut == "" {
		return nil, NewServiceError("rut is required", ErrInvalidInput, nil)
	}
	if s.cfg.StrictRUT {
		if err := utils.ValidateRUT(rut); err != nil {
			return nil, NewServiceError(err.Error(), ErrInvalidInput, nil)
		}
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewServiceError("a valid email is required", ErrInvalidInput, nil)
	}

	var member *models.User

	err := s.store.Transaction(func(tx repositories.Store) error {
		church, err := tx.Churches().GetChurchForUpdate(req.ChurchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceError("church not found", ErrNotFound, err)
			}
			return NewServiceError("failed to load church", ErrDatabaseError, err)
		}

		if _, err := tx.Users().GetUserByRUT(rut); err == nil {
			return NewServiceError("rut already registered", ErrDuplicateIdentity, nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError("failed to check rut", ErrDatabaseError, err)
		}
		if _, err := tx.Users().GetUserByEmail(email); err == nil {
			return NewServiceError("email already registered", ErrDuplicateIdentity, nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError("failed to check email", ErrDatabaseError, err)
		}

		current, err := tx.Users().CountAttendeesByChurch(req.ChurchID)
		if err != nil {
			return NewServiceError("failed to count members", ErrDatabaseError, err)
		}
		if current >= int64(church.MemberLimit) {
			serr := NewServiceError(
				fmt.Sprintf("church %s is at its member limit", church.Name),
				ErrCapacityExceeded, nil)
			serr.Payload = map[string]interface{}{
				"current": current,
				"limit":   church.MemberLimit,
			}
			return serr
		}

		member = &models.User{
			ID:       uuid.New(),
			RUT:      rut,
			FullName: req.FullName,
			Email:    email,
			Phone:    req.Phone,
			Gender:   req.Gender,
			Age:      req.Age,
			Role:     models.RoleAttendee,
			ChurchID: &church.ID,
			RegionID: &church.RegionID,
			ZoneID:   &church.ZoneID,
		}

		if err := tx.Users().CreateUser(member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewServiceError("rut or email already registered", ErrDuplicateIdentity, err)
			}
			return NewServiceError("failed to create member", ErrDatabaseError, err)
		}

		tickets, err := s.issuer.IssueTickets(tx, member)
		if err != nil {
			return err
		}
		member.Tickets = tickets

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": member.ID,
		"church_id": req.ChurchID,
		"tickets":   len(member.Tickets),
	}).Info("member registered")

	return member, nil
}

// DeleteMember removes a member and cascades their tickets. Accredited
// members are deliberately not deletable here; those cases go through a
// manual support process instead.
func (s *MemberService) DeleteMember(requestingRole models.Role, memberID string) error {
	if requestingRole != models.RoleAdmin {
		return NewServiceError("only administrators can delete members", ErrForbidden, nil)
	}

	member, err := s.store.Users().GetUserByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError("member not found", ErrNotFound, err)
		}
		return NewServiceError("failed to load member", ErrDatabaseError, err)
	}

	if member.IsAccredited {
		return NewServiceError("accredited members cannot be deleted", ErrConflict, nil)
	}

	tickets, err := s.store.Tickets().GetTicketsByUser(memberID)
	if err != nil {
		return NewServiceError("failed to load member tickets", ErrDatabaseError, err)
	}

	err = s.store.Transaction(func(tx repositories.Store) error {
		if err := tx.Tickets().DeleteTicketsByUser(memberID); err != nil {
			return NewServiceError("failed to delete tickets", ErrDatabaseError, err)
		}
		if err := tx.Users().DeleteUser(memberID); err != nil {
			return NewServiceError("failed to delete member", ErrDatabaseError, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Rendered PNGs are cleaned up best effort after the commit.
	for _, ticket := range tickets {
		if ticket.QRPath == "" {
			continue
		}
		if err := utils.RemoveQRCodeImage(ticket.QRPath, s.cfg.QRDir); err != nil {
			logrus.WithError(err).WithField("qr_path", ticket.QRPath).Warn("could not remove QR image")
		}
	}

	logrus.WithField("member_id", memberID).Info("member deleted")
	return nil
}

func (s *MemberService) GetMember(caller *Principal, memberID string) (*models.User, error) {
	member, err := s.store.Users().GetUserByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("member not found", ErrNotFound, err)
		}
		return nil, NewServiceError("failed to load member", ErrDatabaseError, err)
	}

	if err := s.checkReadCapability(caller, member); err != nil {
		return nil, err
	}

	member.Password = ""
	return member, nil
}

func (s *MemberService) GetMemberTickets(caller *Principal, memberID string) ([]models.Ticket, error) {
	member, err := s.GetMember(caller, memberID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.store.Tickets().GetTicketsByUser(member.ID.String())
	if err != nil {
		return nil, NewServiceError("failed to load tickets", ErrDatabaseError, err)
	}
	return tickets, nil
}

func (s *MemberService) ListMembersByChurch(caller *Principal, churchID string, page, pageSize int) ([]models.User, int64, int, error) {
	if err := s.checkRegistrarCapability(caller, churchID); err != nil {
		return nil, 0, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	members, total, err := s.store.Users().ListMembersByChurch(churchID, offset, pageSize)
	if err != nil {
		return nil, 0, 0, NewServiceError("failed to list members", ErrDatabaseError, err)
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return members, total, totalPages, nil
}

type MemberImportRow struct {
	RUT      string
	FullName string
	Email    string
	Phone    string
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportMembers registers a batch of members from a bulk upload. A failing
// row never aborts the batch; its error is collected for reporting.
func (s *MemberService) ImportMembers(caller *Principal, churchID string, rows []MemberImportRow) (*ImportResult, error) {
	if err := s.checkRegistrarCapability(caller, churchID); err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		_, err := s.CreateMember(caller, CreateMemberRequest{
			ChurchID: churchID,
			RUT:      row.RUT,
			FullName: row.FullName,
			Email:    row.Email,
			Phone:    row.Phone,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", i+1, errorMessage(err)))
			continue
		}
		result.Imported++
	}

	logrus.WithFields(logrus.Fields{
		"church_id": churchID,
		"imported":  result.Imported,
		"failed":    result.Failed,
	}).Info("member import finished")

	return result, nil
}

// checkRegistrarCapability gates member creation and listing: admins reach
// any church, monitors only their own.
func (s *MemberService) checkRegistrarCapability(caller *Principal, churchID string) error {
	if caller == nil {
		return NewServiceError("authentication required", ErrForbidden, nil)
	}
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleMonitor:
		if caller.ChurchID != nil && caller.ChurchID.String() == churchID {
			return nil
		}
		return NewServiceError("monitors can only manage their own church", ErrForbidden, nil)
	case models.RoleCocina, models.RoleAttendee:
		return NewServiceError("role cannot manage members", ErrForbidden, nil)
	default:
		return NewServiceError("unknown role", ErrForbidden, nil)
	}
}

func (s *MemberService) checkReadCapability(caller *Principal, member *models.User) error {
	if caller == nil {
		return NewServiceError("authentication required", ErrForbidden, nil)
	}
	switch caller.Role {
	case models.RoleAdmin, models.RoleCocina:
		return nil
	case models.RoleMonitor:
		if caller.ChurchID != nil && member.ChurchID != nil && *caller.ChurchID == *member.ChurchID {
			return nil
		}
		return NewServiceError("monitors can only view their own church", ErrForbidden, nil)
	case models.RoleAttendee:
		if caller.UserID == member.ID {
			return nil
		}
		return NewServiceError("attendees can only view their own record", ErrForbidden, nil)
	default:
		return NewServiceError("unknown role", ErrForbidden, nil)
	}
}

func errorMessage(err error) string {
	if serr, ok := err.(*ServiceError); ok {
		return serr.Message
	}
	return err.Error()
}
