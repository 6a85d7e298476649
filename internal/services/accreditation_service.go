package services

import (
	"errors"

	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AccreditationService toggles the accredited flag on members. Counts are
// always derived by querying; nothing stores an accredited counter that
// could drift from the flags themselves.
type AccreditationService struct {
	store repositories.Store
}

func NewAccreditationService(store repositories.Store) *AccreditationService {
	return &AccreditationService{store: store}
}

type AccreditationResult struct {
	Member          *models.User `json:"member"`
	AccreditedCount int64        `json:"accredited_count"`
}

func (s *AccreditationService) SetAccreditation(requestingRole models.Role, memberID string, accredited bool) (*AccreditationResult, error) {
	if requestingRole != models.RoleAdmin {
		return nil, NewServiceError("only administrators can change accreditation", ErrForbidden, nil)
	}

	member, err := s.store.Users().GetUserByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("member not found", ErrNotFound, err)
		}
		return nil, NewServiceError("failed to load member", ErrDatabaseError, err)
	}

	if err := s.store.Users().SetAccreditation(memberID, accredited); err != nil {
		return nil, NewServiceError("failed to update accreditation", ErrDatabaseError, err)
	}
	member.IsAccredited = accredited

	var accreditedCount int64
	if member.ChurchID != nil {
		accreditedCount, err = s.store.Users().CountAccreditedByChurch(member.ChurchID.String())
		if err != nil {
			return nil, NewServiceError("failed to count accredited members", ErrDatabaseError, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"member_id":  memberID,
		"accredited": accredited,
	}).Info("accreditation updated")

	return &AccreditationResult{
		Member:          member,
		AccreditedCount: accreditedCount,
	}, nil
}
