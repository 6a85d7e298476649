package services

import (
	"errors"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChurchService struct {
	store repositories.Store
	cfg   *config.Config
}

func NewChurchService(store repositories.Store, cfg *config.Config) *ChurchService {
	return &ChurchService{store: store, cfg: cfg}
}

type CreateChurchRequest struct {
	Name          string
	ZoneID        string
	MemberLimit   int
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
}

// ChurchStats carries the derived projections for one church. member and
// accredited counts are recomputed on every read.
type ChurchStats struct {
	ChurchID        uuid.UUID `json:"church_id"`
	Name            string    `json:"name"`
	MemberLimit     int       `json:"member_limit"`
	MemberCount     int64     `json:"member_count"`
	AccreditedCount int64     `json:"accredited_count"`
}

func (s *ChurchService) CreateChurch(requestingRole models.Role, req CreateChurchRequest) (*models.Church, error) {
	if requestingRole != models.RoleAdmin {
		return nil, NewServiceError("only administrators can create churches", ErrForbidden, nil)
	}

	if req.Name == "" {
		return nil, NewServiceError("church name is required", ErrInvalidInput, nil)
	}

	zone, err := s.store.Directory().GetZoneByID(req.ZoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("zone not found", ErrNotFound, err)
		}
		return nil, NewServiceError("failed to load zone", ErrDatabaseError, err)
	}

	limit := req.MemberLimit
	if limit <= 0 {
		limit = s.cfg.DefaultMemberLimit
	}

	church := &models.Church{
		ID:            uuid.New(),
		Name:          req.Name,
		ZoneID:        zone.ID,
		RegionID:      zone.RegionID,
		MemberLimit:   limit,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
	}

	if err := s.store.Churches().CreateChurch(church); err != nil {
		return nil, NewServiceError("failed to create church", ErrDatabaseError, err)
	}

	return church, nil
}

// DeleteChurch refuses to remove a church that still has members: the
// restrict policy keeps members and their tickets from being orphaned by
// an unrelated deletion.
func (s *ChurchService) DeleteChurch(requestingRole models.Role, churchID string) error {
	if requestingRole != models.RoleAdmin {
		return NewServiceError("only administrators can delete churches", ErrForbidden, nil)
	}

	if _, err := s.store.Churches().GetChurchByID(churchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError("church not found", ErrNotFound, err)
		}
		return NewServiceError("failed to load church", ErrDatabaseError, err)
	}

	count, err := s.store.Users().CountAttendeesByChurch(churchID)
	if err != nil {
		return NewServiceError("failed to count members", ErrDatabaseError, err)
	}
	if count > 0 {
		return NewServiceError("church still has registered members", ErrConflict, nil)
	}

	if err := s.store.Churches().DeleteChurch(churchID); err != nil {
		return NewServiceError("failed to delete church", ErrDatabaseError, err)
	}
	return nil
}

func (s *ChurchService) GetChurch(churchID string) (*models.Church, error) {
	church, err := s.store.Churches().GetChurchByID(churchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("church not found", ErrNotFound, err)
		}
		return nil, NewServiceError("failed to load church", ErrDatabaseError, err)
	}
	return church, nil
}

func (s *ChurchService) GetChurchStats(churchID string) (*ChurchStats, error) {
	church, err := s.GetChurch(churchID)
	if err != nil {
		return nil, err
	}

	memberCount, err := s.store.Users().CountAttendeesByChurch(churchID)
	if err != nil {
		return nil, NewServiceError("failed to count members", ErrDatabaseError, err)
	}

	accreditedCount, err := s.store.Users().CountAccreditedByChurch(churchID)
	if err != nil {
		return nil, NewServiceError("failed to count accredited members", ErrDatabaseError, err)
	}

	return &ChurchStats{
		ChurchID:        church.ID,
		Name:            church.Name,
		MemberLimit:     church.MemberLimit,
		MemberCount:     memberCount,
		AccreditedCount: accreditedCount,
	}, nil
}

func (s *ChurchService) ListChurches(page, pageSize int) ([]models.Church, int64, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	churches, total, err := s.store.Churches().ListChurches(offset, pageSize)
	if err != nil {
		return nil, 0, 0, NewServiceError("failed to list churches", ErrDatabaseError, err)
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return churches, total, totalPages, nil
}

func (s *ChurchService) ListZones() ([]models.Zone, error) {
	zones, err := s.store.Directory().ListZones()
	if err != nil {
		return nil, NewServiceError("failed to list zones", ErrDatabaseError, err)
	}
	return zones, nil
}

func (s *ChurchService) ListRegions() ([]models.Region, error) {
	regions, err := s.store.Directory().ListRegions()
	if err != nil {
		return nil, NewServiceError("failed to list regions", ErrDatabaseError, err)
	}
	return regions, nil
}
