package repositories

import (
	"time"

	"accreditation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store aggregates the per-entity repositories and owns transaction
// boundaries. Inside Transaction the callback receives a Store bound to
// the transaction, so multi-step writes (member create + ticket issuance)
// commit or roll back as a unit.
type Store interface {
	Users() UserRepository
	Churches() ChurchRepository
	Tickets() TicketRepository
	Directory() DirectoryRepository
	Transaction(fn func(Store) error) error
}

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByRUT(rut string) (*models.User, error)
	ListMembersByChurch(churchID string, offset, limit int) ([]models.User, int64, error)
	CountAttendeesByChurch(churchID string) (int64, error)
	CountAccreditedByChurch(churchID string) (int64, error)
	SetAccreditation(userID string, accredited bool) error
	DeleteUser(userID string) error
}

type ChurchRepository interface {
	CreateChurch(church *models.Church) error
	GetChurchByID(id string) (*models.Church, error)
	// GetChurchForUpdate locks the church row until the surrounding
	// transaction ends. Only meaningful inside Store.Transaction.
	GetChurchForUpdate(id string) (*models.Church, error)
	ListChurches(offset, limit int) ([]models.Church, int64, error)
	DeleteChurch(id string) error
}

type TicketRepository interface {
	CreateTicket(ticket *models.Ticket) error
	GetTicketByQRCode(qrCode string) (*models.Ticket, error)
	GetTicketsByUser(userID string) ([]models.Ticket, error)
	CountTicketsByUser(userID string) (int64, error)
	// RedeemTicket performs the conditional write: mark the ticket used
	// only if it is not already. Returns the number of rows affected, so
	// zero means the caller lost the race or the ticket was consumed.
	RedeemTicket(qrCode string, actorID uuid.UUID, usedAt time.Time) (int64, error)
	CountByType(ticketType string) (total int64, used int64, err error)
	DeleteTicketsByUser(userID string) error
}

type DirectoryRepository interface {
	ListRegions() ([]models.Region, error)
	ListZones() ([]models.Zone, error)
	GetZoneByID(id string) (*models.Zone, error)
}

type gormStore struct {
	db        *gorm.DB
	users     UserRepository
	churches  ChurchRepository
	tickets   TicketRepository
	directory DirectoryRepository
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:        db,
		users:     NewUserRepository(db),
		churches:  NewChurchRepository(db),
		tickets:   NewTicketRepository(db),
		directory: NewDirectoryRepository(db),
	}
}

func (s *gormStore) Users() UserRepository          { return s.users }
func (s *gormStore) Churches() ChurchRepository     { return s.churches }
func (s *gormStore) Tickets() TicketRepository      { return s.tickets }
func (s *gormStore) Directory() DirectoryRepository { return s.directory }

func (s *gormStore) Transaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func AutoMigrate(db *gorm.DB) error {
	// Enable UUID extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	// Migrate models
	return db.AutoMigrate(
		&models.Region{},
		&models.Zone{},
		&models.Church{},
		&models.User{},
		&models.Ticket{},
	)
}
