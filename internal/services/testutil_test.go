package services

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeStore is an in-memory Store used by the service tests. It returns
// the same gorm sentinel errors the real repositories do, serializes
// transactions the way the row-locked postgres path does, and restores a
// snapshot when a transaction callback fails.
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users    map[string]models.User
	churches map[string]models.Church
	tickets  map[string]models.Ticket
	zones    map[string]models.Zone
	regions  map[string]models.Region

	failTicketCreate bool
	failUserLookup   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]models.User),
		churches: make(map[string]models.Church),
		tickets:  make(map[string]models.Ticket),
		zones:    make(map[string]models.Zone),
		regions:  make(map[string]models.Region),
	}
}

func (s *fakeStore) Users() repositories.UserRepository          { return (*fakeUsers)(s) }
func (s *fakeStore) Churches() repositories.ChurchRepository     { return (*fakeChurches)(s) }
func (s *fakeStore) Tickets() repositories.TicketRepository      { return (*fakeTickets)(s) }
func (s *fakeStore) Directory() repositories.DirectoryRepository { return (*fakeDirectory)(s) }

func (s *fakeStore) Transaction(fn func(repositories.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapUsers := copyMap(s.users)
	snapChurches := copyMap(s.churches)
	snapTickets := copyMap(s.tickets)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users = snapUsers
		s.churches = snapChurches
		s.tickets = snapTickets
		s.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fakeUsers fakeStore

func (f *fakeUsers) CreateUser(user *models.User) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.RUT == user.RUT || existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.CreatedAt = time.Now()
	s.users[user.ID.String()] = *user
	return nil
}

func (f *fakeUsers) GetUserByID(id string) (*models.User, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (f *fakeUsers) GetUserByEmail(email string) (*models.User, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUserLookup != nil {
		return nil, s.failUserLookup
	}
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetUserByRUT(rut string) (*models.User, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUserLookup != nil {
		return nil, s.failUserLookup
	}
	for _, user := range s.users {
		if user.RUT == rut {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) ListMembersByChurch(churchID string, offset, limit int) ([]models.User, int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []models.User
	for _, user := range s.users {
		if user.Role == models.RoleAttendee && user.ChurchID != nil && user.ChurchID.String() == churchID {
			members = append(members, user)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})
	total := int64(len(members))
	if offset > len(members) {
		offset = len(members)
	}
	end := offset + limit
	if end > len(members) {
		end = len(members)
	}
	return members[offset:end], total, nil
}

func (f *fakeUsers) CountAttendeesByChurch(churchID string) (int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, user := range s.users {
		if user.Role == models.RoleAttendee && user.ChurchID != nil && user.ChurchID.String() == churchID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsers) CountAccreditedByChurch(churchID string) (int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, user := range s.users {
		if user.Role == models.RoleAttendee && user.IsAccredited &&
			user.ChurchID != nil && user.ChurchID.String() == churchID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsers) SetAccreditation(userID string, accredited bool) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsAccredited = accredited
	s.users[userID] = user
	return nil
}

func (f *fakeUsers) DeleteUser(userID string) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

type fakeChurches fakeStore

func (f *fakeChurches) CreateChurch(church *models.Church) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	church.CreatedAt = time.Now()
	s.churches[church.ID.String()] = *church
	return nil
}

func (f *fakeChurches) GetChurchByID(id string) (*models.Church, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	church, ok := s.churches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &church, nil
}

func (f *fakeChurches) GetChurchForUpdate(id string) (*models.Church, error) {
	return f.GetChurchByID(id)
}

func (f *fakeChurches) ListChurches(offset, limit int) ([]models.Church, int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var churches []models.Church
	for _, church := range s.churches {
		churches = append(churches, church)
	}
	sort.Slice(churches, func(i, j int) bool { return churches[i].Name < churches[j].Name })
	total := int64(len(churches))
	if offset > len(churches) {
		offset = len(churches)
	}
	end := offset + limit
	if end > len(churches) {
		end = len(churches)
	}
	return churches[offset:end], total, nil
}

func (f *fakeChurches) DeleteChurch(id string) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.churches, id)
	return nil
}

type fakeTickets fakeStore

func (f *fakeTickets) CreateTicket(ticket *models.Ticket) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTicketCreate {
		return errors.New("ticket insert failed")
	}
	for _, existing := range s.tickets {
		if existing.QRCode == ticket.QRCode {
			return gorm.ErrDuplicatedKey
		}
	}
	ticket.CreatedAt = time.Now()
	s.tickets[ticket.ID.String()] = *ticket
	return nil
}

func (f *fakeTickets) GetTicketByQRCode(qrCode string) (*models.Ticket, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.QRCode == qrCode {
			t := ticket
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTickets) GetTicketsByUser(userID string) ([]models.Ticket, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var tickets []models.Ticket
	for _, ticket := range s.tickets {
		if ticket.UserID.String() == userID {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].TicketType < tickets[j].TicketType })
	return tickets, nil
}

func (f *fakeTickets) CountTicketsByUser(userID string) (int64, error) {
	tickets, _ := f.GetTicketsByUser(userID)
	return int64(len(tickets)), nil
}

// RedeemTicket mirrors the conditional UPDATE: the check and the write
// happen under one lock, so concurrent callers race exactly like they do
// against the database's atomic row update.
func (f *fakeTickets) RedeemTicket(qrCode string, actorID uuid.UUID, usedAt time.Time) (int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ticket := range s.tickets {
		if ticket.QRCode == qrCode && !ticket.IsUsed {
			ticket.IsUsed = true
			ticket.UsedAt = &usedAt
			ticket.UsedBy = &actorID
			s.tickets[id] = ticket
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeTickets) CountByType(ticketType string) (int64, int64, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var total, used int64
	for _, ticket := range s.tickets {
		if ticket.TicketType == ticketType {
			total++
			if ticket.IsUsed {
				used++
			}
		}
	}
	return total, used, nil
}

func (f *fakeTickets) DeleteTicketsByUser(userID string) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ticket := range s.tickets {
		if ticket.UserID.String() == userID {
			delete(s.tickets, id)
		}
	}
	return nil
}

type fakeDirectory fakeStore

func (f *fakeDirectory) ListRegions() ([]models.Region, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var regions []models.Region
	for _, region := range s.regions {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

func (f *fakeDirectory) ListZones() ([]models.Zone, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var zones []models.Zone
	for _, zone := range s.zones {
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Code < zones[j].Code })
	return zones, nil
}

func (f *fakeDirectory) GetZoneByID(id string) (*models.Zone, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	zone, ok := s.zones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &zone, nil
}

// Test fixtures.

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:          "test-secret",
		QRDir:              t.TempDir(),
		MealTypes:          []string{"lunch", "once"},
		DefaultMemberLimit: 50,
		Env:                "development",
	}
}

func seedChurch(store *fakeStore, memberLimit int) models.Church {
	region := models.Region{ID: uuid.New(), Name: "Región del Maule"}
	zone := models.Zone{ID: uuid.New(), Code: "MAU-01", Name: "Talca", RegionID: region.ID}
	church := models.Church{
		ID:          uuid.New(),
		Name:        "IUMP Talca",
		RegionID:    region.ID,
		ZoneID:      zone.ID,
		MemberLimit: memberLimit,
	}
	store.regions[region.ID.String()] = region
	store.zones[zone.ID.String()] = zone
	store.churches[church.ID.String()] = church
	return church
}

func adminPrincipal() *Principal {
	return &Principal{UserID: uuid.New(), Role: models.RoleAdmin}
}

func principalWithRole(role models.Role, churchID *uuid.UUID) *Principal {
	return &Principal{UserID: uuid.New(), Role: role, ChurchID: churchID}
}
