package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of principal roles. Authorization decisions
// switch on this type rather than comparing raw strings.
type Role string

const (
	RoleAdmin    Role = "admin"    // full control: accreditation, deletion, church management
	RoleMonitor  Role = "monitor"  // church leader: registers members for own church
	RoleCocina   Role = "cocina"   // kitchen staff: redeems meal tickets
	RoleAttendee Role = "attendee" // read-only access to own records
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleMonitor, RoleCocina, RoleAttendee:
		return Role(s), true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

type Region struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Zone struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	RegionID  uuid.UUID `gorm:"type:uuid;index;not null" json:"region_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Region Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

type Church struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	RegionID      uuid.UUID `gorm:"type:uuid;index;not null" json:"region_id"`
	ZoneID        uuid.UUID `gorm:"type:uuid;index;not null" json:"zone_id"`
	MemberLimit   int       `gorm:"not null;default:50" json:"member_limit"`
	ContactPerson string    `json:"contact_person,omitempty"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	ContactPhone  string    `json:"contact_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Zone   Zone   `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	Region Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

// User covers every principal: administrators, church monitors, kitchen
// staff and event attendees. Attendees own tickets; the other roles never
// do. RUT is stored normalized (no dots or dash, uppercase check digit).
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RUT          string     `gorm:"column:rut;uniqueIndex;not null" json:"rut"`
	FullName     string     `gorm:"not null" json:"full_name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Age          *int       `json:"age,omitempty"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'attendee'" json:"role"`
	ChurchID     *uuid.UUID `gorm:"type:uuid;index" json:"church_id,omitempty"`
	RegionID     *uuid.UUID `gorm:"type:uuid" json:"region_id,omitempty"`
	ZoneID       *uuid.UUID `gorm:"type:uuid" json:"zone_id,omitempty"`
	IsAccredited bool       `gorm:"not null;default:false" json:"is_accredited"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Church  *Church  `gorm:"foreignKey:ChurchID" json:"church,omitempty"`
	Tickets []Ticket `gorm:"foreignKey:UserID" json:"tickets,omitempty"`
}

// Ticket is a single-use meal coupon. IsUsed only ever transitions
// false to true, through a conditional update keyed on QRCode.
type Ticket struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TicketType string     `gorm:"type:varchar(20);not null" json:"ticket_type"` // meal category, e.g. lunch|once
	QRCode     string     `gorm:"uniqueIndex;not null" json:"qr_code"`
	QRPath     string     `json:"qr_path,omitempty"`
	IsUsed     bool       `gorm:"not null;default:false" json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	UsedBy     *uuid.UUID `gorm:"type:uuid" json:"used_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
