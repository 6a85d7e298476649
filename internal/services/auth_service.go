package services

import (
	"errors"
	"strings"
	"time"

	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/repositories"
	"accreditation-backend/internal/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	store repositories.Store
	cfg   *config.Config
}

func NewAuthService(store repositories.Store, cfg *config.Config) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Principal is what role resolution hands to the rest of the system: the
// caller's role plus, for monitors and attendees, their church binding.
type Principal struct {
	UserID   uuid.UUID   `json:"user_id"`
	Role     models.Role `json:"role"`
	ChurchID *uuid.UUID  `json:"church_id,omitempty"`
}

func (s *AuthService) Authenticate(email, password string) (*LoginResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" || password == "" {
		return nil, NewServiceError("email and password are required", ErrInvalidInput, nil)
	}

	user, err := s.store.Users().GetUserByEmail(email)
	if err != nil {
		return nil, NewServiceError("invalid credentials", ErrForbidden, nil)
	}

	if err := utils.CheckPassword(password, user.Password); err != nil {
		return nil, NewServiceError("invalid credentials", ErrForbidden, nil)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, NewServiceError("failed to generate token", ErrDatabaseError, err)
	}

	user.Password = ""
	return &LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

// ResolveRole maps an authenticated principal ID to its role and church
// affiliation. A missing member record is a hard failure: the caller must
// deny access rather than fall back to a default role.
func (s *AuthService) ResolveRole(principalID string) (*Principal, error) {
	user, err := s.store.Users().GetUserByID(principalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError("no member record for principal", ErrNotFound, err)
		}
		return nil, NewServiceError("failed to resolve principal", ErrDatabaseError, err)
	}

	if !user.Role.Valid() {
		return nil, NewServiceError("principal has an unknown role", ErrForbidden, nil)
	}

	return &Principal{
		UserID:   user.ID,
		Role:     user.Role,
		ChurchID: user.ChurchID,
	}, nil
}

type CreateStaffRequest struct {
	RUT      string
	FullName string
	Email    string
	Password string
	Role     models.Role
	ChurchID *uuid.UUID
}

// CreateStaffUser provisions non-attendee principals (admin, monitor,
// cocina). Attendees are registered through the member service, which also
// issues their tickets.
func (s *AuthService) CreateStaffUser(requestingRole models.Role, req CreateStaffRequest) (*models.User, error) {
	if requestingRole != models.RoleAdmin {
		return nil, NewServiceError("only administrators can create staff users", ErrForbidden, nil)
	}

	switch req.Role {
	case models.RoleAdmin, models.RoleMonitor, models.RoleCocina:
	case models.RoleAttendee:
		return nil, NewServiceError("attendees are registered through member registration", ErrInvalidInput, nil)
	default:
		return nil, NewServiceError("unknown role", ErrInvalidInput, nil)
	}

	if req.Role == models.RoleMonitor && req.ChurchID == nil {
		return nil, NewServiceError("monitors must be bound to a church", ErrInvalidInput, nil)
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	rut := utils.NormalizeRUT(req.RUT)

	if _, err := s.store.Users().GetUserByEmail(email); err == nil {
		return nil, NewServiceError("email already registered", ErrDuplicateIdentity, nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewServiceError("failed to check email", ErrDatabaseError, err)
	}
	if _, err := s.store.Users().GetUserByRUT(rut); err == nil {
		return nil, NewServiceError("rut already registered", ErrDuplicateIdentity, nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewServiceError("failed to check rut", ErrDatabaseError, err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, NewServiceError(err.Error(), ErrInvalidInput, nil)
	}

	user := &models.User{
		ID:       uuid.New(),
		RUT:      rut,
		FullName: req.FullName,
		Email:    email,
		Password: hashedPassword,
		Role:     req.Role,
		ChurchID: req.ChurchID,
	}

	if err := s.store.Users().CreateUser(user); err != nil {
		return nil, NewServiceError("failed to create user", ErrDatabaseError, err)
	}

	user.Password = ""
	return user, nil
}

func (s *AuthService) GetUserProfile(userID string) (*models.User, error) {
	user, err := s.store.Users().GetUserByID(userID)
	if err != nil {
		return nil, NewServiceError("user not found", ErrNotFound, err)
	}

	user.Password = ""
	return user, nil
}

func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.ChurchID != nil {
		claims["church_id"] = user.ChurchID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
