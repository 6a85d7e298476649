package handlers

import (
	"accreditation-backend/internal/middleware"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/services"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateStaffUserRequest struct {
	RUT      string `json:"rut" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin monitor cocina"`
	ChurchID string `json:"church_id,omitempty" validate:"omitempty,uuid"`
}

// Login authenticates a principal and returns a signed token
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.authSvc.Authenticate(req.Email, req.Password)
	if err != nil {
		return utils.Error(c, "Invalid credentials", fiber.StatusUnauthorized)
	}

	return utils.Success(c, result, "Login successful")
}

// GetProfile returns the caller's own member record
// @Summary Get own profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /profile [get]
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		return utils.Error(c, "Authentication required", fiber.StatusUnauthorized)
	}

	user, err := h.authSvc.GetUserProfile(userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, user, "Profile retrieved successfully")
}

// CreateStaffUser provisions an admin, monitor or kitchen principal
// @Summary Create staff user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStaffUserRequest true "Staff user data"
// @Success 201 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/users [post]
func (h *Handler) CreateStaffUser(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	var req CreateStaffUserRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	role, _ := models.ParseRole(req.Role)

	var churchID *uuid.UUID
	if req.ChurchID != "" {
		id, err := uuid.Parse(req.ChurchID)
		if err != nil {
			return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
		}
		churchID = &id
	}

	user, err := h.authSvc.CreateStaffUser(principal.Role, services.CreateStaffRequest{
		RUT:      req.RUT,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		ChurchID: churchID,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, user, "User created successfully", fiber.StatusCreated)
}
