package handlers

import (
	"accreditation-backend/internal/middleware"
	"accreditation-backend/internal/services"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateChurchRequest struct {
	Name          string `json:"name" validate:"required"`
	ZoneID        string `json:"zone_id" validate:"required,uuid"`
	MemberLimit   int    `json:"member_limit" validate:"omitempty,min=1"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  string `json:"contact_phone"`
}

// CreateChurch registers a church under a zone
// @Summary Create church
// @Tags Churches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateChurchRequest true "Church data"
// @Success 201 {object} utils.Response
// @Router /churches [post]
func (h *Handler) CreateChurch(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	var req CreateChurchRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	church, err := h.churchSvc.CreateChurch(principal.Role, services.CreateChurchRequest{
		Name:          req.Name,
		ZoneID:        req.ZoneID,
		MemberLimit:   req.MemberLimit,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, church, "Church created successfully", fiber.StatusCreated)
}

// GetChurch returns one church
// @Summary Get church
// @Tags Churches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Church ID"
// @Success 200 {object} utils.Response
// @Router /churches/{id} [get]
func (h *Handler) GetChurch(c *fiber.Ctx) error {
	churchID := c.Params("id")
	if _, err := uuid.Parse(churchID); err != nil {
		return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
	}

	church, err := h.churchSvc.GetChurch(churchID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, church, "Church retrieved successfully")
}

// GetChurchStats returns derived member and accreditation counts
// @Summary Get church stats
// @Tags Churches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Church ID"
// @Success 200 {object} utils.Response
// @Router /churches/{id}/stats [get]
func (h *Handler) GetChurchStats(c *fiber.Ctx) error {
	churchID := c.Params("id")
	if _, err := uuid.Parse(churchID); err != nil {
		return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
	}

	stats, err := h.churchSvc.GetChurchStats(churchID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, stats, "Church stats retrieved successfully")
}

// ListChurches returns a paginated church list
// @Summary List churches
// @Tags Churches
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} utils.Response
// @Router /churches [get]
func (h *Handler) ListChurches(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	churches, total, totalPages, err := h.churchSvc.ListChurches(page, pageSize)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.SuccessWithMeta(c, churches, &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}, "Churches retrieved successfully")
}

// DeleteChurch removes a church without members
// @Summary Delete church
// @Tags Churches
// @Security BearerAuth
// @Param id path string true "Church ID"
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /churches/{id} [delete]
func (h *Handler) DeleteChurch(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	churchID := c.Params("id")
	if _, err := uuid.Parse(churchID); err != nil {
		return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
	}

	if err := h.churchSvc.DeleteChurch(principal.Role, churchID); err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, nil, "Church deleted successfully")
}

// ListZones returns all zones with their regions
// @Summary List zones
// @Tags Directory
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /zones [get]
func (h *Handler) ListZones(c *fiber.Ctx) error {
	zones, err := h.churchSvc.ListZones()
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return utils.Success(c, zones, "Zones retrieved successfully")
}

// ListRegions returns all regions
// @Summary List regions
// @Tags Directory
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /regions [get]
func (h *Handler) ListRegions(c *fiber.Ctx) error {
	regions, err := h.churchSvc.ListRegions()
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return utils.Success(c, regions, "Regions retrieved successfully")
}
