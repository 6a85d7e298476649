package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"accreditation-backend/internal/middleware"
	"accreditation-backend/internal/services"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateMemberRequest struct {
	ChurchID string `json:"church_id" validate:"required,uuid"`
	RUT      string `json:"rut" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
	Age      *int   `json:"age" validate:"omitempty,min=0,max=120"`
}

type SetAccreditationRequest struct {
	Accredited *bool `json:"accredited" validate:"required"`
}

// CreateMember registers an attendee and issues their meal tickets
// @Summary Register member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateMemberRequest true "Member data"
// @Success 201 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /members [post]
func (h *Handler) CreateMember(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	var req CreateMemberRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	member, err := h.memberSvc.CreateMember(principal, services.CreateMemberRequest{
		ChurchID: req.ChurchID,
		RUT:      req.RUT,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Age:      req.Age,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, member, "Member registered successfully", fiber.StatusCreated)
}

// GetMember returns a member record, access-scoped by role
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} utils.Response
// @Router /members/{id} [get]
func (h *Handler) GetMember(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	memberID := c.Params("id")
	if _, err := uuid.Parse(memberID); err != nil {
		return utils.Error(c, "Invalid member ID format", fiber.StatusBadRequest)
	}

	member, err := h.memberSvc.GetMember(principal, memberID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, member, "Member retrieved successfully")
}

// GetMemberTickets lists a member's tickets
// @Summary Get member tickets
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} utils.Response
// @Router /members/{id}/tickets [get]
func (h *Handler) GetMemberTickets(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	memberID := c.Params("id")
	if _, err := uuid.Parse(memberID); err != nil {
		return utils.Error(c, "Invalid member ID format", fiber.StatusBadRequest)
	}

	tickets, err := h.memberSvc.GetMemberTickets(principal, memberID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, tickets, "Tickets retrieved successfully")
}

// DeleteMember removes a member and cascades their tickets
// @Summary Delete member
// @Tags Members
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /members/{id} [delete]
func (h *Handler) DeleteMember(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	memberID := c.Params("id")
	if _, err := uuid.Parse(memberID); err != nil {
		return utils.Error(c, "Invalid member ID format", fiber.StatusBadRequest)
	}

	if err := h.memberSvc.DeleteMember(principal.Role, memberID); err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, nil, "Member deleted successfully")
}

// SetAccreditation toggles a member's accredited flag
// @Summary Set accreditation
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param request body SetAccreditationRequest true "Accreditation flag"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /members/{id}/accreditation [patch]
func (h *Handler) SetAccreditation(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	memberID := c.Params("id")
	if _, err := uuid.Parse(memberID); err != nil {
		return utils.Error(c, "Invalid member ID format", fiber.StatusBadRequest)
	}

	var req SetAccreditationRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.accredSvc.SetAccreditation(principal.Role, memberID, *req.Accredited)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, "Accreditation updated successfully")
}

// ListChurchMembers returns a paginated member list for a church
// @Summary List church members
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Church ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} utils.Response
// @Router /churches/{id}/members [get]
func (h *Handler) ListChurchMembers(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	churchID := c.Params("id")
	if _, err := uuid.Parse(churchID); err != nil {
		return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	members, total, totalPages, err := h.memberSvc.ListMembersByChurch(principal, churchID, page, pageSize)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.SuccessWithMeta(c, members, &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}, "Members retrieved successfully")
}

// ImportMembers bulk-registers members from an uploaded CSV
// @Summary Import members
// @Description CSV columns: rut, full_name, email, phone. One createMember per row; row failures are collected, not fatal.
// @Tags Members
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param church_id formData string true "Church ID"
// @Param file formData file true "CSV file"
// @Success 200 {object} utils.Response
// @Router /members/import [post]
func (h *Handler) ImportMembers(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	churchID := c.FormValue("church_id")
	if _, err := uuid.Parse(churchID); err != nil {
		return utils.Error(c, "Invalid church ID format", fiber.StatusBadRequest)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, "CSV file is required", fiber.StatusBadRequest)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, "Failed to open uploaded file", fiber.StatusBadRequest)
	}
	defer file.Close()

	rows, err := parseMemberCSV(file)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	result, err := h.memberSvc.ImportMembers(principal, churchID, rows)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, fmt.Sprintf("Imported %d members, %d failed", result.Imported, result.Failed))
}

func parseMemberCSV(r io.Reader) ([]services.MemberImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	// Skip a header row if the first cell doesn't look like a RUT.
	start := 0
	if len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "rut") {
		start = 1
	}

	rows := make([]services.MemberImportRow, 0, len(records)-start)
	for _, record := range records[start:] {
		row := services.MemberImportRow{}
		if len(record) > 0 {
			row.RUT = record[0]
		}
		if len(record) > 1 {
			row.FullName = record[1]
		}
		if len(record) > 2 {
			row.Email = record[2]
		}
		if len(record) > 3 {
			row.Phone = record[3]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
