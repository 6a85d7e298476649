package handlers

import (
	"accreditation-backend/internal/middleware"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type RedeemRequest struct {
	QRCode string `json:"qr_code" validate:"required"`
}

// RedeemTicket consumes a scanned meal coupon
// @Summary Redeem ticket
// @Description Marks the ticket used, at most once per code. A lost race and an already-consumed coupon both return 409.
// @Tags Redemption
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemRequest true "Scanned QR code"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /redeem [post]
func (h *Handler) RedeemTicket(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return err
	}

	var req RedeemRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	ticket, err := h.redemptionSvc.Redeem(principal, req.QRCode)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, ticket, "Ticket redeemed successfully")
}

// GetTicketStatus returns a ticket's current state without mutating it.
// Scanning clients call this after a timeout instead of re-submitting the
// redemption.
// @Summary Get ticket status
// @Tags Redemption
// @Produce json
// @Security BearerAuth
// @Param code path string true "QR code"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /tickets/{code}/status [get]
func (h *Handler) GetTicketStatus(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.Error(c, "QR code is required", fiber.StatusBadRequest)
	}

	ticket, err := h.redemptionSvc.TicketStatus(code)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, ticket, "Ticket status retrieved successfully")
}

// GetMealStats returns per-category consumption counts
// @Summary Get meal stats
// @Tags Redemption
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /tickets/stats [get]
func (h *Handler) GetMealStats(c *fiber.Ctx) error {
	stats, err := h.redemptionSvc.MealStats()
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, stats, "Meal stats retrieved successfully")
}
