package handlers

import (
	"accreditation-backend/internal/config"
	"accreditation-backend/internal/middleware"
	"accreditation-backend/internal/services"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	authSvc       *services.AuthService
	memberSvc     *services.MemberService
	accredSvc     *services.AccreditationService
	churchSvc     *services.ChurchService
	redemptionSvc services.RedemptionService
	cfg           *config.Config
}

func NewHandler(
	authSvc *services.AuthService,
	memberSvc *services.MemberService,
	accredSvc *services.AccreditationService,
	churchSvc *services.ChurchService,
	redemptionSvc services.RedemptionService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authSvc:       authSvc,
		memberSvc:     memberSvc,
		accredSvc:     accredSvc,
		churchSvc:     churchSvc,
		redemptionSvc: redemptionSvc,
		cfg:           cfg,
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	// Public routes
	auth := router.Group("/auth")
	{
		auth.Post("/login", h.Login)
	}

	// Protected routes (JWT required)
	protected := router.Group("", middleware.JWTMiddleware(h.cfg))
	{
		protected.Get("/profile", h.GetProfile)

		// Directory (read-only)
		protected.Get("/regions", h.ListRegions)
		protected.Get("/zones", h.ListZones)

		// Churches
		churches := protected.Group("/churches")
		{
			churches.Get("/", h.ListChurches)
			churches.Get("/:id", h.GetChurch)
			churches.Get("/:id/stats", h.GetChurchStats)
			churches.Get("/:id/members", middleware.RegistrarOnly, h.ListChurchMembers)
			churches.Post("/", middleware.AdminOnly, h.CreateChurch)
			churches.Delete("/:id", middleware.AdminOnly, h.DeleteChurch)
		}

		// Members
		members := protected.Group("/members")
		{
			members.Post("/", middleware.RegistrarOnly, h.CreateMember)
			members.Post("/import", middleware.RegistrarOnly, h.ImportMembers)
			members.Get("/:id", h.GetMember)
			members.Get("/:id/tickets", h.GetMemberTickets)
			members.Delete("/:id", middleware.AdminOnly, h.DeleteMember)
			members.Patch("/:id/accreditation", middleware.AdminOnly, h.SetAccreditation)
		}

		// Redemption (kitchen staff)
		protected.Post("/redeem", middleware.KitchenOnly, h.RedeemTicket)
		protected.Get("/tickets/stats", middleware.KitchenOnly, h.GetMealStats)
		protected.Get("/tickets/:code/status", middleware.KitchenOnly, h.GetTicketStatus)

		// Admin only
		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly)
		{
			admin.Post("/users", h.CreateStaffUser)
		}
	}
}

// ErrorHandler handles global errors
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		logrus.WithError(err).Error("unhandled error")
	}

	return utils.Error(c, message, code)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) handleServiceError(c *fiber.Ctx, err error) error {
	serr, ok := err.(*services.ServiceError)
	if !ok {
		logrus.WithError(err).Error("unexpected service failure")
		return utils.Error(c, "Internal server error", fiber.StatusInternalServerError)
	}

	status := fiber.StatusInternalServerError
	switch serr.Code {
	case services.ErrInvalidInput, services.ErrInvalidCode:
		status = fiber.StatusBadRequest
	case services.ErrNotFound:
		status = fiber.StatusNotFound
	case services.ErrForbidden:
		status = fiber.StatusForbidden
	case services.ErrDuplicateIdentity, services.ErrCapacityExceeded,
		services.ErrAlreadyRedeemed, services.ErrConflict, services.ErrAlreadyIssued:
		status = fiber.StatusConflict
	case services.ErrDatabaseError:
		logrus.WithError(serr).Error("database failure")
		status = fiber.StatusInternalServerError
	}

	if serr.Payload != nil {
		return utils.ErrorWithData(c, serr.Message, serr.Payload, status)
	}
	return utils.Error(c, serr.Message, status)
}
