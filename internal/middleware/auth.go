package middleware

import (
	"accreditation-backend/internal/config"
	"accreditation-backend/internal/models"
	"accreditation-backend/internal/services"
	"accreditation-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(cfg.JWTSecret),
		ContextKey:   "user",
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			user := c.Locals("user").(*jwt.Token)
			claims := user.Claims.(jwt.MapClaims)
			c.Locals("user_id", claims["user_id"])
			c.Locals("user_role", claims["role"])
			if churchID, ok := claims["church_id"]; ok {
				c.Locals("church_id", churchID)
			}
			return c.Next()
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	return utils.Error(c, "Unauthorized", fiber.StatusUnauthorized)
}

// PrincipalFromContext rebuilds the caller's principal from the verified
// JWT claims. Services still re-check capabilities; this only carries
// identity and claimed role into them.
func PrincipalFromContext(c *fiber.Ctx) (*services.Principal, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok || userIDStr == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user identity")
	}

	roleStr, _ := c.Locals("user_role").(string)
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Unknown role")
	}

	principal := &services.Principal{
		UserID: userID,
		Role:   role,
	}

	if churchIDStr, ok := c.Locals("church_id").(string); ok && churchIDStr != "" {
		if churchID, err := uuid.Parse(churchIDStr); err == nil {
			principal.ChurchID = &churchID
		}
	}

	return principal, nil
}

func GetUserIDFromContext(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}

func roleFromContext(c *fiber.Ctx) (models.Role, bool) {
	roleStr, ok := c.Locals("user_role").(string)
	if !ok {
		return "", false
	}
	return models.ParseRole(roleStr)
}

// AdminOnly gates administration endpoints: accreditation, member
// deletion, church and staff management.
func AdminOnly(c *fiber.Ctx) error {
	role, ok := roleFromContext(c)
	if !ok || role != models.RoleAdmin {
		return utils.Error(c, "Admin access required", fiber.StatusForbidden)
	}
	return c.Next()
}

// RegistrarOnly gates member registration: administrators and church
// monitors. The service layer additionally scopes monitors to their church.
func RegistrarOnly(c *fiber.Ctx) error {
	role, ok := roleFromContext(c)
	if !ok {
		return utils.Error(c, "Access denied", fiber.StatusForbidden)
	}
	switch role {
	case models.RoleAdmin, models.RoleMonitor:
		return c.Next()
	case models.RoleCocina, models.RoleAttendee:
		return utils.Error(c, "Monitor or admin access required", fiber.StatusForbidden)
	}
	return utils.Error(c, "Access denied", fiber.StatusForbidden)
}

// KitchenOnly gates redemption: kitchen staff and administrators.
func KitchenOnly(c *fiber.Ctx) error {
	role, ok := roleFromContext(c)
	if !ok {
		return utils.Error(c, "Access denied", fiber.StatusForbidden)
	}
	switch role {
	case models.RoleAdmin, models.RoleCocina:
		return c.Next()
	case models.RoleMonitor, models.RoleAttendee:
		return utils.Error(c, "Kitchen or admin access required", fiber.StatusForbidden)
	}
	return utils.Error(c, "Access denied", fiber.StatusForbidden)
}
