package middleware

import (
	"strings"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuthMiddleware struct {
	DB *gorm.DB
}

func NewAuthMiddleware(db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{DB: db}
}

// RequireAuth validates the bearer/cookie JWT, checks the session row is
// still active and stores the caller's identity and regiment in Locals.
func (a *AuthMiddleware) RequireAuth(ctx *fiber.Ctx) error {
	tokenString := ""

	authHeader := ctx.Get("Authorization")
	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid Authorization header format",
			})
		}
		tokenString = tokenParts[1]
	} else {
		tokenString = ctx.Cookies("session_token")
	}

	if tokenString == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Missing Authorization header",
		})
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: Invalid signing method")
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid token",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid token",
		})
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid user ID",
		})
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid sessionID",
		})
	}

	regimentID, ok := claims["regiment_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid regiment",
		})
	}

	var userSnowflake, regimentSnowflake types.SnowflakeID
	if err := userSnowflake.UnmarshalJSON([]byte(`"` + userID + `"`)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid user ID",
		})
	}
	if err := regimentSnowflake.UnmarshalJSON([]byte(`"` + regimentID + `"`)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid regiment",
		})
	}

	userSession := models.UserSession{}
	if err := a.DB.Where("session_id = ? AND is_active = ? AND expires_at > ?", sessionID, true, time.Now()).
		First(&userSession).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid sessionID",
		})
	}

	userSession.LastActivityAt = time.Now()
	a.DB.Save(&userSession)

	ctx.Locals("userID", userSnowflake)
	ctx.Locals("sessionID", sessionID)
	ctx.Locals("regimentID", regimentSnowflake)

	return ctx.Next()
}

// CheckPermission gates a route on one permission name. The caller's
// permission set is the union of their roles' permissions; a super-admin
// role or the ADMIN member level grants everything.
func (a *AuthMiddleware) CheckPermission(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(types.SnowflakeID)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: Invalid user ID",
			})
		}
		regimentID, ok := c.Locals("regimentID").(types.SnowflakeID)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: Invalid regiment",
			})
		}

		var member models.RegimentMember
		if err := a.DB.Preload("Roles.Permissions").
			Where("regiment_id = ? AND user_id = ?", regimentID, userID).
			First(&member).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden: Not a member of this regiment",
			})
		}

		if member.PermissionLevel == models.PermissionLevelAdmin {
			c.Locals("member", member)
			return c.Next()
		}

		userPermissions := map[string]bool{}
		for _, role := range member.Roles {
			if role.IsSuperAdmin {
				c.Locals("member", member)
				return c.Next()
			}
			for _, perm := range role.Permissions {
				userPermissions[perm.Permission] = true
			}
		}

		if _, exists := userPermissions[requiredPermission]; !exists {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,
				"permission": requiredPermission,
			}).Debug("Permission denied")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden: You do not have permission",
			})
		}

		c.Locals("member", member)
		return c.Next()
	}
}
