package controllers

import (
	"errors"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/database"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const oauthStateCookie = "oauth_state"

type AuthController struct {
	DB      *gorm.DB
	Discord *services.DiscordService
}

func NewAuthController(DB *gorm.DB, discord *services.DiscordService) *AuthController {
	return &AuthController{DB: DB, Discord: discord}
}

// Login starts the Discord OAuth flow. The state nonce goes into a
// short-lived cookie and is checked on callback.
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	state := uuid.New().String()
	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
		Secure:   config.CookieSecure,
	})
	return ctx.Redirect(c.Discord.AuthorizeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback finishes the OAuth flow: exchanges the code, upserts the user
// and issues a session token without a regiment yet. The client follows
// up with SelectRegiment.
func (c *AuthController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" || state != ctx.Cookies(oauthStateCookie) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Invalid OAuth state",
		})
	}
	ctx.ClearCookie(oauthStateCookie)

	accessToken, err := c.Discord.ExchangeCode(ctx.Context(), code)
	if err != nil {
		logrus.WithError(err).Error("Discord token exchange failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Discord login failed",
		})
	}

	identity, err := c.Discord.FetchUser(ctx.Context(), accessToken)
	if err != nil {
		logrus.WithError(err).Error("Discord identity lookup failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: Discord login failed",
		})
	}

	var user models.User
	err = c.DB.Where("discord_id = ?", identity.ID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			DiscordID: identity.ID,
			Name:      identity.Username,
			Avatar:    identity.Avatar,
		}
		if err := c.DB.Create(&user).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
		}
	case err != nil:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		user.Name = identity.Username
		user.Avatar = identity.Avatar
		c.DB.Save(&user)
	}

	session := models.UserSession{
		UserID:         user.ID,
		SessionID:      uuid.New().String(),
		IPAddress:      ctx.IP(),
		UserAgent:      ctx.Get("User-Agent"),
		IsActive:       true,
		LastActivityAt: time.Now(),
		ExpiresAt:      time.Now().Add(time.Duration(config.JWTExpiration) * time.Second),
	}
	if err := c.DB.Create(&session).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	// The Discord access token rides inside the JWT so SelectRegiment can
	// run the role sync without storing it.
	token, err := c.signToken(user.ID, session.SessionID, 0, accessToken)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign token"})
	}
	ctx.Cookie(config.GetTokenCookie(token))

	guilds, err := c.Discord.FetchGuilds(ctx.Context(), accessToken)
	if err != nil {
		logrus.WithError(err).Warn("Discord guild lookup failed")
		guilds = nil
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Logged in successfully",
		"data": fiber.Map{
			"user":   user,
			"guilds": guilds,
			"token":  token,
		},
	})
}

type selectRegimentInput struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	GuildIcon string `json:"guild_icon"`
}

// SelectRegiment binds the session to one regiment. A guild seen for the
// first time gets a regiment row, its default roles, and the selecting
// user as ADMIN. Role assignments are synced from Discord role mappings
// on every selection.
func (c *AuthController) SelectRegiment(ctx *fiber.Ctx) error {
	userID := ctx.Locals("userID").(types.SnowflakeID)
	sessionID := ctx.Locals("sessionID").(string)

	var input selectRegimentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.GuildID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "guild_id is required"})
	}

	var regiment models.Regiment
	isNew := false
	err := c.DB.Where("discord_guild_id = ?", input.GuildID).First(&regiment).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		regiment = models.Regiment{
			DiscordGuildID: input.GuildID,
			Name:           input.GuildName,
			Icon:           input.GuildIcon,
		}
		if err := c.DB.Create(&regiment).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create regiment"})
		}
		if err := database.EnsureDefaultRoles(c.DB, regiment.ID); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to seed roles"})
		}
		isNew = true
	case err != nil:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var member models.RegimentMember
	err = c.DB.Where("regiment_id = ? AND user_id = ?", regiment.ID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		member = models.RegimentMember{
			RegimentID:      regiment.ID,
			UserID:          userID,
			PermissionLevel: models.PermissionLevelViewer,
		}
		// The founding member runs the regiment.
		if isNew {
			member.PermissionLevel = models.PermissionLevelAdmin
		}
		if err := c.DB.Create(&member).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join regiment"})
		}
	} else if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if accessToken := c.accessTokenFromRequest(ctx); accessToken != "" {
		if err := c.syncMemberRoles(ctx, accessToken, &regiment, &member); err != nil {
			// Role sync is best effort; a Discord hiccup must not block
			// regiment selection.
			logrus.WithError(err).Warn("Discord role sync failed")
		}
	}

	if err := c.DB.Model(&models.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("regiment_id", regiment.ID).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := c.signToken(userID, sessionID, regiment.ID, "")
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign token"})
	}
	ctx.Cookie(config.GetTokenCookie(token))

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Regiment selected",
		"data": fiber.Map{
			"regiment":         regiment,
			"permission_level": member.PermissionLevel,
			"token":            token,
		},
	})
}

// Me returns the caller's identity, regiment membership and effective
// permission set.
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	userID := ctx.Locals("userID").(types.SnowflakeID)
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var user models.User
	if err := c.DB.First(&user, int64(userID)).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	response := fiber.Map{"user": user}

	if regimentID != 0 {
		var regiment models.Regiment
		if err := c.DB.First(&regiment, int64(regimentID)).Error; err == nil {
			response["regiment"] = regiment
		}
		var member models.RegimentMember
		if err := c.DB.Preload("Roles.Permissions").
			Where("regiment_id = ? AND user_id = ?", regimentID, userID).
			First(&member).Error; err == nil {
			permissions := map[string]bool{}
			isAdmin := member.PermissionLevel == models.PermissionLevelAdmin
			for _, role := range member.Roles {
				if role.IsSuperAdmin {
					isAdmin = true
				}
				for _, perm := range role.Permissions {
					permissions[perm.Permission] = true
				}
			}
			if isAdmin {
				for _, perm := range models.AllPermissions {
					permissions[perm] = true
				}
			}
			names := make([]string, 0, len(permissions))
			for perm := range permissions {
				names = append(names, perm)
			}
			response["permission_level"] = member.PermissionLevel
			response["permissions"] = names
		}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

// Logout deactivates the session and clears the cookie.
func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	sessionID := ctx.Locals("sessionID").(string)

	if err := c.DB.Model(&models.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("is_active", false).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.ClearCookie("session_token")
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

func (c *AuthController) signToken(userID types.SnowflakeID, sessionID string, regimentID types.SnowflakeID, accessToken string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":     userID.String(),
		"session_id":  sessionID,
		"regiment_id": regimentID.String(),
		"exp":         time.Now().Add(time.Duration(config.JWTExpiration) * time.Second).Unix(),
	}
	if accessToken != "" {
		claims["discord_token"] = accessToken
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// accessTokenFromRequest digs the one-shot Discord access token out of
// the caller's JWT, if it is still present.
func (c *AuthController) accessTokenFromRequest(ctx *fiber.Ctx) string {
	tokenString := ctx.Cookies("session_token")
	if auth := ctx.Get("Authorization"); len(auth) > 7 {
		tokenString = auth[7:]
	}
	if tokenString == "" {
		return ""
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	accessToken, _ := claims["discord_token"].(string)
	return accessToken
}

// syncMemberRoles mirrors the user's Discord guild roles onto application
// roles through the regiment's role mappings.
func (c *AuthController) syncMemberRoles(ctx *fiber.Ctx, accessToken string, regiment *models.Regiment, member *models.RegimentMember) error {
	discordRoles, err := c.Discord.FetchMemberRoles(ctx.Context(), accessToken, regiment.DiscordGuildID)
	if err != nil {
		return err
	}

	var roles []models.Role
	if err := c.DB.Where("regiment_id = ?", regiment.ID).Find(&roles).Error; err != nil {
		return err
	}
	roleByID := make(map[types.SnowflakeID]models.Role, len(roles))
	roleIDs := make([]types.SnowflakeID, 0, len(roles))
	for _, role := range roles {
		roleByID[role.ID] = role
		roleIDs = append(roleIDs, role.ID)
	}

	var mappings []models.RoleDiscordMapping
	if len(roleIDs) > 0 {
		if err := c.DB.Where("role_id IN ?", roleIDs).Find(&mappings).Error; err != nil {
			return err
		}
	}

	has := make(map[string]bool, len(discordRoles))
	for _, id := range discordRoles {
		has[id] = true
	}

	mapped := make([]models.Role, 0)
	seen := make(map[types.SnowflakeID]bool)
	for _, mapping := range mappings {
		if has[mapping.DiscordRoleID] && !seen[mapping.RoleID] {
			if role, ok := roleByID[mapping.RoleID]; ok {
				mapped = append(mapped, role)
				seen[mapping.RoleID] = true
			}
		}
	}
	// Default roles apply to everyone regardless of Discord state.
	for _, role := range roles {
		if role.IsDefault && !seen[role.ID] {
			mapped = append(mapped, role)
			seen[role.ID] = true
		}
	}

	return c.DB.Model(member).Association("Roles").Replace(mapped)
}
