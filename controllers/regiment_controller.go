package controllers

import (
	"errors"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegimentController covers role administration: role CRUD, the Discord
// role mappings used by login-time sync, and member permission levels.
type RegimentController struct {
	DB *gorm.DB
}

func NewRegimentController(DB *gorm.DB) *RegimentController {
	return &RegimentController{DB: DB}
}

func (c *RegimentController) ListRoles(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var roles []models.Role
	if err := c.DB.Preload("Permissions").Where("regiment_id = ?", regimentID).
		Order("position, name").Find(&roles).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"roles": roles, "permission_catalog": models.AllPermissions},
	})
}

type roleInput struct {
	Name        string   `json:"name" validate:"required,min=2"`
	Description string   `json:"description"`
	IsDefault   bool     `json:"is_default"`
	Position    int      `json:"position"`
	Permissions []string `json:"permissions"`
}

func (c *RegimentController) CreateRole(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var input roleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validatePermissions(input.Permissions); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.Role
	if err := c.DB.Where("regiment_id = ? AND name = ?", regimentID, input.Name).First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A role with this name already exists",
		})
	}

	role := models.Role{
		RegimentID:  regimentID,
		Name:        input.Name,
		Description: input.Description,
		IsDefault:   input.IsDefault,
		Position:    input.Position,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		for _, perm := range input.Permissions {
			rp := models.RolePermission{RoleID: role.ID, Permission: perm}
			if err := tx.Create(&rp).Error; err != nil {
				return err
			}
			role.Permissions = append(role.Permissions, rp)
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create role")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create role"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Role created successfully",
		"data":    role,
	})
}

func (c *RegimentController) UpdateRole(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	role, err := c.findRole(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input roleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validatePermissions(input.Permissions); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Name != role.Name {
		var existing models.Role
		if err := c.DB.Where("regiment_id = ? AND name = ? AND id <> ?",
			regimentID, input.Name, role.ID).First(&existing).Error; err == nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A role with this name already exists",
			})
		}
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		role.Name = input.Name
		role.Description = input.Description
		role.IsDefault = input.IsDefault
		role.Position = input.Position
		if err := tx.Save(role).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		role.Permissions = role.Permissions[:0]
		for _, perm := range input.Permissions {
			rp := models.RolePermission{RoleID: role.ID, Permission: perm}
			if err := tx.Create(&rp).Error; err != nil {
				return err
			}
			role.Permissions = append(role.Permissions, rp)
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to update role")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update role"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Role updated successfully",
		"data":    role,
	})
}

func (c *RegimentController) DeleteRole(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	role, err := c.findRole(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if role.IsSuperAdmin {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "The super-admin role cannot be deleted",
			"reason": "protected_role",
		})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleDiscordMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("delete from regiment_member_roles where role_id = ?", int64(role.ID)).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, int64(role.ID)).Error
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to delete role")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete role"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Role deleted",
	})
}

type mappingInput struct {
	DiscordRoleID string `json:"discord_role_id" validate:"required"`
}

func (c *RegimentController) AddRoleMapping(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	role, err := c.findRole(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input mappingInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.RoleDiscordMapping
	if err := c.DB.Where("role_id = ? AND discord_role_id = ?", role.ID, input.DiscordRoleID).
		First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Mapping already exists",
		})
	}

	mapping := models.RoleDiscordMapping{RoleID: role.ID, DiscordRoleID: input.DiscordRoleID}
	if err := c.DB.Create(&mapping).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create mapping"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Mapping created",
		"data":    mapping,
	})
}

func (c *RegimentController) RemoveRoleMapping(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	role, err := c.findRole(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	result := c.DB.Where("role_id = ? AND discord_role_id = ?", role.ID, ctx.Params("discordRoleID")).
		Delete(&models.RoleDiscordMapping{})
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": result.Error.Error()})
	}
	if result.RowsAffected == 0 {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mapping not found"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Mapping removed",
	})
}

func (c *RegimentController) ListMembers(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var members []models.RegimentMember
	if err := c.DB.Preload("User").Preload("Roles").
		Where("regiment_id = ?", regimentID).Find(&members).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"members": members, "member_count": len(members)},
	})
}

type memberLevelInput struct {
	PermissionLevel string `json:"permission_level" validate:"required,oneof=VIEWER EDITOR ADMIN"`
}

func (c *RegimentController) SetMemberLevel(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	callerID := ctx.Locals("userID").(types.SnowflakeID)

	var memberID types.SnowflakeID
	if err := memberID.UnmarshalJSON([]byte(`"` + ctx.Params("id") + `"`)); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	var member models.RegimentMember
	if err := c.DB.Where("regiment_id = ?", regimentID).First(&member, int64(memberID)).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	if member.UserID == callerID {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "You cannot change your own permission level",
			"reason": "self_demotion",
		})
	}

	var input memberLevelInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := c.DB.Model(&models.RegimentMember{}).
		Where("id = ?", member.ID).
		Update("permission_level", input.PermissionLevel).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Member updated",
	})
}

func (c *RegimentController) findRole(regimentID types.SnowflakeID, param string) (*models.Role, error) {
	var id types.SnowflakeID
	if err := id.UnmarshalJSON([]byte(`"` + param + `"`)); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var role models.Role
	if err := c.DB.Preload("Permissions").Where("regiment_id = ?", regimentID).
		First(&role, int64(id)).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func validatePermissions(perms []string) error {
	known := make(map[string]bool, len(models.AllPermissions))
	for _, perm := range models.AllPermissions {
		known[perm] = true
	}
	for _, perm := range perms {
		if !known[perm] {
			return errors.New("unknown permission: " + perm)
		}
	}
	return nil
}
