package routes

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/middleware"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRegimentRoutes(app *fiber.App, db *gorm.DB) {
	regimentController := controllers.NewRegimentController(db)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/regiment", auth.RequireAuth, auth.CheckPermission(models.PermRegimentManage))

	api.Get("/roles", regimentController.ListRoles)
	api.Post("/roles", regimentController.CreateRole)
	api.Put("/roles/:id", regimentController.UpdateRole)
	api.Delete("/roles/:id", regimentController.DeleteRole)
	api.Post("/roles/:id/mappings", regimentController.AddRoleMapping)
	api.Delete("/roles/:id/mappings/:discordRoleID", regimentController.RemoveRoleMapping)
	api.Get("/members", regimentController.ListMembers)
	api.Put("/members/:id", regimentController.SetMemberLevel)
}
