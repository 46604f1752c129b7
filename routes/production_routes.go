package routes

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/middleware"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupProductionRoutes(app *fiber.App, db *gorm.DB, war *services.WarService) {
	productionController := controllers.NewProductionController(db, war)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/orders/production", auth.RequireAuth)

	api.Get("/", auth.CheckPermission(models.PermProductionView), productionController.ListOrders)
	api.Get("/:id", auth.CheckPermission(models.PermProductionView), productionController.GetOrder)
	api.Post("/", auth.CheckPermission(models.PermProductionCreate), productionController.CreateOrder)
	api.Put("/:id", auth.CheckPermission(models.PermProductionEdit), productionController.UpdateOrder)
	api.Put("/:id/items", auth.CheckPermission(models.PermProductionEdit), productionController.UpdateItems)
	api.Post("/:id/submit", auth.CheckPermission(models.PermProductionEdit), productionController.SubmitMpf)
	api.Post("/:id/complete", auth.CheckPermission(models.PermProductionEdit), productionController.CompleteMpf)
	api.Post("/:id/archive", auth.CheckPermission(models.PermProductionEdit), productionController.ArchiveOrder)
	api.Delete("/:id", auth.CheckPermission(models.PermProductionDelete), productionController.DeleteOrder)
}
