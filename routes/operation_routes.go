package routes

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/middleware"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupOperationRoutes(app *fiber.App, db *gorm.DB) {
	operationController := controllers.NewOperationController(db)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/operations", auth.RequireAuth)

	api.Get("/", auth.CheckPermission(models.PermOperationView), operationController.ListOperations)
	api.Get("/:id", auth.CheckPermission(models.PermOperationView), operationController.GetOperation)
	api.Post("/", auth.CheckPermission(models.PermOperationEdit), operationController.CreateOperation)
	api.Put("/:id", auth.CheckPermission(models.PermOperationEdit), operationController.UpdateOperation)
	api.Delete("/:id", auth.CheckPermission(models.PermOperationEdit), operationController.DeleteOperation)
}
