package routes

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/middleware"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupActivityRoutes(app *fiber.App, db *gorm.DB) {
	activityController := controllers.NewActivityController(db)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/activity", auth.RequireAuth)
	api.Get("/", auth.CheckPermission(models.PermProductionView), activityController.GetFeed)
}
