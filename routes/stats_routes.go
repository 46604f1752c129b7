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

func SetupStatsRoutes(app *fiber.App, db *gorm.DB, war *services.WarService) {
	statsController := controllers.NewStatsController(db, war)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/stats", auth.RequireAuth)
	api.Get("/production", auth.CheckPermission(models.PermStatsView), statsController.ProductionLeaderboard)
	api.Get("/logistics", auth.CheckPermission(models.PermStatsView), statsController.LogisticsLeaderboard)
}
