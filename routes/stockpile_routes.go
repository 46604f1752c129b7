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

func SetupStockpileRoutes(app *fiber.App, db *gorm.DB, war *services.WarService) {
	stockpileController := controllers.NewStockpileController(db, services.NewScannerService(), war)
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES+"/stockpiles", auth.RequireAuth)

	api.Get("/", auth.CheckPermission(models.PermStockpileView), stockpileController.ListStockpiles)
	api.Get("/inventory", auth.CheckPermission(models.PermStockpileView), stockpileController.InventorySummary)
	api.Get("/inventory/export", auth.CheckPermission(models.PermStockpileView), stockpileController.ExportInventory)
	api.Get("/find", auth.CheckPermission(models.PermStockpileView), stockpileController.FindItem)
	api.Get("/:id", auth.CheckPermission(models.PermStockpileView), stockpileController.GetStockpile)
	api.Post("/", auth.CheckPermission(models.PermStockpileEdit), stockpileController.CreateStockpile)
	api.Put("/:id", auth.CheckPermission(models.PermStockpileEdit), stockpileController.UpdateStockpile)
	api.Delete("/:id", auth.CheckPermission(models.PermStockpileEdit), stockpileController.DeleteStockpile)
	api.Post("/:id/scan", auth.CheckPermission(models.PermStockpileScan), stockpileController.ScanStockpile)
	api.Post("/:id/refresh", auth.CheckPermission(models.PermStockpileEdit), stockpileController.RefreshStockpile)
	api.Get("/:id/minimums", auth.CheckPermission(models.PermStockpileView), stockpileController.GetMinimums)
	api.Put("/:id/minimums", auth.CheckPermission(models.PermStockpileEdit), stockpileController.SetMinimums)
}
