package routes

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/middleware"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controllers.NewAuthController(db, services.NewDiscordService())
	auth := middleware.NewAuthMiddleware(db)

	api := app.Group(config.MAIN_ROUTES + "/auth")
	api.Get("/login", authController.Login)
	api.Get("/callback", authController.Callback)

	session := app.Group(config.MAIN_ROUTES+"/auth", auth.RequireAuth)
	session.Post("/regiment", authController.SelectRegiment)
	session.Get("/me", authController.Me)
	session.Get("/logout", authController.Logout)
}
