package main

import (
	"fmt"
	"log"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/database"
	"github.com/metroshica/foxhole-quartermaster-sub001/migration"
	"github.com/metroshica/foxhole-quartermaster-sub001/routes"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.LoadConfig()

	app := fiber.New()

	database.EnsureDatabaseExists(config.DBName)

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	idgen.Init()

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	war := services.NewWarService(rdb)

	config.SetupCORS(app)

	routes.SetupAuthRoutes(app, db)
	routes.SetupProductionRoutes(app, db, war)
	routes.SetupStockpileRoutes(app, db, war)
	routes.SetupOperationRoutes(app, db)
	routes.SetupActivityRoutes(app, db)
	routes.SetupStatsRoutes(app, db, war)
	routes.SetupRegimentRoutes(app, db)

	port := config.APP_PORT
	fmt.Println("🚀 Server running on port " + port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
