package controllers

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/repositories"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsController struct {
	DB  *gorm.DB
	War *services.WarService
}

func NewStatsController(DB *gorm.DB, war *services.WarService) *StatsController {
	return &StatsController{DB: DB, War: war}
}

// ProductionLeaderboard ranks members by contributed production units.
// `war=current` scopes it to the ongoing war; a numeric value picks one.
func (c *StatsController) ProductionLeaderboard(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	limit := ctx.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	warNumber := 0
	switch war := ctx.Query("war"); war {
	case "", "all":
	case "current":
		warNumber = c.War.CurrentWarNumber(ctx.Context())
	default:
		warNumber = ctx.QueryInt("war", 0)
	}

	repo := repositories.NewStatsRepository(c.DB)
	rows, err := repo.ProductionLeaderboard(regimentID, warNumber, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"leaderboard": rows, "war_number": warNumber},
	})
}

// LogisticsLeaderboard ranks members by scan and refresh activity.
func (c *StatsController) LogisticsLeaderboard(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	limit := ctx.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo := repositories.NewStatsRepository(c.DB)
	rows, err := repo.LogisticsLeaderboard(regimentID, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"leaderboard": rows},
	})
}
