package controllers

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"
	"github.com/metroshica/foxhole-quartermaster-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ActivityController struct {
	DB *gorm.DB
}

func NewActivityController(DB *gorm.DB) *ActivityController {
	return &ActivityController{DB: DB}
}

// GetFeed returns the regiment's most recent activity, newest first.
func (c *ActivityController) GetFeed(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	limit := ctx.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityLog
	if err := c.DB.Where("regiment_id = ?", regimentID).
		Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	actorIDs := make([]types.SnowflakeID, 0, len(entries))
	seen := map[types.SnowflakeID]bool{}
	for _, entry := range entries {
		if !seen[entry.ActorID] {
			actorIDs = append(actorIDs, entry.ActorID)
			seen[entry.ActorID] = true
		}
	}

	names := map[types.SnowflakeID]string{}
	if len(actorIDs) > 0 {
		var users []models.User
		if err := c.DB.Where("id IN ?", actorIDs).Find(&users).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		for _, user := range users {
			names[user.ID] = user.Name
		}
	}

	feed := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		feed = append(feed, fiber.Map{
			"ID":         entry.ID,
			"type":       entry.Type,
			"actor":      names[entry.ActorID],
			"ref_no":     entry.RefNo,
			"detail":     entry.Detail,
			"created_at": entry.CreatedAt,
			"relative":   utils.FormatRelativeTime(entry.CreatedAt),
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"feed": feed, "entry_count": len(feed)},
	})
}
