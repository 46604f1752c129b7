package controllers

import (
	"errors"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/repositories"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OperationController struct {
	DB *gorm.DB
}

func NewOperationController(DB *gorm.DB) *OperationController {
	return &OperationController{DB: DB}
}

type operationRequirementInput struct {
	ItemCode string `json:"item_code" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type operationInput struct {
	Name                   string                      `json:"name" validate:"required,min=3"`
	Description            string                      `json:"description"`
	Status                 string                      `json:"status" validate:"omitempty,oneof=PLANNED ACTIVE COMPLETED CANCELLED"`
	StartAt                *time.Time                  `json:"start_at"`
	DestinationStockpileID *types.SnowflakeID          `json:"destination_stockpile_id"`
	Requirements           []operationRequirementInput `json:"requirements" validate:"dive"`
}

func (c *OperationController) CreateOperation(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	var input operationInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.DestinationStockpileID != nil {
		var stockpile models.Stockpile
		if err := c.DB.Where("id = ? AND regiment_id = ?", *input.DestinationStockpileID, regimentID).
			First(&stockpile).Error; err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination stockpile not found"})
		}
	}

	status := input.Status
	if status == "" {
		status = models.OperationStatusPlanned
	}

	operation := models.Operation{
		RegimentID:             regimentID,
		Name:                   input.Name,
		Description:            input.Description,
		Status:                 status,
		StartAt:                input.StartAt,
		DestinationStockpileID: input.DestinationStockpileID,
		CreatedByID:            userID,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&operation).Error; err != nil {
			return err
		}
		for _, req := range input.Requirements {
			requirement := models.OperationRequirement{
				OperationID: operation.ID,
				ItemCode:    req.ItemCode,
				Quantity:    req.Quantity,
			}
			if err := tx.Create(&requirement).Error; err != nil {
				return err
			}
			operation.Requirements = append(operation.Requirements, requirement)
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create operation")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create operation"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Operation created successfully",
		"data":    operation,
	})
}

func (c *OperationController) ListOperations(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	query := c.DB.Preload("Requirements").Where("regiment_id = ?", regimentID)
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var operations []models.Operation
	if err := query.Order("start_at, created_at desc").Find(&operations).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"operations": operations, "operation_count": len(operations)},
	})
}

// GetOperation returns an operation with its requirements judged against
// the destination stockpile's current crated inventory.
func (c *OperationController) GetOperation(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	operation, err := c.findOperation(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	response := fiber.Map{"operation": operation}

	if operation.DestinationStockpileID != nil && len(operation.Requirements) > 0 {
		repo := repositories.NewStockpileRepository(c.DB)
		crated, err := repo.CratedQuantities(*operation.DestinationStockpileID)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		items := make([]models.ProductionOrderItem, 0, len(operation.Requirements))
		for _, req := range operation.Requirements {
			items = append(items, models.ProductionOrderItem{
				ItemCode:         req.ItemCode,
				QuantityRequired: req.Quantity,
			})
		}
		response["fulfillment"] = services.EvaluateFulfillment(items, crated)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

func (c *OperationController) UpdateOperation(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	operation, err := c.findOperation(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input operationInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.DestinationStockpileID != nil {
		var stockpile models.Stockpile
		if err := c.DB.Where("id = ? AND regiment_id = ?", *input.DestinationStockpileID, regimentID).
			First(&stockpile).Error; err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination stockpile not found"})
		}
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		operation.Name = input.Name
		operation.Description = input.Description
		if input.Status != "" {
			operation.Status = input.Status
		}
		operation.StartAt = input.StartAt
		operation.DestinationStockpileID = input.DestinationStockpileID

		if err := tx.Save(operation).Error; err != nil {
			return err
		}

		if input.Requirements != nil {
			if err := tx.Where("operation_id = ?", operation.ID).
				Delete(&models.OperationRequirement{}).Error; err != nil {
				return err
			}
			operation.Requirements = operation.Requirements[:0]
			for _, req := range input.Requirements {
				requirement := models.OperationRequirement{
					OperationID: operation.ID,
					ItemCode:    req.ItemCode,
					Quantity:    req.Quantity,
				}
				if err := tx.Create(&requirement).Error; err != nil {
					return err
				}
				operation.Requirements = append(operation.Requirements, requirement)
			}
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to update operation")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update operation"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Operation updated successfully",
		"data":    operation,
	})
}

func (c *OperationController) DeleteOperation(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	operation, err := c.findOperation(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("operation_id = ?", operation.ID).
			Delete(&models.OperationRequirement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Operation{}, int64(operation.ID)).Error
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to delete operation")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete operation"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Operation deleted",
	})
}

func (c *OperationController) findOperation(regimentID types.SnowflakeID, param string) (*models.Operation, error) {
	var id types.SnowflakeID
	if err := id.UnmarshalJSON([]byte(`"` + param + `"`)); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var operation models.Operation
	if err := c.DB.Preload("Requirements").Where("regiment_id = ?", regimentID).
		First(&operation, int64(id)).Error; err != nil {
		return nil, err
	}
	return &operation, nil
}
