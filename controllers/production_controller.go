package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/helpers"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/repositories"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"
	"github.com/metroshica/foxhole-quartermaster-sub001/utils"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProductionController struct {
	DB  *gorm.DB
	War *services.WarService
}

func NewProductionController(DB *gorm.DB, war *services.WarService) *ProductionController {
	return &ProductionController{DB: DB, War: war}
}

type orderItemInput struct {
	ItemCode string `json:"item_code" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderInput struct {
	Name               string              `json:"name" validate:"required,min=3"`
	Description        string              `json:"description"`
	Priority           int                 `json:"priority" validate:"gte=0,lte=3"`
	IsMpf              bool                `json:"is_mpf"`
	Items              []orderItemInput    `json:"items" validate:"required,min=1,dive"`
	TargetStockpileIDs []types.SnowflakeID `json:"target_stockpile_ids"`
}

func (c *ProductionController) CreateOrder(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	var input createOrderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Duplicate names are a conflict, not a validation problem.
	var existing models.ProductionOrder
	if err := c.DB.Where("regiment_id = ? AND name = ? AND archived_at IS NULL", regimentID, input.Name).
		First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An order with this name already exists",
		})
	}

	// Target stockpiles must belong to the caller's regiment.
	for _, stockpileID := range input.TargetStockpileIDs {
		var stockpile models.Stockpile
		if err := c.DB.Where("id = ? AND regiment_id = ?", stockpileID, regimentID).First(&stockpile).Error; err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Target stockpile not found"})
		}
	}

	warNumber := c.War.CurrentWarNumber(ctx.Context())

	order := models.ProductionOrder{
		RegimentID:  regimentID,
		Name:        input.Name,
		Description: input.Description,
		Priority:    input.Priority,
		IsMpf:       input.IsMpf,
		Status:      models.OrderStatusPending,
		CreatedByID: userID,
		WarNumber:   warNumber,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range input.Items {
			orderItem := models.ProductionOrderItem{
				OrderID:          order.ID,
				ItemCode:         item.ItemCode,
				QuantityRequired: item.Quantity,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}
		for _, stockpileID := range input.TargetStockpileIDs {
			target := models.ProductionOrderTargetStockpile{
				OrderID:     order.ID,
				StockpileID: stockpileID,
			}
			if err := tx.Create(&target).Error; err != nil {
				return err
			}
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityOrderCreated, order.ShortID, order.Name)
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create production order")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	}

	repo := repositories.NewProductionRepository(c.DB)
	created, err := repo.GetOrder(regimentID, order.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Production order created successfully",
		"data":    c.orderResponse(created),
	})
}

func (c *ProductionController) ListOrders(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)

	// Expired MPF timers flip on read; there is no scheduler.
	if err := repo.MarkReadyMpfOrders(regimentID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	filters := repositories.OrderFilters{
		Status: ctx.Query("status"),
		Limit:  ctx.QueryInt("limit", 50),
	}
	if filters.Status != "" && !models.IsValidOrderStatus(filters.Status) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}
	if raw := ctx.Query("is_mpf"); raw != "" {
		isMpf := raw == "true"
		filters.IsMpf = &isMpf
	}
	if raw := ctx.Query("is_standing_order"); raw != "" {
		isStanding := raw == "true"
		filters.IsStandingOrder = &isStanding
	}

	orders, err := repo.ListOrders(regimentID, filters)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	stockpileRepo := repositories.NewStockpileRepository(c.DB)
	response := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		order := &orders[i]
		var fulfillment *services.Fulfillment
		if order.IsStandingOrder {
			// Standing-order fulfillment is fresh on every read.
			fulfillment, err = c.refreshFulfillment(stockpileRepo, order)
			if err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
		}
		response = append(response, c.orderResponseWithFulfillment(order, fulfillment))
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"orders": response, "order_count": len(response)},
	})
}

func (c *ProductionController) GetOrder(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	if err := repo.MarkReadyMpfOrders(regimentID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var fulfillment *services.Fulfillment
	if order.IsStandingOrder {
		stockpileRepo := repositories.NewStockpileRepository(c.DB)
		fulfillment, err = c.refreshFulfillment(stockpileRepo, order)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    c.orderResponseWithFulfillment(order, fulfillment),
	})
}

type updateOrderInput struct {
	Name               *string             `json:"name"`
	Description        *string             `json:"description"`
	Priority           *int                `json:"priority"`
	Status             *string             `json:"status"`
	Items              []orderItemInput    `json:"items"`
	TargetStockpileIDs []types.SnowflakeID `json:"target_stockpile_ids"`
}

// UpdateOrder is the admin edit path: name, description, priority, status,
// item list and delivery targets. Replacing items resets produced counts
// for lines that disappear; surviving item codes keep their progress.
func (c *ProductionController) UpdateOrder(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input updateOrderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Priority != nil && (*input.Priority < 0 || *input.Priority > 3) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Priority must be between 0 and 3"})
	}
	if input.Status != nil && !models.IsValidOrderStatus(*input.Status) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}
	for _, item := range input.Items {
		if item.ItemCode == "" || item.Quantity <= 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Items need an item code and a positive quantity"})
		}
	}

	if input.Name != nil && *input.Name != order.Name {
		var existing models.ProductionOrder
		if err := c.DB.Where("regiment_id = ? AND name = ? AND id <> ? AND archived_at IS NULL",
			regimentID, *input.Name, order.ID).First(&existing).Error; err == nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "An order with this name already exists",
			})
		}
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if input.Name != nil {
			order.Name = *input.Name
		}
		if input.Description != nil {
			order.Description = *input.Description
		}
		if input.Priority != nil {
			order.Priority = *input.Priority
		}
		if input.Status != nil {
			order.Status = *input.Status
			if *input.Status != models.OrderStatusCompleted {
				order.CompletedAt = nil
			}
		}

		if input.Items != nil {
			produced := make(map[string]int, len(order.Items))
			for _, item := range order.Items {
				produced[item.ItemCode] = item.QuantityProduced
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductionOrderItem{}).Error; err != nil {
				return err
			}
			order.Items = order.Items[:0]
			for _, item := range input.Items {
				orderItem := models.ProductionOrderItem{
					OrderID:          order.ID,
					ItemCode:         item.ItemCode,
					QuantityRequired: item.Quantity,
					QuantityProduced: produced[item.ItemCode],
				}
				if err := tx.Create(&orderItem).Error; err != nil {
					return err
				}
				order.Items = append(order.Items, orderItem)
			}
		}

		if input.TargetStockpileIDs != nil {
			for _, stockpileID := range input.TargetStockpileIDs {
				var stockpile models.Stockpile
				if err := tx.Where("id = ? AND regiment_id = ?", stockpileID, regimentID).First(&stockpile).Error; err != nil {
					return fmt.Errorf("target stockpile %s not found", stockpileID)
				}
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductionOrderTargetStockpile{}).Error; err != nil {
				return err
			}
			order.TargetStockpiles = order.TargetStockpiles[:0]
			for _, stockpileID := range input.TargetStockpileIDs {
				target := models.ProductionOrderTargetStockpile{OrderID: order.ID, StockpileID: stockpileID}
				if err := tx.Create(&target).Error; err != nil {
					return err
				}
				order.TargetStockpiles = append(order.TargetStockpiles, target)
			}
		}

		// Status is always re-derived from item state before commit, so
		// the edit path cannot diverge from the progress path.
		services.ApplyDerivedStatus(order, time.Now())

		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityOrderUpdated, order.ShortID, order.Name)
	})
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.WithError(err).Error("Failed to update production order")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}

	updated, err := repo.GetOrder(regimentID, order.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Production order updated successfully",
		"data":    c.orderResponse(updated),
	})
}

type progressItemInput struct {
	ItemCode         string `json:"item_code" validate:"required"`
	QuantityProduced int    `json:"quantity_produced" validate:"gte=0"`
}

type updateItemsInput struct {
	Items             []progressItemInput `json:"items" validate:"required,min=1,dive"`
	TargetStockpileID *types.SnowflakeID  `json:"target_stockpile_id"`
}

// UpdateItems records production progress: persists new produced counts,
// writes contribution rows for positive deltas, increments the resolved
// target stockpile's crated inventory and re-derives order status. All of
// it commits or rolls back as one transaction.
func (c *ProductionController) UpdateItems(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if order.Status == models.OrderStatusCancelled {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Order is cancelled",
			"reason": "order_cancelled",
		})
	}

	var input updateItemsInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Resolve the inventory target before any write happens. With several
	// candidates the caller has to pick one; with none the inventory
	// update is skipped.
	var targetStockpile *models.Stockpile
	if input.TargetStockpileID != nil {
		for i := range order.TargetStockpiles {
			if order.TargetStockpiles[i].StockpileID == *input.TargetStockpileID {
				targetStockpile = &order.TargetStockpiles[i].Stockpile
				break
			}
		}
		if targetStockpile == nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Stockpile is not a target of this order",
				"reason": "invalid_target_stockpile",
			})
		}
	} else if len(order.TargetStockpiles) == 1 {
		targetStockpile = &order.TargetStockpiles[0].Stockpile
	} else if len(order.TargetStockpiles) > 1 {
		candidates := make([]fiber.Map, 0, len(order.TargetStockpiles))
		for _, target := range order.TargetStockpiles {
			candidates = append(candidates, fiber.Map{
				"id":       target.StockpileID,
				"name":     target.Stockpile.Name,
				"location": target.Stockpile.Location(),
			})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":             "Multiple target stockpiles, selection required",
			"reason":            "target_selection_required",
			"target_stockpiles": candidates,
		})
	}

	// Soft dependency: a failed lookup tags contributions with war 0
	// rather than failing the update.
	warNumber := c.War.CurrentWarNumber(ctx.Context())

	updates := make([]repositories.ProgressUpdate, 0, len(input.Items))
	for _, update := range input.Items {
		updates = append(updates, repositories.ProgressUpdate{
			ItemCode:         update.ItemCode,
			QuantityProduced: update.QuantityProduced,
		})
	}

	unitsAdded, err := repositories.ApplyProgress(c.DB, order, updates, targetStockpile, userID, warNumber)
	if err != nil {
		logrus.WithError(err).Error("Failed to record production progress")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record progress"})
	}

	response := fiber.Map{
		"success":  true,
		"data":     c.orderResponse(order),
		"progress": services.Summarize(order.Items),
	}
	if targetStockpile != nil && unitsAdded > 0 {
		response["stockpile"] = fiber.Map{
			"id":          targetStockpile.ID,
			"name":        targetStockpile.Name,
			"units_added": unitsAdded,
		}
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

type mpfSubmitInput struct {
	DurationSeconds int `json:"duration_seconds" validate:"required,gt=0"`
}

// SubmitMpf places an MPF order into the factory queue, or resets the
// timer when the order is already in progress.
func (c *ProductionController) SubmitMpf(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !order.IsMpf {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Not an MPF order",
			"reason": "not_mpf",
		})
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusInProgress {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Order cannot be submitted in its current status",
			"reason": "invalid_status",
		})
	}

	var input mpfSubmitInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	readyAt := now.Add(time.Duration(input.DurationSeconds) * time.Second)
	order.MpfSubmittedAt = &now
	order.MpfReadyAt = &readyAt
	order.Status = models.OrderStatusInProgress

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityOrderMpfSubmit, order.ShortID, order.Name)
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to submit MPF order")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit order"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Order submitted to production",
		"data":    c.orderResponse(order),
	})
}

type mpfCompleteInput struct {
	DeliveryStockpileID *types.SnowflakeID `json:"delivery_stockpile_id"`
}

// CompleteMpf marks a ready MPF order as picked up and delivered. A
// delivery stockpile must be supplied now or have been stored earlier.
func (c *ProductionController) CompleteMpf(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	if err := repo.MarkReadyMpfOrders(regimentID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !order.IsMpf || order.Status != models.OrderStatusReadyForPickup {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Order is not ready for pickup",
			"reason": "not_ready",
		})
	}

	// The body is optional; the stored delivery stockpile is used when the
	// caller sends none.
	var input mpfCompleteInput
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&input); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	deliveryStockpileID := order.DeliveryStockpileID
	if input.DeliveryStockpileID != nil {
		deliveryStockpileID = input.DeliveryStockpileID
	}
	if deliveryStockpileID == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "A delivery stockpile is required to complete an MPF order",
			"reason": "delivery_stockpile_required",
		})
	}

	var stockpile models.Stockpile
	if err := c.DB.Where("id = ? AND regiment_id = ?", *deliveryStockpileID, regimentID).First(&stockpile).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Delivery stockpile not found"})
	}

	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &now
	order.DeliveredAt = &now
	order.DeliveryStockpileID = deliveryStockpileID

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityOrderCompleted, order.ShortID, order.Name)
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to complete MPF order")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete order"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Order completed and delivered",
		"data":    c.orderResponse(order),
	})
}

func (c *ProductionController) DeleteOrder(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductionOrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductionOrderTargetStockpile{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ProductionOrder{}, int64(order.ID)).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityOrderDeleted, order.ShortID, order.Name)
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to delete production order")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete order"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Production order deleted",
	})
}

// ArchiveOrder hides an order from listings without destroying its
// contribution history.
func (c *ProductionController) ArchiveOrder(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	repo := repositories.NewProductionRepository(c.DB)
	order, err := c.findOrder(repo, regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Production order not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	if err := c.DB.Model(&models.ProductionOrder{}).
		Where("id = ?", order.ID).
		Update("archived_at", &now).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Production order archived",
	})
}

// findOrder resolves a path parameter that is either a numeric id or a
// 4-character short code. A short code made entirely of digits parses as
// a number too, so an empty numeric lookup still falls through.
func (c *ProductionController) findOrder(repo *repositories.ProductionRepository, regimentID types.SnowflakeID, param string) (*models.ProductionOrder, error) {
	var id types.SnowflakeID
	if err := id.UnmarshalJSON([]byte(`"` + param + `"`)); err == nil {
		order, err := repo.GetOrder(regimentID, id)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return order, err
		}
	}
	return repo.GetOrderByShortID(regimentID, strings.ToUpper(param))
}

// refreshFulfillment re-evaluates one standing order against its linked
// stockpile and persists a status flip.
func (c *ProductionController) refreshFulfillment(stockpileRepo *repositories.StockpileRepository, order *models.ProductionOrder) (*services.Fulfillment, error) {
	if order.LinkedStockpileID == nil {
		return nil, nil
	}
	crated, err := stockpileRepo.CratedQuantities(*order.LinkedStockpileID)
	if err != nil {
		return nil, err
	}
	fulfillment := services.EvaluateFulfillment(order.Items, crated)
	if services.ApplyFulfillmentStatus(order, fulfillment) {
		if err := c.DB.Model(&models.ProductionOrder{}).
			Where("id = ?", order.ID).
			Update("status", order.Status).Error; err != nil {
			return nil, err
		}
	}
	return &fulfillment, nil
}

func (c *ProductionController) orderResponse(order *models.ProductionOrder) fiber.Map {
	return c.orderResponseWithFulfillment(order, nil)
}

func (c *ProductionController) orderResponseWithFulfillment(order *models.ProductionOrder, fulfillment *services.Fulfillment) fiber.Map {
	summary := services.Summarize(order.Items)

	targets := make([]fiber.Map, 0, len(order.TargetStockpiles))
	for _, target := range order.TargetStockpiles {
		targets = append(targets, fiber.Map{
			"id":       target.StockpileID,
			"name":     target.Stockpile.Name,
			"location": target.Stockpile.Location(),
		})
	}

	items := make([]fiber.Map, 0, len(order.Items))
	for _, item := range order.Items {
		remaining := item.QuantityRequired - item.QuantityProduced
		if remaining < 0 {
			remaining = 0
		}
		items = append(items, fiber.Map{
			"item_code":         item.ItemCode,
			"quantity_required": item.QuantityRequired,
			"quantity_produced": item.QuantityProduced,
			"remaining":         remaining,
		})
	}

	response := fiber.Map{
		"ID":                order.ID,
		"short_id":          order.ShortID,
		"name":              order.Name,
		"description":       order.Description,
		"status":            order.Status,
		"priority":          order.Priority,
		"priority_label":    models.PriorityLabel(order.Priority),
		"is_mpf":            order.IsMpf,
		"is_standing_order": order.IsStandingOrder,
		"war_number":        order.WarNumber,
		"created_by":        order.CreatedBy.Name,
		"created_at":        order.CreatedAt,
		"created_relative":  utils.FormatRelativeTime(order.CreatedAt),
		"completed_at":      order.CompletedAt,
		"delivered_at":      order.DeliveredAt,
		"items":             items,
		"target_stockpiles": targets,
		"progress":          summary,
	}

	if order.IsMpf {
		response["mpf_submitted_at"] = order.MpfSubmittedAt
		response["mpf_ready_at"] = order.MpfReadyAt
		if order.MpfReadyAt != nil && order.MpfReadyAt.After(time.Now()) {
			response["time_remaining"] = utils.FormatDuration(time.Until(*order.MpfReadyAt))
		}
	}
	if order.IsStandingOrder {
		response["linked_stockpile_id"] = order.LinkedStockpileID
		if fulfillment != nil {
			response["fulfillment"] = fulfillment
		}
	}
	return response
}
