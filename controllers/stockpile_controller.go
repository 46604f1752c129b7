package controllers

import (
	"errors"
	"fmt"
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
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type StockpileController struct {
	DB      *gorm.DB
	Scanner *services.ScannerService
	War     *services.WarService
}

func NewStockpileController(DB *gorm.DB, scanner *services.ScannerService, war *services.WarService) *StockpileController {
	return &StockpileController{DB: DB, Scanner: scanner, War: war}
}

type stockpileInput struct {
	Name         string `json:"name" validate:"required,min=2"`
	Type         string `json:"type" validate:"required,oneof=STORAGE_DEPOT SEAPORT"`
	Hex          string `json:"hex" validate:"required"`
	LocationName string `json:"location_name" validate:"required"`
	Code         string `json:"code"`
}

func (c *StockpileController) CreateStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var input stockpileInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.Stockpile
	if err := c.DB.Where("regiment_id = ? AND name = ?", regimentID, input.Name).First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A stockpile with this name already exists",
		})
	}

	stockpile := models.Stockpile{
		RegimentID:   regimentID,
		Name:         input.Name,
		Type:         input.Type,
		Hex:          input.Hex,
		LocationName: input.LocationName,
		Code:         input.Code,
	}
	if err := c.DB.Create(&stockpile).Error; err != nil {
		logrus.WithError(err).Error("Failed to create stockpile")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create stockpile"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Stockpile created successfully",
		"data":    stockpile,
	})
}

func (c *StockpileController) ListStockpiles(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var stockpiles []models.Stockpile
	if err := c.DB.Where("regiment_id = ?", regimentID).
		Order("hex, name").Find(&stockpiles).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	response := make([]fiber.Map, 0, len(stockpiles))
	for _, stockpile := range stockpiles {
		entry := fiber.Map{
			"ID":            stockpile.ID,
			"name":          stockpile.Name,
			"type":          stockpile.Type,
			"hex":           stockpile.Hex,
			"location_name": stockpile.LocationName,
			"location":      stockpile.Location(),
			"code":          stockpile.Code,
		}
		if stockpile.LastRefreshedAt != nil {
			entry["last_refreshed_at"] = stockpile.LastRefreshedAt
			entry["last_refreshed"] = utils.FormatRelativeTime(*stockpile.LastRefreshedAt)
		}
		response = append(response, entry)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"stockpiles": response, "stockpile_count": len(response)},
	})
}

func (c *StockpileController) GetStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    stockpile,
	})
}

func (c *StockpileController) UpdateStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input stockpileInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Name != stockpile.Name {
		var existing models.Stockpile
		if err := c.DB.Where("regiment_id = ? AND name = ? AND id <> ?",
			regimentID, input.Name, stockpile.ID).First(&existing).Error; err == nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A stockpile with this name already exists",
			})
		}
	}

	stockpile.Name = input.Name
	stockpile.Type = input.Type
	stockpile.Hex = input.Hex
	stockpile.LocationName = input.LocationName
	stockpile.Code = input.Code
	if err := c.DB.Save(stockpile).Error; err != nil {
		logrus.WithError(err).Error("Failed to update stockpile")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update stockpile"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stockpile updated successfully",
		"data":    stockpile,
	})
}

func (c *StockpileController) DeleteStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		// A standing order tied to this stockpile dies with it.
		if err := tx.Where("regiment_id = ? AND linked_stockpile_id = ?", regimentID, stockpile.ID).
			Delete(&models.ProductionOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("stockpile_id = ?", stockpile.ID).Delete(&models.StockpileItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("stockpile_id = ?", stockpile.ID).
			Delete(&models.ProductionOrderTargetStockpile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Stockpile{}, int64(stockpile.ID)).Error
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to delete stockpile")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete stockpile"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stockpile deleted",
	})
}

// ScanStockpile accepts a screenshot upload, runs it through the OCR
// microservice and replaces the stockpile's contents with the detected
// quantities. The scan itself is kept as an audit record.
func (c *StockpileController) ScanStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	fileHeader, err := ctx.FormFile("screenshot")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A screenshot file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer file.Close()

	result, err := c.Scanner.Scan(ctx.Context(), fileHeader.Filename, file)
	if err != nil {
		logrus.WithError(err).Error("Scanner service request failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  "Scanner service unavailable",
			"reason": "scanner_unavailable",
		})
	}
	if len(result.Items) == 0 {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "No items detected in the screenshot",
			"reason": "no_items_detected",
		})
	}

	warNumber := c.War.CurrentWarNumber(ctx.Context())
	now := time.Now()

	var scan models.StockpileScan
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		scan = models.StockpileScan{
			StockpileID:   stockpile.ID,
			ScannedByID:   userID,
			OcrConfidence: &result.OcrConfidence,
			ItemCount:     len(result.Items),
			WarNumber:     warNumber,
		}
		if err := tx.Create(&scan).Error; err != nil {
			return err
		}

		// A scan is a full snapshot: everything not in it is gone.
		if err := tx.Where("stockpile_id = ?", stockpile.ID).Delete(&models.StockpileItem{}).Error; err != nil {
			return err
		}
		for _, detected := range result.Items {
			confidence := detected.Confidence
			scanItem := models.StockpileScanItem{
				ScanID:     scan.ID,
				ItemCode:   detected.ItemCode,
				Quantity:   detected.Quantity,
				Crated:     detected.Crated,
				Confidence: &confidence,
			}
			if err := tx.Create(&scanItem).Error; err != nil {
				return err
			}
			item := models.StockpileItem{
				StockpileID: stockpile.ID,
				ItemCode:    detected.ItemCode,
				Quantity:    detected.Quantity,
				Crated:      detected.Crated,
				Confidence:  &confidence,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Stockpile{}).
			Where("id = ?", stockpile.ID).
			Update("last_refreshed_at", &now).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityStockpileScanned, stockpile.Name,
			fmt.Sprintf("%d items detected", len(result.Items)))
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to apply stockpile scan")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply scan"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stockpile scanned successfully",
		"data": fiber.Map{
			"scan_id":        scan.ID,
			"item_count":     len(result.Items),
			"ocr_confidence": result.OcrConfidence,
			"war_number":     warNumber,
		},
	})
}

type refreshItemInput struct {
	ItemCode string `json:"item_code" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Crated   bool   `json:"crated"`
}

type refreshInput struct {
	Items []refreshItemInput `json:"items" validate:"required,dive"`
}

// RefreshStockpile records manually entered counts, the non-OCR path for
// keeping a stockpile current.
func (c *StockpileController) RefreshStockpile(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input refreshInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warNumber := c.War.CurrentWarNumber(ctx.Context())
	now := time.Now()

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range input.Items {
			var item models.StockpileItem
			err := tx.Where("stockpile_id = ? AND item_code = ? AND crated = ?",
				stockpile.ID, entry.ItemCode, entry.Crated).First(&item).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if entry.Quantity == 0 {
					continue
				}
				item = models.StockpileItem{
					StockpileID: stockpile.ID,
					ItemCode:    entry.ItemCode,
					Quantity:    entry.Quantity,
					Crated:      entry.Crated,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			case entry.Quantity == 0:
				if err := tx.Delete(&models.StockpileItem{}, int64(item.ID)).Error; err != nil {
					return err
				}
			default:
				if err := tx.Model(&models.StockpileItem{}).
					Where("id = ?", item.ID).
					Updates(map[string]interface{}{"quantity": entry.Quantity, "confidence": nil}).Error; err != nil {
					return err
				}
			}
		}

		refresh := models.StockpileRefresh{
			StockpileID:   stockpile.ID,
			RefreshedByID: userID,
			WarNumber:     warNumber,
		}
		if err := tx.Create(&refresh).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Stockpile{}).
			Where("id = ?", stockpile.ID).
			Update("last_refreshed_at", &now).Error; err != nil {
			return err
		}
		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityStockpileRefresh, stockpile.Name,
			fmt.Sprintf("%d items updated", len(input.Items)))
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to refresh stockpile")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh stockpile"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Stockpile refreshed",
	})
}

// GetMinimums returns the stockpile's standing order with fulfillment
// evaluated against current crated inventory. 404 when none is configured.
func (c *StockpileController) GetMinimums(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	repo := repositories.NewProductionRepository(c.DB)
	order, err := repo.GetStandingOrder(regimentID, stockpile.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No minimums configured for this stockpile"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var fulfillment services.Fulfillment
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		crated, err := repositories.NewStockpileRepository(tx).CratedQuantities(stockpile.ID)
		if err != nil {
			return err
		}
		fulfillment = services.EvaluateFulfillment(order.Items, crated)
		if services.ApplyFulfillmentStatus(order, fulfillment) {
			return tx.Model(&models.ProductionOrder{}).
				Where("id = ?", order.ID).
				Update("status", order.Status).Error
		}
		return nil
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_id":    order.ID,
			"short_id":    order.ShortID,
			"name":        order.Name,
			"status":      order.Status,
			"fulfillment": fulfillment,
		},
	})
}

type minimumsInput struct {
	Items []orderItemInput `json:"items"`
}

// SetMinimums creates, replaces or deletes the standing order for a
// stockpile. An empty item list removes the minimums entirely.
func (c *StockpileController) SetMinimums(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)
	userID := ctx.Locals("userID").(types.SnowflakeID)

	stockpile, err := c.findStockpile(regimentID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stockpile not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input minimumsInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	for _, item := range input.Items {
		if item.ItemCode == "" || item.Quantity <= 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Items need an item code and a positive quantity"})
		}
	}

	repo := repositories.NewProductionRepository(c.DB)
	order, err := repo.GetStandingOrder(regimentID, stockpile.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Empty list deletes.
	if len(input.Items) == 0 {
		if order == nil {
			return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": true,
				"message": "No minimums configured",
			})
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
			return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityMinimumsUpdated, stockpile.Name, "Minimums removed")
		})
		if err != nil {
			logrus.WithError(err).Error("Failed to remove stockpile minimums")
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove minimums"})
		}
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Minimums removed",
		})
	}

	warNumber := c.War.CurrentWarNumber(ctx.Context())
	name := fmt.Sprintf("Minimums: %s", stockpile.Location())

	var fulfillment services.Fulfillment
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if order == nil {
			linkedID := stockpile.ID
			created := models.ProductionOrder{
				RegimentID:        regimentID,
				Name:              name,
				Status:            models.OrderStatusInProgress,
				CreatedByID:       userID,
				WarNumber:         warNumber,
				IsStandingOrder:   true,
				LinkedStockpileID: &linkedID,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			order = &created
		} else {
			order.Name = name
			if err := tx.Save(order).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductionOrderItem{}).Error; err != nil {
				return err
			}
		}

		// Progress updates against the standing order deliver into the
		// linked stockpile, so it is the order's one target.
		target := models.ProductionOrderTargetStockpile{OrderID: order.ID, StockpileID: stockpile.ID}
		if err := tx.Where(&target).FirstOrCreate(&target).Error; err != nil {
			return err
		}

		order.Items = order.Items[:0]
		for _, item := range input.Items {
			orderItem := models.ProductionOrderItem{
				OrderID:          order.ID,
				ItemCode:         item.ItemCode,
				QuantityRequired: item.Quantity,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, orderItem)
		}

		// The new minimums are judged against current inventory right away.
		crated, err := repositories.NewStockpileRepository(tx).CratedQuantities(stockpile.ID)
		if err != nil {
			return err
		}
		fulfillment = services.EvaluateFulfillment(order.Items, crated)
		if services.ApplyFulfillmentStatus(order, fulfillment) {
			if err := tx.Model(&models.ProductionOrder{}).
				Where("id = ?", order.ID).
				Update("status", order.Status).Error; err != nil {
				return err
			}
		}

		return helpers.InsertActivityLog(tx, regimentID, userID, models.ActivityMinimumsUpdated, stockpile.Name,
			fmt.Sprintf("%d item minimums set", len(input.Items)))
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to set stockpile minimums")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to set minimums"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Minimums updated",
		"data": fiber.Map{
			"order_id":    order.ID,
			"short_id":    order.ShortID,
			"name":        order.Name,
			"status":      order.Status,
			"fulfillment": fulfillment,
		},
	})
}

// InventorySummary aggregates item totals across every stockpile in the
// regiment.
func (c *StockpileController) InventorySummary(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	repo := repositories.NewStockpileRepository(c.DB)
	rows, err := repo.InventorySummary(regimentID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"items": rows, "item_count": len(rows)},
	})
}

// FindItem answers "where do we have X", largest quantity first.
func (c *StockpileController) FindItem(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	itemCode := ctx.Query("item_code")
	if itemCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item_code query parameter is required"})
	}

	repo := repositories.NewStockpileRepository(c.DB)
	rows, err := repo.FindItem(regimentID, itemCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"locations": rows, "location_count": len(rows)},
	})
}

// ExportInventory streams the regiment's full inventory as an Excel
// workbook, one sheet per stockpile.
func (c *StockpileController) ExportInventory(ctx *fiber.Ctx) error {
	regimentID := ctx.Locals("regimentID").(types.SnowflakeID)

	var stockpiles []models.Stockpile
	if err := c.DB.Preload("Items").Where("regiment_id = ?", regimentID).
		Order("hex, name").Find(&stockpiles).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	for i, stockpile := range stockpiles {
		sheet := fmt.Sprintf("%s (%s)", stockpile.Name, stockpile.Hex)
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
		}

		f.SetCellValue(sheet, "A1", "Item Code")
		f.SetCellValue(sheet, "B1", "Quantity")
		f.SetCellValue(sheet, "C1", "Crated")
		f.SetCellValue(sheet, "D1", "Confidence")
		f.SetCellStyle(sheet, "A1", "D1", headerStyle)
		f.SetColWidth(sheet, "A", "A", 30)

		for row, item := range stockpile.Items {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row+2), item.ItemCode)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row+2), item.Quantity)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row+2), item.Crated)
			if item.Confidence != nil {
				f.SetCellValue(sheet, fmt.Sprintf("D%d", row+2), *item.Confidence)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logrus.WithError(err).Error("Failed to build inventory export")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build export"})
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(buf.Bytes())
}

func (c *StockpileController) findStockpile(regimentID types.SnowflakeID, param string) (*models.Stockpile, error) {
	var id types.SnowflakeID
	if err := id.UnmarshalJSON([]byte(`"` + param + `"`)); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var stockpile models.Stockpile
	if err := c.DB.Preload("Items").Where("regiment_id = ?", regimentID).
		First(&stockpile, int64(id)).Error; err != nil {
		return nil, err
	}
	return &stockpile, nil
}
