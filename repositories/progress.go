package repositories

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/helpers"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

// ProgressUpdate is one new absolute produced count for an order item.
type ProgressUpdate struct {
	ItemCode         string
	QuantityProduced int
}

// ApplyProgress persists new produced counts for an order, records a
// contribution row per positive delta, adds those units to the target
// stockpile's crated inventory and re-derives the order status. One
// transaction; shared by the HTTP handler and the MCP tool.
//
// The order must be loaded with its items. Returns the number of units
// added to the target stockpile.
func ApplyProgress(db *gorm.DB, order *models.ProductionOrder, updates []ProgressUpdate, target *models.Stockpile, userID types.SnowflakeID, warNumber int) (int, error) {
	itemsByCode := make(map[string]*models.ProductionOrderItem, len(order.Items))
	for i := range order.Items {
		itemsByCode[order.Items[i].ItemCode] = &order.Items[i]
	}

	unitsAdded := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			orderItem, ok := itemsByCode[update.ItemCode]
			if !ok {
				continue
			}

			delta := update.QuantityProduced - orderItem.QuantityProduced
			orderItem.QuantityProduced = update.QuantityProduced
			if err := tx.Model(&models.ProductionOrderItem{}).
				Where("id = ?", orderItem.ID).
				Update("quantity_produced", update.QuantityProduced).Error; err != nil {
				return err
			}

			if delta <= 0 {
				continue
			}

			contribution := models.ProductionContribution{
				OrderID:   order.ID,
				ItemCode:  update.ItemCode,
				UserID:    userID,
				Quantity:  delta,
				WarNumber: warNumber,
			}
			if err := tx.Create(&contribution).Error; err != nil {
				return err
			}

			if target != nil {
				if err := UpsertCratedQuantity(tx, target.ID, update.ItemCode, delta); err != nil {
					return err
				}
				unitsAdded += delta
			}
		}

		if services.ApplyDerivedStatus(order, time.Now()) {
			if err := tx.Model(&models.ProductionOrder{}).
				Where("id = ?", order.ID).
				Updates(map[string]interface{}{
					"status":       order.Status,
					"completed_at": order.CompletedAt,
				}).Error; err != nil {
				return err
			}
		}

		return helpers.InsertActivityLog(tx, order.RegimentID, userID, models.ActivityOrderProgress, order.ShortID, order.Name)
	})
	if err != nil {
		return 0, err
	}
	return unitsAdded, nil
}
