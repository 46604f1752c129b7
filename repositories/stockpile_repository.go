package repositories

import (
	"errors"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

type StockpileRepository struct {
	db *gorm.DB
}

func NewStockpileRepository(db *gorm.DB) *StockpileRepository {
	return &StockpileRepository{db}
}

// UpsertCratedQuantity increments a stockpile's crated row for an item,
// creating it when absent. Must run inside the caller's transaction.
func UpsertCratedQuantity(tx *gorm.DB, stockpileID types.SnowflakeID, itemCode string, delta int) error {
	var item models.StockpileItem
	err := tx.Where("stockpile_id = ? AND item_code = ? AND crated = ?", stockpileID, itemCode, true).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.StockpileItem{
			StockpileID: stockpileID,
			ItemCode:    itemCode,
			Quantity:    delta,
			Crated:      true,
		}
		return tx.Create(&item).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

// CratedQuantities returns the crated quantity per item code in one
// stockpile.
func (r *StockpileRepository) CratedQuantities(stockpileID types.SnowflakeID) (map[string]int, error) {
	var items []models.StockpileItem
	if err := r.db.Where("stockpile_id = ? AND crated = ?", stockpileID, true).Find(&items).Error; err != nil {
		return nil, err
	}

	quantities := make(map[string]int, len(items))
	for _, item := range items {
		quantities[item.ItemCode] += item.Quantity
	}
	return quantities, nil
}

type InventoryRow struct {
	ItemCode       string `json:"item_code"`
	Crated         bool   `json:"crated"`
	TotalQuantity  int    `json:"total_quantity"`
	StockpileCount int    `json:"stockpile_count"`
}

// InventorySummary aggregates item totals across all of a regiment's
// stockpiles.
func (r *StockpileRepository) InventorySummary(regimentID types.SnowflakeID) ([]InventoryRow, error) {
	sqlInventory := `select a.item_code, a.crated, sum(a.quantity) as total_quantity,
	count(distinct a.stockpile_id) as stockpile_count
	from stockpile_items a
	inner join stockpiles b on a.stockpile_id = b.id
	where b.regiment_id = ?
	group by a.item_code, a.crated
	order by total_quantity desc
	`

	var rows []InventoryRow
	if err := r.db.Raw(sqlInventory, regimentID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type ItemLocationRow struct {
	StockpileID  types.SnowflakeID `json:"stockpile_id"`
	Name         string            `json:"name"`
	Hex          string            `json:"hex"`
	LocationName string            `json:"location_name"`
	Crated       bool              `json:"crated"`
	Quantity     int               `json:"quantity"`
}

// FindItem lists every stockpile holding an item code, largest quantity
// first.
func (r *StockpileRepository) FindItem(regimentID types.SnowflakeID, itemCode string) ([]ItemLocationRow, error) {
	sqlFind := `select b.id as stockpile_id, b.name, b.hex, b.location_name,
	a.crated, a.quantity
	from stockpile_items a
	inner join stockpiles b on a.stockpile_id = b.id
	where b.regiment_id = ? and a.item_code = ? and a.quantity > 0
	order by a.quantity desc
	`

	var rows []ItemLocationRow
	if err := r.db.Raw(sqlFind, regimentID, itemCode).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
