package repositories

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db}
}

// MarkReadyMpfOrders flips every in-progress MPF order whose timer has
// expired to READY_FOR_PICKUP. Called at the top of read paths; there is
// no background timer.
func (r *ProductionRepository) MarkReadyMpfOrders(regimentID types.SnowflakeID) error {
	return r.db.Model(&models.ProductionOrder{}).
		Where("regiment_id = ? AND is_mpf = ? AND status = ? AND mpf_ready_at <= ?",
			regimentID, true, models.OrderStatusInProgress, time.Now()).
		Update("status", models.OrderStatusReadyForPickup).Error
}

func (r *ProductionRepository) GetOrder(regimentID, orderID types.SnowflakeID) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := r.db.
		Preload("Items").
		Preload("TargetStockpiles.Stockpile").
		Preload("CreatedBy").
		Where("regiment_id = ?", regimentID).
		First(&order, int64(orderID)).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *ProductionRepository) GetOrderByShortID(regimentID types.SnowflakeID, shortID string) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := r.db.
		Preload("Items").
		Preload("TargetStockpiles.Stockpile").
		Preload("CreatedBy").
		Where("regiment_id = ? AND short_id = ?", regimentID, shortID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type OrderFilters struct {
	Status          string
	IsMpf           *bool
	IsStandingOrder *bool
	Limit           int
}

// ListOrders returns non-archived orders, highest priority first then
// newest first.
func (r *ProductionRepository) ListOrders(regimentID types.SnowflakeID, filters OrderFilters) ([]models.ProductionOrder, error) {
	query := r.db.
		Preload("Items").
		Preload("TargetStockpiles.Stockpile").
		Preload("CreatedBy").
		Where("regiment_id = ? AND archived_at IS NULL", regimentID).
		Order("priority desc").
		Order("created_at desc")

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.IsMpf != nil {
		query = query.Where("is_mpf = ?", *filters.IsMpf)
	}
	if filters.IsStandingOrder != nil {
		query = query.Where("is_standing_order = ?", *filters.IsStandingOrder)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var orders []models.ProductionOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetStandingOrder returns the standing order linked to a stockpile, or
// gorm.ErrRecordNotFound.
func (r *ProductionRepository) GetStandingOrder(regimentID, stockpileID types.SnowflakeID) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := r.db.
		Preload("Items").
		Preload("TargetStockpiles.Stockpile").
		Where("regiment_id = ? AND is_standing_order = ? AND linked_stockpile_id = ?",
			regimentID, true, stockpileID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
