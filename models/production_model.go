package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"
	"github.com/metroshica/foxhole-quartermaster-sub001/utils"

	"gorm.io/gorm"
)

// Production order statuses. FULFILLED is only used by standing orders and
// is re-evaluated on every read; READY_FOR_PICKUP is only reachable for
// MPF orders.
const (
	OrderStatusPending        = "PENDING"
	OrderStatusInProgress     = "IN_PROGRESS"
	OrderStatusReadyForPickup = "READY_FOR_PICKUP"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusCancelled      = "CANCELLED"
	OrderStatusFulfilled      = "FULFILLED"
)

var orderStatuses = map[string]bool{
	OrderStatusPending:        true,
	OrderStatusInProgress:     true,
	OrderStatusReadyForPickup: true,
	OrderStatusCompleted:      true,
	OrderStatusCancelled:      true,
	OrderStatusFulfilled:      true,
}

func IsValidOrderStatus(status string) bool {
	return orderStatuses[status]
}

var priorityLabels = [...]string{"Low", "Medium", "High", "Critical"}

// PriorityLabel maps priority 0-3 to its display name.
func PriorityLabel(priority int) string {
	if priority < 0 || priority >= len(priorityLabels) {
		return "Unknown"
	}
	return priorityLabels[priority]
}

type ProductionOrder struct {
	ID          types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	ShortID     string            `json:"short_id" gorm:"uniqueIndex;size:8"`
	RegimentID  types.SnowflakeID `json:"regiment_id" gorm:"index"`
	Name        string            `json:"name" gorm:"not null"`
	Description string            `json:"description"`
	Status      string            `json:"status" gorm:"default:PENDING;index"`
	Priority    int               `json:"priority" gorm:"default:0"`
	CreatedByID types.SnowflakeID `json:"created_by_id" gorm:"index"`
	CompletedAt *time.Time        `json:"completed_at"`

	// MPF orders sit in a timed factory queue before pickup.
	IsMpf          bool       `json:"is_mpf" gorm:"default:false"`
	MpfSubmittedAt *time.Time `json:"mpf_submitted_at"`
	MpfReadyAt     *time.Time `json:"mpf_ready_at"`

	DeliveredAt         *time.Time         `json:"delivered_at"`
	DeliveryStockpileID *types.SnowflakeID `json:"delivery_stockpile_id" gorm:"index"`

	WarNumber  int        `json:"war_number" gorm:"index"`
	ArchivedAt *time.Time `json:"archived_at" gorm:"index"`

	// A standing order is a minimum-stock target tied to one stockpile.
	IsStandingOrder   bool               `json:"is_standing_order" gorm:"default:false"`
	LinkedStockpileID *types.SnowflakeID `json:"linked_stockpile_id" gorm:"uniqueIndex"`

	Items            []ProductionOrderItem            `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
	TargetStockpiles []ProductionOrderTargetStockpile `json:"target_stockpiles" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
	CreatedBy        User                             `json:"created_by" gorm:"foreignKey:CreatedByID"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (o *ProductionOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == 0 {
		o.ID = types.SnowflakeID(idgen.GenerateID())
	}
	if o.ShortID == "" {
		o.ShortID = utils.GenerateShortCode()
	}
	return
}

type ProductionOrderItem struct {
	ID               types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	OrderID          types.SnowflakeID `json:"order_id" gorm:"index;uniqueIndex:idx_order_item_code"`
	ItemCode         string            `json:"item_code" gorm:"index;uniqueIndex:idx_order_item_code"`
	QuantityRequired int               `json:"quantity_required"`
	QuantityProduced int               `json:"quantity_produced" gorm:"default:0"`
	UpdatedAt        time.Time
}

func (i *ProductionOrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == 0 {
		i.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// ProductionContribution is an immutable audit row, one per positive
// production delta, used for leaderboard scoring. Never updated or deleted
// by normal flow.
type ProductionContribution struct {
	ID        types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	OrderID   types.SnowflakeID `json:"order_id" gorm:"index"`
	ItemCode  string            `json:"item_code"`
	UserID    types.SnowflakeID `json:"user_id" gorm:"index"`
	Quantity  int               `json:"quantity"`
	WarNumber int               `json:"war_number" gorm:"index"`
	CreatedAt time.Time         `gorm:"index"`
}

func (c *ProductionContribution) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == 0 {
		c.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// ProductionOrderTargetStockpile is the order↔stockpile delivery-candidate
// junction.
type ProductionOrderTargetStockpile struct {
	ID          types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	OrderID     types.SnowflakeID `json:"order_id" gorm:"index;uniqueIndex:idx_order_target"`
	StockpileID types.SnowflakeID `json:"stockpile_id" gorm:"index;uniqueIndex:idx_order_target"`
	Stockpile   Stockpile         `json:"stockpile" gorm:"foreignKey:StockpileID"`
}

func (t *ProductionOrderTargetStockpile) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == 0 {
		t.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
