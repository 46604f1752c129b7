package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

const (
	OperationStatusPlanned   = "PLANNED"
	OperationStatusActive    = "ACTIVE"
	OperationStatusCompleted = "COMPLETED"
	OperationStatusCancelled = "CANCELLED"
)

// Operation is a planned logistics push with item requirements sourced
// from a destination stockpile.
type Operation struct {
	ID                     types.SnowflakeID      `json:"ID" gorm:"primaryKey"`
	RegimentID             types.SnowflakeID      `json:"regiment_id" gorm:"index"`
	Name                   string                 `json:"name" gorm:"not null"`
	Description            string                 `json:"description"`
	Status                 string                 `json:"status" gorm:"default:PLANNED;index"`
	StartAt                *time.Time             `json:"start_at"`
	DestinationStockpileID *types.SnowflakeID     `json:"destination_stockpile_id" gorm:"index"`
	CreatedByID            types.SnowflakeID      `json:"created_by_id"`
	Requirements           []OperationRequirement `json:"requirements" gorm:"foreignKey:OperationID;constraint:OnDelete:CASCADE;"`
	CreatedAt              time.Time              `gorm:"index"`
	UpdatedAt              time.Time
}

func (o *Operation) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == 0 {
		o.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type OperationRequirement struct {
	ID          types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	OperationID types.SnowflakeID `json:"operation_id" gorm:"index;uniqueIndex:idx_operation_req_code"`
	ItemCode    string            `json:"item_code" gorm:"uniqueIndex:idx_operation_req_code"`
	Quantity    int               `json:"quantity"`
}

func (r *OperationRequirement) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == 0 {
		r.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
