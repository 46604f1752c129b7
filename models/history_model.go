package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

// Activity types recorded in the regiment feed.
const (
	ActivityOrderCreated     = "ORDER_CREATED"
	ActivityOrderUpdated     = "ORDER_UPDATED"
	ActivityOrderDeleted     = "ORDER_DELETED"
	ActivityOrderProgress    = "ORDER_PROGRESS"
	ActivityOrderMpfSubmit   = "ORDER_MPF_SUBMITTED"
	ActivityOrderCompleted   = "ORDER_COMPLETED"
	ActivityStockpileScanned = "STOCKPILE_SCANNED"
	ActivityStockpileRefresh = "STOCKPILE_REFRESHED"
	ActivityMinimumsUpdated  = "MINIMUMS_UPDATED"
)

type ActivityLog struct {
	ID         int64             `json:"ID" gorm:"primaryKey"`
	RegimentID types.SnowflakeID `json:"regiment_id" gorm:"index"`
	ActorID    types.SnowflakeID `json:"actor_id"`
	Type       string            `json:"type"`
	RefNo      string            `json:"ref_no"`
	Detail     string            `json:"detail"`
	CreatedAt  time.Time         `gorm:"index"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == 0 {
		a.ID = idgen.GenerateID()
	}
	return
}
