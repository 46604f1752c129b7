package helpers

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

// InsertActivityLog writes one regiment feed entry. Called inside the
// mutating handlers' transactions so feed rows never outlive a rollback.
func InsertActivityLog(db *gorm.DB, regimentID, actorID types.SnowflakeID, activityType, refNo, detail string) error {
	entry := models.ActivityLog{
		RegimentID: regimentID,
		ActorID:    actorID,
		Type:       activityType,
		RefNo:      refNo,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := db.Create(&entry).Error; err != nil {
		return err
	}

	return nil
}
