package migration

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.Regiment{},
		&models.RegimentMember{},
		&models.Role{},
		&models.RolePermission{},
		&models.RoleDiscordMapping{},
		&models.Stockpile{},
		&models.StockpileItem{},
		&models.StockpileScan{},
		&models.StockpileScanItem{},
		&models.StockpileRefresh{},
		&models.ProductionOrder{},
		&models.ProductionOrderItem{},
		&models.ProductionContribution{},
		&models.ProductionOrderTargetStockpile{},
		&models.Operation{},
		&models.OperationRequirement{},
		&models.ActivityLog{},
	)
}
