// database/seeder.go
package database

import (
	"errors"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultRoles describes the roles created for every new regiment. The
// Commander role is the auditable super-admin; there is no hardcoded
// bypass identity anywhere else.
var defaultRoles = []struct {
	Name         string
	Description  string
	IsDefault    bool
	IsSuperAdmin bool
	Position     int
	Permissions  []string
}{
	{
		Name:         "Commander",
		Description:  "Full access to everything in the regiment",
		IsSuperAdmin: true,
		Position:     0,
	},
	{
		Name:        "Quartermaster",
		Description: "Manages stockpiles and production orders",
		Position:    1,
		Permissions: []string{
			models.PermProductionView, models.PermProductionCreate,
			models.PermProductionEdit, models.PermProductionDelete,
			models.PermStockpileView, models.PermStockpileEdit,
			models.PermStockpileScan, models.PermOperationView,
			models.PermOperationEdit, models.PermStatsView,
		},
	},
	{
		Name:        "Logi",
		Description: "Records production and scans stockpiles",
		Position:    2,
		Permissions: []string{
			models.PermProductionView, models.PermProductionEdit,
			models.PermStockpileView, models.PermStockpileScan,
			models.PermOperationView, models.PermStatsView,
		},
	},
	{
		Name:        "Member",
		Description: "Read-only access",
		IsDefault:   true,
		Position:    3,
		Permissions: []string{
			models.PermProductionView, models.PermStockpileView,
			models.PermOperationView, models.PermStatsView,
		},
	},
}

// EnsureDefaultRoles seeds the default role set for a regiment. Idempotent:
// roles that already exist are left untouched.
func EnsureDefaultRoles(db *gorm.DB, regimentID types.SnowflakeID) error {
	for _, def := range defaultRoles {
		var existing models.Role
		err := db.Where("regiment_id = ? AND name = ?", regimentID, def.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		role := models.Role{
			RegimentID:   regimentID,
			Name:         def.Name,
			Description:  def.Description,
			IsDefault:    def.IsDefault,
			IsSuperAdmin: def.IsSuperAdmin,
			Position:     def.Position,
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
		for _, perm := range def.Permissions {
			if err := db.Create(&models.RolePermission{RoleID: role.ID, Permission: perm}).Error; err != nil {
				return err
			}
		}
		logrus.WithFields(logrus.Fields{
			"regiment_id": regimentID,
			"role":        def.Name,
		}).Info("Seeded default role")
	}
	return nil
}
