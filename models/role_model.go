package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

// Permission names checked by the route middleware. Seeded into the
// default roles of every regiment.
const (
	PermProductionView   = "production.view"
	PermProductionCreate = "production.create"
	PermProductionEdit   = "production.edit"
	PermProductionDelete = "production.delete"
	PermStockpileView    = "stockpile.view"
	PermStockpileEdit    = "stockpile.edit"
	PermStockpileScan    = "stockpile.scan"
	PermOperationView    = "operation.view"
	PermOperationEdit    = "operation.edit"
	PermStatsView        = "stats.view"
	PermRegimentManage   = "regiment.manage"
)

// AllPermissions is the catalog used by seeding and the role editor.
var AllPermissions = []string{
	PermProductionView,
	PermProductionCreate,
	PermProductionEdit,
	PermProductionDelete,
	PermStockpileView,
	PermStockpileEdit,
	PermStockpileScan,
	PermOperationView,
	PermOperationEdit,
	PermStatsView,
	PermRegimentManage,
}

// Role is a regiment-scoped role. IsSuperAdmin grants every permission and
// is assigned through the same role system as everything else; there is no
// hardcoded owner identity.
type Role struct {
	ID           types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	RegimentID   types.SnowflakeID `json:"regiment_id" gorm:"index;uniqueIndex:idx_role_regiment_name"`
	Name         string            `json:"name" gorm:"uniqueIndex:idx_role_regiment_name"`
	Description  string            `json:"description"`
	IsDefault    bool              `json:"is_default" gorm:"default:false"`
	IsSuperAdmin bool              `json:"is_super_admin" gorm:"default:false"`
	Position     int               `json:"position" gorm:"default:0"`
	Permissions  []RolePermission  `json:"permissions" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Role) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == 0 {
		r.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type RolePermission struct {
	ID         types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	RoleID     types.SnowflakeID `json:"role_id" gorm:"index;uniqueIndex:idx_role_permission"`
	Permission string            `json:"permission" gorm:"uniqueIndex:idx_role_permission"`
}

func (p *RolePermission) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == 0 {
		p.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// RoleDiscordMapping links a Discord guild role to an application role so
// membership sync can assign roles automatically.
type RoleDiscordMapping struct {
	ID            types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	RoleID        types.SnowflakeID `json:"role_id" gorm:"index;uniqueIndex:idx_role_discord"`
	DiscordRoleID string            `json:"discord_role_id" gorm:"index;uniqueIndex:idx_role_discord"`
}

func (m *RoleDiscordMapping) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == 0 {
		m.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
