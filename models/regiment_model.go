package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

// Permission levels for regiment members, lowest to highest.
const (
	PermissionLevelViewer = "VIEWER"
	PermissionLevelEditor = "EDITOR"
	PermissionLevelAdmin  = "ADMIN"
)

type Regiment struct {
	ID             types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	DiscordGuildID string            `json:"discord_guild_id" gorm:"uniqueIndex;not null"`
	Name           string            `json:"name"`
	Icon           string            `json:"icon"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Regiment) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == 0 {
		r.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type RegimentMember struct {
	ID              types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	RegimentID      types.SnowflakeID `json:"regiment_id" gorm:"index;uniqueIndex:idx_member_regiment_user"`
	UserID          types.SnowflakeID `json:"user_id" gorm:"uniqueIndex:idx_member_regiment_user"`
	PermissionLevel string            `json:"permission_level" gorm:"default:VIEWER"`
	Roles           []Role            `json:"roles" gorm:"many2many:regiment_member_roles;"`
	User            User              `json:"user" gorm:"foreignKey:UserID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m *RegimentMember) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == 0 {
		m.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
