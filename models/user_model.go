package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

type User struct {
	ID        types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	DiscordID string            `json:"discord_id" gorm:"uniqueIndex;not null"`
	Name      string            `json:"name"`
	Avatar    string            `json:"avatar"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == 0 {
		u.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type UserSession struct {
	gorm.Model
	UserID         types.SnowflakeID `json:"user_id" gorm:"index"`
	SessionID      string            `json:"session_id" gorm:"uniqueIndex"`
	RegimentID     types.SnowflakeID `json:"regiment_id"`
	IPAddress      string            `json:"ip_address"`
	UserAgent      string            `json:"user_agent"`
	IsActive       bool              `json:"is_active" gorm:"default:true"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}
