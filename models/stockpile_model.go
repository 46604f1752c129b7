package models

import (
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

const (
	StockpileTypeStorageDepot = "STORAGE_DEPOT"
	StockpileTypeSeaport      = "SEAPORT"
)

type Stockpile struct {
	ID              types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	RegimentID      types.SnowflakeID `json:"regiment_id" gorm:"index;uniqueIndex:idx_stockpile_regiment_name"`
	Name            string            `json:"name" gorm:"uniqueIndex:idx_stockpile_regiment_name"`
	Type            string            `json:"type" gorm:"default:STORAGE_DEPOT"`
	Hex             string            `json:"hex" gorm:"index"`
	LocationName    string            `json:"location_name"`
	Code            string            `json:"code"`
	LastRefreshedAt *time.Time        `json:"last_refreshed_at"`
	Items           []StockpileItem   `json:"items" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *Stockpile) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == 0 {
		s.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// Location renders "hex - name", the display form used everywhere.
func (s *Stockpile) Location() string {
	return s.Hex + " - " + s.Name
}

type StockpileItem struct {
	ID          types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	StockpileID types.SnowflakeID `json:"stockpile_id" gorm:"index;uniqueIndex:idx_stockpile_item_crated"`
	ItemCode    string            `json:"item_code" gorm:"index;uniqueIndex:idx_stockpile_item_crated"`
	Quantity    int               `json:"quantity"`
	Crated      bool              `json:"crated" gorm:"default:false;uniqueIndex:idx_stockpile_item_crated"`
	Confidence  *float64          `json:"confidence"`
	UpdatedAt   time.Time
}

func (i *StockpileItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == 0 {
		i.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// StockpileScan records one OCR scan applied to a stockpile.
type StockpileScan struct {
	ID            types.SnowflakeID  `json:"ID" gorm:"primaryKey"`
	StockpileID   types.SnowflakeID  `json:"stockpile_id" gorm:"index"`
	ScannedByID   types.SnowflakeID  `json:"scanned_by_id" gorm:"index"`
	ScreenshotURL string             `json:"screenshot_url"`
	OcrConfidence *float64           `json:"ocr_confidence"`
	ItemCount     int                `json:"item_count" gorm:"default:0"`
	WarNumber     int                `json:"war_number" gorm:"index"`
	ScanItems     []StockpileScanItem `json:"scan_items" gorm:"foreignKey:ScanID;constraint:OnDelete:CASCADE;"`
	CreatedAt     time.Time          `gorm:"index"`
}

func (s *StockpileScan) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == 0 {
		s.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type StockpileScanItem struct {
	ID         types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	ScanID     types.SnowflakeID `json:"scan_id" gorm:"index"`
	ItemCode   string            `json:"item_code" gorm:"index"`
	Quantity   int               `json:"quantity"`
	Crated     bool              `json:"crated" gorm:"default:false"`
	Confidence *float64          `json:"confidence"`
}

func (i *StockpileScanItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == 0 {
		i.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

// StockpileRefresh records a manual refresh action, counted on the
// logistics leaderboard.
type StockpileRefresh struct {
	ID            types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	StockpileID   types.SnowflakeID `json:"stockpile_id" gorm:"index"`
	RefreshedByID types.SnowflakeID `json:"refreshed_by_id" gorm:"index"`
	WarNumber     int               `json:"war_number" gorm:"index"`
	CreatedAt     time.Time         `gorm:"index"`
}

func (r *StockpileRefresh) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == 0 {
		r.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
