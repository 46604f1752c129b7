package repositories

import (
	"github.com/metroshica/foxhole-quartermaster-sub001/types"

	"gorm.io/gorm"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db}
}

type ProductionLeaderboardRow struct {
	UserID        types.SnowflakeID `json:"user_id"`
	Name          string            `json:"name"`
	TotalProduced int               `json:"total_produced"`
	Contributions int               `json:"contributions"`
}

// ProductionLeaderboard sums contribution quantities per user, optionally
// scoped to one war.
func (r *StatsRepository) ProductionLeaderboard(regimentID types.SnowflakeID, warNumber int, limit int) ([]ProductionLeaderboardRow, error) {
	sqlLeaderboard := `select c.user_id, u.name, sum(c.quantity) as total_produced,
	count(*) as contributions
	from production_contributions c
	inner join production_orders o on c.order_id = o.id
	inner join users u on c.user_id = u.id
	where o.regiment_id = ?
	`
	args := []interface{}{regimentID}

	if warNumber > 0 {
		sqlLeaderboard += " and c.war_number = ?"
		args = append(args, warNumber)
	}
	sqlLeaderboard += `
	group by c.user_id, u.name
	order by total_produced desc
	limit ?`
	args = append(args, limit)

	var rows []ProductionLeaderboardRow
	if err := r.db.Raw(sqlLeaderboard, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type LogisticsLeaderboardRow struct {
	UserID    types.SnowflakeID `json:"user_id"`
	Name      string            `json:"name"`
	Scans     int               `json:"scans"`
	Refreshes int               `json:"refreshes"`
}

// LogisticsLeaderboard counts scans and refreshes per user across a
// regiment's stockpiles.
func (r *StatsRepository) LogisticsLeaderboard(regimentID types.SnowflakeID, limit int) ([]LogisticsLeaderboardRow, error) {
	sqlLeaderboard := `select u.id as user_id, u.name,
	coalesce(s.scan_count, 0) as scans,
	coalesce(f.refresh_count, 0) as refreshes
	from users u
	left join (
		select a.scanned_by_id, count(*) as scan_count
		from stockpile_scans a
		inner join stockpiles b on a.stockpile_id = b.id
		where b.regiment_id = ?
		group by a.scanned_by_id
	) s on s.scanned_by_id = u.id
	left join (
		select a.refreshed_by_id, count(*) as refresh_count
		from stockpile_refreshes a
		inner join stockpiles b on a.stockpile_id = b.id
		where b.regiment_id = ?
		group by a.refreshed_by_id
	) f on f.refreshed_by_id = u.id
	where coalesce(s.scan_count, 0) > 0 or coalesce(f.refresh_count, 0) > 0
	order by scans desc, refreshes desc
	limit ?`

	var rows []LogisticsLeaderboardRow
	if err := r.db.Raw(sqlLeaderboard, regimentID, regimentID, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
