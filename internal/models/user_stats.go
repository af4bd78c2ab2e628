package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats is the aggregate-winnings projection fed by the settlement path.
// It is advisory: settlement never depends on it and never rolls back when a
// stats write fails.
type UserStats struct {
	Owner         string          `gorm:"primaryKey;type:varchar(64)"`
	TotalWinnings decimal.Decimal `gorm:"type:numeric(30,6);not null;default:0"`
	WonBets       int64           `gorm:"not null;default:0"`
	UpdatedAt     time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
