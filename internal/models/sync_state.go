package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState records the latest reconciliation run per scope ("matches",
// "bets"). StatsJSON holds the run report counters.
type SyncState struct {
	Scope         string         `gorm:"primaryKey;type:text"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz"`
	LastError     *string        `gorm:"type:text"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb"`
}

func (SyncState) TableName() string {
	return "sync_state"
}
