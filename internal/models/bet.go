package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BetStatus string

const (
	BetPending   BetStatus = "pending"
	BetWon       BetStatus = "won"
	BetLost      BetStatus = "lost"
	BetRefunded  BetStatus = "refunded"
	BetCancelled BetStatus = "cancelled"
)

// Bet mirrors one ledger wager record. Odds and PotentialWin are locked at
// placement and never recomputed afterwards.
type Bet struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement:false"`
	Owner          string          `gorm:"type:varchar(64);not null;index"`
	MatchID        uint64          `gorm:"not null;index"`
	Outcome        Outcome         `gorm:"type:smallint;not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(30,6);not null"`
	Odds           decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	PotentialWin   decimal.Decimal `gorm:"type:numeric(30,6);not null"`
	Status         BetStatus       `gorm:"type:varchar(16);not null;default:pending;index"`
	Claimed        bool            `gorm:"not null;default:false"`
	PlacementProof *string         `gorm:"type:varchar(128)"`
	PlacedAt       time.Time       `gorm:"type:timestamptz;not null"`
	ResultSetAt    *time.Time      `gorm:"type:timestamptz"`
	ClaimedAt      *time.Time      `gorm:"type:timestamptz"`
	CreatedAt      time.Time       `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Bet) TableName() string {
	return "bets"
}

// ValidBetTransition enforces the bet state machine: pending leaves exactly
// once, every destination is terminal.
func ValidBetTransition(from, to BetStatus) bool {
	if from != BetPending {
		return false
	}
	switch to {
	case BetWon, BetLost, BetRefunded, BetCancelled:
		return true
	default:
		return false
	}
}
