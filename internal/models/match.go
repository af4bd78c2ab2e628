package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
)

// Outcome is the discrete result code used on-chain: 0 home win, 1 draw, 2 away win.
type Outcome int16

const (
	OutcomeHome Outcome = 0
	OutcomeDraw Outcome = 1
	OutcomeAway Outcome = 2
)

func (o Outcome) Valid() bool {
	return o == OutcomeHome || o == OutcomeDraw || o == OutcomeAway
}

// Match mirrors one ledger match record. The ID is assigned by the contract at
// creation and is never generated locally.
type Match struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement:false"`
	HomeTeam     string          `gorm:"type:text;not null"`
	AwayTeam     string          `gorm:"type:text;not null"`
	StartTime    time.Time       `gorm:"type:timestamptz;not null;index"`
	Venue        *string         `gorm:"type:text"`
	GroupLabel   *string         `gorm:"type:text;index"`
	OddsHome     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	OddsDraw     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	OddsAway     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status       MatchStatus     `gorm:"type:varchar(16);not null;default:upcoming;index"`
	Result       *Outcome        `gorm:"type:smallint"`
	HomeScore    *int            `gorm:"type:int"`
	AwayScore    *int            `gorm:"type:int"`
	ResultSource *string         `gorm:"type:varchar(64)"`
	ResultProof  *string         `gorm:"type:varchar(128)"`
	ExternalRef  *string         `gorm:"type:varchar(64);index"`
	TotalStaked  decimal.Decimal `gorm:"type:numeric(30,6);not null;default:0"`
	CreatedAt    time.Time       `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Match) TableName() string {
	return "matches"
}

// Bettable reports whether new wagers may reference the match.
func (m *Match) Bettable() bool {
	return m.Status == MatchUpcoming
}

// Locked reports whether odds and schedule are frozen. Once any stake
// references the match its odds must stay exactly as bettors saw them.
func (m *Match) Locked() bool {
	return m.TotalStaked.IsPositive()
}

// OddsFor returns the current odds for one outcome.
func (m *Match) OddsFor(o Outcome) decimal.Decimal {
	switch o {
	case OutcomeDraw:
		return m.OddsDraw
	case OutcomeAway:
		return m.OddsAway
	default:
		return m.OddsHome
	}
}

// ValidMatchTransition is the forward-only match state machine.
// finished and cancelled are terminal.
func ValidMatchTransition(from, to MatchStatus) bool {
	switch from {
	case MatchUpcoming:
		return to == MatchLive || to == MatchFinished || to == MatchCancelled
	case MatchLive:
		return to == MatchFinished || to == MatchCancelled
	default:
		return false
	}
}
