package ledger

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"betledger/internal/models"
)

// The contract is the single source of truth for matches, wagers, results and
// payouts. Everything here is read back during reconciliation; local rows are
// a cache of these records.

var (
	// ErrUnavailable wraps transport-level failures (dial, timeout, RPC).
	// Callers treat it as retryable; reconciliation later discovers whether
	// the call actually landed.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrReverted means the transaction was mined but the contract rejected it.
	ErrReverted = errors.New("ledger transaction reverted")
	// ErrRecordNotFound is returned for reads past the record counters.
	ErrRecordNotFound = errors.New("ledger record not found")
)

// MatchRecord is the authoritative match state as the contract reports it.
type MatchRecord struct {
	ID          uint64
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time
	OddsHome    decimal.Decimal
	OddsDraw    decimal.Decimal
	OddsAway    decimal.Decimal
	Status      models.MatchStatus
	Result      *models.Outcome
	TotalStaked decimal.Decimal
}

// BetRecord is the authoritative wager state as the contract reports it.
type BetRecord struct {
	ID       uint64
	Owner    string
	MatchID  uint64
	Outcome  models.Outcome
	Amount   decimal.Decimal
	Odds     decimal.Decimal
	Status   models.BetStatus
	Claimed  bool
	PlacedAt time.Time
}

type CreateMatchParams struct {
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	OddsHome  decimal.Decimal
	OddsDraw  decimal.Decimal
	OddsAway  decimal.Decimal
}

// Client is the boundary to the external ledger. All calls block on network
// I/O and honor the passed context; no row locks may be held across them.
type Client interface {
	CreateMatch(ctx context.Context, params CreateMatchParams) (id uint64, proof string, err error)
	SubmitWager(ctx context.Context, matchID uint64, outcome models.Outcome, owner string, amount decimal.Decimal) (id uint64, proof string, err error)
	ConfirmResult(ctx context.Context, matchID uint64, outcome models.Outcome) (proof string, err error)
	Payout(ctx context.Context, betID uint64) (proof string, err error)
	MatchRecord(ctx context.Context, id uint64) (*MatchRecord, error)
	BetRecord(ctx context.Context, id uint64) (*BetRecord, error)
	MatchCount(ctx context.Context) (uint64, error)
	BetCount(ctx context.Context) (uint64, error)
}

// Stakes are held on-chain in 6-decimal token units, odds as 2-decimal
// hundredths. The conversions are exact in both directions.
const (
	stakeDecimals = 6
	oddsDecimals  = 2
)

func stakeToUnits(d decimal.Decimal) *big.Int {
	return d.Shift(stakeDecimals).Truncate(0).BigInt()
}

func unitsToStake(b *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(b, -stakeDecimals)
}

func oddsToUnits(d decimal.Decimal) *big.Int {
	return d.Shift(oddsDecimals).Truncate(0).BigInt()
}

func unitsToOdds(b *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(b, -oddsDecimals)
}

func matchStatusFromCode(code uint8) models.MatchStatus {
	switch code {
	case 1:
		return models.MatchLive
	case 2:
		return models.MatchFinished
	case 3:
		return models.MatchCancelled
	default:
		return models.MatchUpcoming
	}
}

func betStatusFromCode(code uint8) models.BetStatus {
	switch code {
	case 1:
		return models.BetWon
	case 2:
		return models.BetLost
	case 3:
		return models.BetRefunded
	case 4:
		return models.BetCancelled
	default:
		return models.BetPending
	}
}
