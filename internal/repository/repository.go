package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"betledger/internal/models"
)

type ListMatchesParams struct {
	Status      *models.MatchStatus
	GroupLabel  *string
	Participant *string // substring match on either team name
	From        *time.Time
	To          *time.Time
	HasResult   *bool
	Limit       int
	Offset      int
}

type ListBetsParams struct {
	Owner   *string
	MatchID *uint64
	Status  *models.BetStatus
	Claimed *bool
	Limit   int
	Offset  int
}

// MatchRepository is the local mirror of ledger match records. Every mutating
// operation is a guarded update: the WHERE clause carries the precondition and
// zero rows affected means the guard failed, never a silent overwrite.
type MatchRepository interface {
	// CreateMatch inserts the row if the ledger-assigned id is new and is a
	// no-op when it already exists.
	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id uint64) (*models.Match, error)
	ListMatches(ctx context.Context, params ListMatchesParams) ([]models.Match, error)
	CountMatches(ctx context.Context, params ListMatchesParams) (int64, error)
	// UpdateMatchDetails rewrites schedule/odds/metadata. With guardUnstaked
	// set the update only lands while total_staked is still zero.
	UpdateMatchDetails(ctx context.Context, m *models.Match, guardUnstaked bool) error
	UpdateMatchStatus(ctx context.Context, id uint64, from, to models.MatchStatus) error
	IncrementStake(ctx context.Context, id uint64, amount decimal.Decimal) error
	SetMatchResult(ctx context.Context, id uint64, outcome models.Outcome, source, proof string) error
	SetMatchScore(ctx context.Context, id uint64, home, away int) error
	// SaveMatch overwrites the full row; reconciliation only.
	SaveMatch(ctx context.Context, m *models.Match) error
}

// BetRepository is the local mirror of ledger wager records.
type BetRepository interface {
	CreateBet(ctx context.Context, b *models.Bet) error
	GetBet(ctx context.Context, id uint64) (*models.Bet, error)
	ListBets(ctx context.Context, params ListBetsParams) ([]models.Bet, error)
	CountBets(ctx context.Context, params ListBetsParams) (int64, error)
	ListPendingBets(ctx context.Context, matchID uint64) ([]models.Bet, error)
	// TransitionBet is the compare-and-swap leaving pending: it fails with
	// ErrInvalidStateTransition when the current status is not `from`.
	TransitionBet(ctx context.Context, id uint64, from, to models.BetStatus, at time.Time) error
	// MarkClaimed flips the claimed flag, guarded on status=won and not yet
	// claimed. The race loser gets ErrAlreadyClaimed.
	MarkClaimed(ctx context.Context, id uint64, at time.Time) error
	// SaveBet overwrites the full row; reconciliation only.
	SaveBet(ctx context.Context, b *models.Bet) error
	SumStakes(ctx context.Context, matchID uint64) (decimal.Decimal, error)
}

type StatsRepository interface {
	AddWinnings(ctx context.Context, owner string, delta decimal.Decimal) error
	GetUserStats(ctx context.Context, owner string) (*models.UserStats, error)
}

type SyncStateRepository interface {
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
}

type Repository interface {
	MatchRepository
	BetRepository
	StatsRepository
	SyncStateRepository
}
