package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"betledger/internal/ledger"
	"betledger/internal/models"
	"betledger/internal/payout"
	"betledger/internal/repository"
)

// BetService handles wager placement and bet queries. Placement is
// ledger-first: the wager is submitted on-chain, and the local mirror row is
// written only after the contract has accepted it and assigned the bet id. A
// crash between the two is repaired by reconciliation, never by guessing ids.
type BetService struct {
	Repo   repository.Repository
	Ledger ledger.Client
	Calc   payout.Calculator
	MinBet decimal.Decimal
	MaxBet decimal.Decimal
	Logger *zap.Logger
}

type PlaceBetParams struct {
	Owner   string
	MatchID uint64
	Outcome models.Outcome
	Amount  decimal.Decimal
}

func (s *BetService) Place(ctx context.Context, params PlaceBetParams) (*models.Bet, error) {
	if params.Owner == "" {
		return nil, fmt.Errorf("%w: owner required", models.ErrInvalidWagerParameters)
	}
	if !params.Outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome %d", models.ErrInvalidWagerParameters, params.Outcome)
	}
	if params.Amount.LessThan(s.MinBet) || params.Amount.GreaterThan(s.MaxBet) {
		return nil, fmt.Errorf("%w: amount %s outside [%s, %s]", models.ErrWagerOutOfBounds, params.Amount, s.MinBet, s.MaxBet)
	}

	m, err := s.Repo.GetMatch(ctx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.Bettable() {
		return nil, models.ErrMatchNotBettable
	}

	odds := m.OddsFor(params.Outcome)
	potentialWin, err := s.Calc.PotentialWin(params.Amount, odds)
	if err != nil {
		return nil, err
	}

	// No local state is held across the ledger call.
	id, proof, err := s.Ledger.SubmitWager(ctx, params.MatchID, params.Outcome, params.Owner, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("submit wager to ledger: %w", err)
	}

	now := time.Now().UTC()
	b := &models.Bet{
		ID:             id,
		Owner:          params.Owner,
		MatchID:        params.MatchID,
		Outcome:        params.Outcome,
		Amount:         params.Amount,
		Odds:           odds,
		PotentialWin:   potentialWin,
		Status:         models.BetPending,
		PlacementProof: &proof,
		PlacedAt:       now,
	}
	if err := s.Repo.CreateBet(ctx, b); err != nil {
		return nil, fmt.Errorf("mirror bet %d: %w", id, err)
	}
	if err := s.Repo.IncrementStake(ctx, params.MatchID, params.Amount); err != nil {
		// The running sum is a projection; reconciliation repairs drift.
		if s.Logger != nil {
			s.Logger.Warn("stake increment failed",
				zap.Uint64("match_id", params.MatchID),
				zap.Error(err))
		}
	}
	if s.Logger != nil {
		s.Logger.Info("bet placed",
			zap.Uint64("bet_id", id),
			zap.Uint64("match_id", params.MatchID),
			zap.String("owner", params.Owner),
			zap.String("amount", params.Amount.String()),
			zap.String("odds", odds.String()))
	}
	return b, nil
}

func (s *BetService) Get(ctx context.Context, id uint64) (*models.Bet, error) {
	return s.Repo.GetBet(ctx, id)
}

func (s *BetService) List(ctx context.Context, params repository.ListBetsParams) ([]models.Bet, int64, error) {
	items, err := s.Repo.ListBets(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.Repo.CountBets(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, count, nil
}
