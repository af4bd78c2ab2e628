package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"betledger/internal/ledger"
	"betledger/internal/models"
	"betledger/internal/repository"
)

// ClaimService pays out a won bet exactly once.
//
// The ledger payout is the authoritative "has this been paid"; the local
// claimed flag is a cache of it. The payout call therefore happens first, and
// the local flag is flipped only on confirmed success. If the process dies
// between the two, reconciliation restores the flag from the ledger record.
type ClaimService struct {
	Repo   repository.Repository
	Ledger ledger.Client
	Logger *zap.Logger
}

func (s *ClaimService) Claim(ctx context.Context, betID uint64, owner string) (*models.Bet, error) {
	b, err := s.Repo.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	// Guard violations fail fast without touching the ledger.
	if b.Owner != owner {
		return nil, models.ErrNotBetOwner
	}
	if b.Status != models.BetWon {
		return nil, models.ErrBetNotWon
	}
	if b.Claimed {
		return nil, models.ErrAlreadyClaimed
	}

	proof, err := s.Ledger.Payout(ctx, betID)
	if err != nil {
		// A reverted payout may mean a concurrent claim got there first;
		// the ledger record settles the question.
		if errors.Is(err, ledger.ErrReverted) {
			if rec, recErr := s.Ledger.BetRecord(ctx, betID); recErr == nil && rec.Claimed {
				if markErr := s.Repo.MarkClaimed(ctx, betID, time.Now().UTC()); markErr != nil && s.Logger != nil {
					s.Logger.Warn("claimed flag repair failed",
						zap.Uint64("bet_id", betID),
						zap.Error(markErr))
				}
				return nil, models.ErrAlreadyClaimed
			}
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPayoutFailed, err)
	}

	now := time.Now().UTC()
	if err := s.Repo.MarkClaimed(ctx, betID, now); err != nil && !errors.Is(err, models.ErrAlreadyClaimed) {
		// Paid on-chain but not marked locally; reconciliation will repair
		// the mirror. Surface the conflict rather than paying again.
		if s.Logger != nil {
			s.Logger.Error("claim marked on ledger but not locally",
				zap.Uint64("bet_id", betID),
				zap.String("proof", proof),
				zap.Error(err))
		}
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("bet claimed",
			zap.Uint64("bet_id", betID),
			zap.String("owner", owner),
			zap.String("payout", b.PotentialWin.String()),
			zap.String("proof", proof))
	}

	b.Claimed = true
	b.ClaimedAt = &now
	return b, nil
}
