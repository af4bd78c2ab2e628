package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"betledger/internal/ledger"
	"betledger/internal/models"
	"betledger/internal/repository"
)

// Settlement sources: who vouched for the outcome.
const (
	SettleSourceOracle = "oracle"
	SettleSourceManual = "manual"
)

// StatsSink receives aggregate-winnings updates for settled winners. Failures
// are logged and never roll back a bet transition.
type StatsSink interface {
	AddWinnings(ctx context.Context, owner string, delta decimal.Decimal) error
}

// SettlementService resolves every pending wager on a finished match.
//
// The match result is recorded strictly before any bet is touched, and the
// per-bet compare-and-swap is the unit of idempotence: a re-run after a crash
// mid-loop resolves only the bets still pending and leaves resolved ones
// untouched.
type SettlementService struct {
	Repo   repository.Repository
	Ledger ledger.Client
	Stats  StatsSink
	Logger *zap.Logger
}

// Settle records the outcome and resolves all pending bets on the match.
//
// Retrying with the outcome already recorded resumes bet resolution; retrying
// with a different outcome fails with ErrResultAlreadySet and changes nothing.
// The manual source may settle a match that is not yet finished (it is forced
// to finished first); the oracle source requires the normal lifecycle.
func (s *SettlementService) Settle(ctx context.Context, matchID uint64, outcome models.Outcome, source string) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %d", models.ErrInvalidWagerParameters, outcome)
	}

	m, err := s.Repo.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status == models.MatchCancelled {
		return models.ErrMatchCancelled
	}

	if m.Result != nil {
		if *m.Result != outcome {
			return models.ErrResultAlreadySet
		}
		// Same outcome: resume a partially settled match.
		return s.resolveBets(ctx, matchID, outcome)
	}

	if m.Status != models.MatchFinished {
		if source != SettleSourceManual {
			return models.ErrMatchNotFinished
		}
		if err := s.Repo.UpdateMatchStatus(ctx, matchID, m.Status, models.MatchFinished); err != nil &&
			!errors.Is(err, models.ErrInvalidStateTransition) {
			return err
		}
	}

	// Ledger confirmation comes first: if the authoritative record cannot be
	// written, no bet may be resolved.
	proof, err := s.Ledger.ConfirmResult(ctx, matchID, outcome)
	if err != nil {
		return fmt.Errorf("confirm result on ledger: %w", err)
	}

	if err := s.Repo.SetMatchResult(ctx, matchID, outcome, source, proof); err != nil {
		if errors.Is(err, models.ErrResultAlreadySet) {
			// A concurrent settlement won the race. Resume only if it
			// recorded the same outcome.
			current, getErr := s.Repo.GetMatch(ctx, matchID)
			if getErr != nil {
				return getErr
			}
			if current.Result != nil && *current.Result == outcome {
				return s.resolveBets(ctx, matchID, outcome)
			}
		}
		return err
	}

	if s.Logger != nil {
		s.Logger.Info("match result recorded",
			zap.Uint64("match_id", matchID),
			zap.Int16("outcome", int16(outcome)),
			zap.String("source", source),
			zap.String("proof", proof))
	}
	return s.resolveBets(ctx, matchID, outcome)
}

func (s *SettlementService) resolveBets(ctx context.Context, matchID uint64, outcome models.Outcome) error {
	pending, err := s.Repo.ListPendingBets(ctx, matchID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	won, lost := 0, 0
	for _, b := range pending {
		to := models.BetLost
		if b.Outcome == outcome {
			to = models.BetWon
		}
		if err := s.Repo.TransitionBet(ctx, b.ID, models.BetPending, to, now); err != nil {
			if errors.Is(err, models.ErrInvalidStateTransition) {
				// Resolved by a concurrent run between enumeration and here.
				continue
			}
			if s.Logger != nil {
				s.Logger.Error("bet resolution failed",
					zap.Uint64("bet_id", b.ID),
					zap.Error(err))
			}
			continue
		}
		if to == models.BetWon {
			won++
			if s.Stats != nil {
				if err := s.Stats.AddWinnings(ctx, b.Owner, b.PotentialWin); err != nil && s.Logger != nil {
					// Best effort: the bet stays won regardless.
					s.Logger.Warn("stats update failed",
						zap.String("owner", b.Owner),
						zap.Uint64("bet_id", b.ID),
						zap.Error(err))
				}
			}
		} else {
			lost++
		}
	}

	if s.Logger != nil {
		s.Logger.Info("match settled",
			zap.Uint64("match_id", matchID),
			zap.Int("won", won),
			zap.Int("lost", lost))
	}
	return nil
}
