package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"betledger/internal/ledger"
	"betledger/internal/models"
	"betledger/internal/repository"
)

const (
	syncScopeMatches = "matches"
	syncScopeBets    = "bets"
)

// Report summarizes one reconciliation pass over a counter range.
type Report struct {
	Scope     string    `json:"scope"`
	Processed int       `json:"processed"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Errored   int       `json:"errored"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// ReconcileService rebuilds the local mirror from ledger state. The ledger is
// the source of truth: rows missing locally are created, rows that diverge
// are overwritten. Local rows with no ledger counterpart are left alone since
// ledger ids are assigned from a monotonic counter and never deleted.
type ReconcileService struct {
	Repo   repository.Repository
	Ledger ledger.Client
	Logger *zap.Logger

	running atomic.Bool
}

// RunOnce walks the ledger's match and bet counters in ascending order. Only
// one pass may run at a time; a second caller gets ErrSyncInProgress and no
// state is touched.
func (s *ReconcileService) RunOnce(ctx context.Context) ([]Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, models.ErrSyncInProgress
	}
	defer s.running.Store(false)

	matchReport, err := s.syncMatches(ctx)
	if err != nil {
		return nil, err
	}
	betReport, err := s.syncBets(ctx)
	if err != nil {
		return []Report{matchReport}, err
	}
	return []Report{matchReport, betReport}, nil
}

func (s *ReconcileService) syncMatches(ctx context.Context) (Report, error) {
	report := Report{Scope: syncScopeMatches, StartedAt: time.Now().UTC()}
	count, err := s.Ledger.MatchCount(ctx)
	if err != nil {
		s.recordFailure(ctx, syncScopeMatches, err)
		return report, fmt.Errorf("match count: %w", err)
	}

	for id := uint64(1); id <= count; id++ {
		if err := ctx.Err(); err != nil {
			s.recordFailure(ctx, syncScopeMatches, err)
			return report, err
		}
		report.Processed++
		created, updated, err := s.syncMatch(ctx, id)
		if err != nil {
			report.Errored++
			if s.Logger != nil {
				s.Logger.Warn("match reconcile failed",
					zap.Uint64("match_id", id),
					zap.Error(err))
			}
			continue
		}
		if created {
			report.Created++
		}
		if updated {
			report.Updated++
		}
	}

	report.Duration = time.Since(report.StartedAt).String()
	s.recordSuccess(ctx, syncScopeMatches, report)
	return report, nil
}

func (s *ReconcileService) syncMatch(ctx context.Context, id uint64) (created, updated bool, err error) {
	rec, err := s.Ledger.MatchRecord(ctx, id)
	if err != nil {
		return false, false, err
	}

	local, err := s.Repo.GetMatch(ctx, id)
	if errors.Is(err, models.ErrMatchNotFound) {
		m := matchFromRecord(rec)
		if err := s.Repo.CreateMatch(ctx, m); err != nil {
			return false, false, err
		}
		return true, false, nil
	}
	if err != nil {
		return false, false, err
	}

	if !matchDiverged(local, rec) {
		return false, false, nil
	}
	// Cancellation is an administrative overlay with no ledger counterpart.
	// Overwriting a cancelled match from the ledger would resurrect it and
	// undo the refunds issued alongside it.
	if local.Status == models.MatchCancelled && rec.Status != models.MatchCancelled {
		if s.Logger != nil {
			s.Logger.Warn("keeping local cancellation over ledger state",
				zap.Uint64("match_id", id),
				zap.String("ledger_status", string(rec.Status)))
		}
		return false, false, nil
	}
	applyMatchRecord(local, rec)
	if err := s.Repo.SaveMatch(ctx, local); err != nil {
		return false, false, err
	}
	return false, true, nil
}

func (s *ReconcileService) syncBets(ctx context.Context) (Report, error) {
	report := Report{Scope: syncScopeBets, StartedAt: time.Now().UTC()}
	count, err := s.Ledger.BetCount(ctx)
	if err != nil {
		s.recordFailure(ctx, syncScopeBets, err)
		return report, fmt.Errorf("bet count: %w", err)
	}

	touched := make(map[uint64]struct{})
	for id := uint64(1); id <= count; id++ {
		if err := ctx.Err(); err != nil {
			s.recordFailure(ctx, syncScopeBets, err)
			return report, err
		}
		report.Processed++
		created, updated, matchID, err := s.syncBet(ctx, id)
		if err != nil {
			report.Errored++
			if s.Logger != nil {
				s.Logger.Warn("bet reconcile failed",
					zap.Uint64("bet_id", id),
					zap.Error(err))
			}
			continue
		}
		if created {
			report.Created++
		}
		if updated {
			report.Updated++
		}
		if created || updated {
			touched[matchID] = struct{}{}
		}
	}

	// A bet record that failed to fetch has an unknown match id, so any
	// recomputed total could be missing its stake. Keep the ledger's figure
	// until a clean pass.
	if report.Errored > 0 {
		if s.Logger != nil {
			s.Logger.Warn("skipping stake repair after bet reconcile errors",
				zap.Int("errored", report.Errored))
		}
	} else {
		for matchID := range touched {
			if err := s.repairStake(ctx, matchID); err != nil {
				report.Errored++
				if s.Logger != nil {
					s.Logger.Warn("stake repair failed",
						zap.Uint64("match_id", matchID),
						zap.Error(err))
				}
			}
		}
	}

	report.Duration = time.Since(report.StartedAt).String()
	s.recordSuccess(ctx, syncScopeBets, report)
	return report, nil
}

func (s *ReconcileService) syncBet(ctx context.Context, id uint64) (created, updated bool, matchID uint64, err error) {
	rec, err := s.Ledger.BetRecord(ctx, id)
	if err != nil {
		return false, false, 0, err
	}

	local, err := s.Repo.GetBet(ctx, id)
	if errors.Is(err, models.ErrBetNotFound) {
		b := betFromRecord(rec)
		if err := s.Repo.CreateBet(ctx, b); err != nil {
			return false, false, 0, err
		}
		return true, false, rec.MatchID, nil
	}
	if err != nil {
		return false, false, 0, err
	}

	if !betDiverged(local, rec) {
		return false, false, rec.MatchID, nil
	}
	// Refunded and cancelled bets only exist locally, see syncMatch.
	if (local.Status == models.BetRefunded || local.Status == models.BetCancelled) &&
		rec.Status == models.BetPending {
		if s.Logger != nil {
			s.Logger.Warn("keeping local terminal bet status over ledger state",
				zap.Uint64("bet_id", id),
				zap.String("local_status", string(local.Status)))
		}
		return false, false, rec.MatchID, nil
	}
	applyBetRecord(local, rec)
	if err := s.Repo.SaveBet(ctx, local); err != nil {
		return false, false, 0, err
	}
	return false, true, rec.MatchID, nil
}

// repairStake recomputes a match's total staked from its bet rows. Created or
// overwritten bets can leave the cached aggregate stale.
func (s *ReconcileService) repairStake(ctx context.Context, matchID uint64) error {
	total, err := s.Repo.SumStakes(ctx, matchID)
	if err != nil {
		return err
	}
	m, err := s.Repo.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.TotalStaked.Equal(total) {
		return nil
	}
	m.TotalStaked = total
	return s.Repo.SaveMatch(ctx, m)
}

func (s *ReconcileService) recordSuccess(ctx context.Context, scope string, report Report) {
	now := time.Now().UTC()
	stats, err := json.Marshal(report)
	if err != nil {
		stats = []byte("{}")
	}
	state := &models.SyncState{
		Scope:         scope,
		LastSuccessAt: &now,
		LastAttemptAt: &now,
		StatsJSON:     datatypes.JSON(stats),
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("sync state save failed", zap.String("scope", scope), zap.Error(err))
	}
}

func (s *ReconcileService) recordFailure(ctx context.Context, scope string, cause error) {
	now := time.Now().UTC()
	msg := cause.Error()
	prev, err := s.Repo.GetSyncState(ctx, scope)
	state := &models.SyncState{Scope: scope, LastAttemptAt: &now, LastError: &msg}
	if err == nil && prev != nil {
		state.LastSuccessAt = prev.LastSuccessAt
		state.StatsJSON = prev.StatsJSON
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("sync state save failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Status returns the persisted sync state for both scopes.
func (s *ReconcileService) Status(ctx context.Context) ([]*models.SyncState, error) {
	out := make([]*models.SyncState, 0, 2)
	for _, scope := range []string{syncScopeMatches, syncScopeBets} {
		state, err := s.Repo.GetSyncState(ctx, scope)
		if err != nil {
			return nil, err
		}
		if state != nil {
			out = append(out, state)
		}
	}
	return out, nil
}

func matchFromRecord(rec *ledger.MatchRecord) *models.Match {
	m := &models.Match{
		ID:          rec.ID,
		HomeTeam:    rec.HomeTeam,
		AwayTeam:    rec.AwayTeam,
		StartTime:   rec.StartTime,
		OddsHome:    rec.OddsHome,
		OddsDraw:    rec.OddsDraw,
		OddsAway:    rec.OddsAway,
		Status:      rec.Status,
		TotalStaked: rec.TotalStaked,
	}
	if rec.Result != nil {
		r := *rec.Result
		m.Result = &r
	}
	return m
}

func applyMatchRecord(m *models.Match, rec *ledger.MatchRecord) {
	m.HomeTeam = rec.HomeTeam
	m.AwayTeam = rec.AwayTeam
	m.StartTime = rec.StartTime
	m.OddsHome = rec.OddsHome
	m.OddsDraw = rec.OddsDraw
	m.OddsAway = rec.OddsAway
	m.Status = rec.Status
	m.TotalStaked = rec.TotalStaked
	m.Result = nil
	if rec.Result != nil {
		r := *rec.Result
		m.Result = &r
	}
}

func matchDiverged(m *models.Match, rec *ledger.MatchRecord) bool {
	if m.Status != rec.Status {
		return true
	}
	if (m.Result == nil) != (rec.Result == nil) {
		return true
	}
	if m.Result != nil && rec.Result != nil && *m.Result != *rec.Result {
		return true
	}
	if !m.TotalStaked.Equal(rec.TotalStaked) {
		return true
	}
	if !m.OddsHome.Equal(rec.OddsHome) || !m.OddsDraw.Equal(rec.OddsDraw) || !m.OddsAway.Equal(rec.OddsAway) {
		return true
	}
	return false
}

func betFromRecord(rec *ledger.BetRecord) *models.Bet {
	return &models.Bet{
		ID:           rec.ID,
		Owner:        rec.Owner,
		MatchID:      rec.MatchID,
		Outcome:      rec.Outcome,
		Amount:       rec.Amount,
		Odds:         rec.Odds,
		PotentialWin: rec.Amount.Mul(rec.Odds),
		Status:       rec.Status,
		Claimed:      rec.Claimed,
		PlacedAt:     rec.PlacedAt,
	}
}

func applyBetRecord(b *models.Bet, rec *ledger.BetRecord) {
	b.Owner = rec.Owner
	b.MatchID = rec.MatchID
	b.Outcome = rec.Outcome
	b.Amount = rec.Amount
	b.Odds = rec.Odds
	b.PotentialWin = rec.Amount.Mul(rec.Odds)
	b.Status = rec.Status
	b.Claimed = rec.Claimed
}

func betDiverged(b *models.Bet, rec *ledger.BetRecord) bool {
	if b.Status != rec.Status || b.Claimed != rec.Claimed {
		return true
	}
	if b.Owner != rec.Owner || b.MatchID != rec.MatchID || b.Outcome != rec.Outcome {
		return true
	}
	if !b.Amount.Equal(rec.Amount) || !b.Odds.Equal(rec.Odds) {
		return true
	}
	return false
}
