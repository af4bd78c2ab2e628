package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"betledger/internal/config"
	"betledger/internal/models"
	"betledger/internal/repository"
	"betledger/internal/resultsource"
)

// DetectorService drives match lifecycle off the clock and the external
// result feed. One sweep promotes upcoming matches whose kickoff has passed,
// then polls the feed for every live match and settles the ones that finished.
//
// A live match whose feed never reports a final score is not guessed at:
// once the duration budget plus overtime margin is exhausted it is moved to
// finished with no result, and an operator settles it manually.
type DetectorService struct {
	Repo       repository.Repository
	Results    resultsource.Fetcher
	Settlement *SettlementService
	Cfg        config.DetectorConfig
	Logger     *zap.Logger

	// Now is the clock; tests pin it.
	Now func() time.Time
}

func (s *DetectorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Sweep runs one detector pass. Per-match failures are logged and skipped so
// one broken fixture cannot stall the rest of the schedule.
func (s *DetectorService) Sweep(ctx context.Context) error {
	if err := s.promoteStarted(ctx); err != nil {
		return err
	}
	return s.checkLive(ctx)
}

// detectorPageSize is the batch size for sweep queries. The sweep pages to
// the end of the result set so no match past the first page is skipped.
const detectorPageSize = 500

// listAllMatches pages through every match the filter selects. The repository
// caps a single query, so collection walks offsets until a short page.
func (s *DetectorService) listAllMatches(ctx context.Context, params repository.ListMatchesParams) ([]models.Match, error) {
	params.Limit = detectorPageSize
	var all []models.Match
	for offset := 0; ; offset += detectorPageSize {
		params.Offset = offset
		page, err := s.Repo.ListMatches(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < detectorPageSize {
			return all, nil
		}
	}
}

// promoteStarted moves upcoming matches past their kickoff into live.
func (s *DetectorService) promoteStarted(ctx context.Context) error {
	now := s.now()
	status := models.MatchUpcoming
	matches, err := s.listAllMatches(ctx, repository.ListMatchesParams{
		Status: &status,
		To:     &now,
	})
	if err != nil {
		return err
	}
	for i := range matches {
		m := &matches[i]
		err := s.Repo.UpdateMatchStatus(ctx, m.ID, models.MatchUpcoming, models.MatchLive)
		if errors.Is(err, models.ErrInvalidStateTransition) {
			continue // someone else moved it first
		}
		if err != nil {
			s.warn("match promotion failed", m.ID, err)
			continue
		}
		if s.Logger != nil {
			s.Logger.Info("match live",
				zap.Uint64("match_id", m.ID),
				zap.Time("start_time", m.StartTime))
		}
	}
	return nil
}

func (s *DetectorService) checkLive(ctx context.Context) error {
	status := models.MatchLive
	matches, err := s.listAllMatches(ctx, repository.ListMatchesParams{Status: &status})
	if err != nil {
		return err
	}
	for i := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := &matches[i]
		if err := s.checkMatch(ctx, m); err != nil {
			s.warn("live match check failed", m.ID, err)
		}
	}
	return nil
}

func (s *DetectorService) checkMatch(ctx context.Context, m *models.Match) error {
	if m.ExternalRef != nil && s.Results != nil {
		res, err := s.Results.FetchResult(ctx, *m.ExternalRef)
		if err == nil && res.Finished() && res.HomeScore != nil && res.AwayScore != nil {
			return s.finishWithScore(ctx, m, *res.HomeScore, *res.AwayScore)
		}
		if err != nil {
			s.warn("result fetch failed", m.ID, err)
		}
	}

	deadline := m.StartTime.Add(s.Cfg.DurationBudget + s.Cfg.OvertimeMargin)
	if s.now().After(deadline) {
		return s.finishWithoutResult(ctx, m, deadline)
	}
	return nil
}

func (s *DetectorService) finishWithScore(ctx context.Context, m *models.Match, home, away int) error {
	if err := s.Repo.SetMatchScore(ctx, m.ID, home, away); err != nil {
		return err
	}
	err := s.Repo.UpdateMatchStatus(ctx, m.ID, models.MatchLive, models.MatchFinished)
	if err != nil && err != models.ErrInvalidStateTransition {
		return err
	}
	outcome := outcomeFromScore(home, away)
	if s.Logger != nil {
		s.Logger.Info("match finished",
			zap.Uint64("match_id", m.ID),
			zap.Int("home_score", home),
			zap.Int("away_score", away),
			zap.Int("outcome", int(outcome)))
	}
	return s.Settlement.Settle(ctx, m.ID, outcome, SettleSourceOracle)
}

// finishWithoutResult closes out a match the feed lost track of. It carries
// no outcome, so pending bets stay pending until settled manually.
func (s *DetectorService) finishWithoutResult(ctx context.Context, m *models.Match, deadline time.Time) error {
	err := s.Repo.UpdateMatchStatus(ctx, m.ID, models.MatchLive, models.MatchFinished)
	if errors.Is(err, models.ErrInvalidStateTransition) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Warn("match closed without result, manual settlement required",
			zap.Uint64("match_id", m.ID),
			zap.Time("deadline", deadline))
	}
	return nil
}

func outcomeFromScore(home, away int) models.Outcome {
	switch {
	case home > away:
		return models.OutcomeHome
	case home < away:
		return models.OutcomeAway
	default:
		return models.OutcomeDraw
	}
}

func (s *DetectorService) warn(msg string, matchID uint64, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, zap.Uint64("match_id", matchID), zap.Error(err))
	}
}
