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

// MatchService owns the admin-facing match lifecycle. Match ids come from the
// ledger: creation submits on-chain first and mirrors locally only once the
// contract has assigned an id.
type MatchService struct {
	Repo   repository.Repository
	Ledger ledger.Client
	Calc   payout.Calculator
	Logger *zap.Logger
}

type CreateMatchParams struct {
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time
	Venue       *string
	GroupLabel  *string
	OddsHome    decimal.Decimal
	OddsDraw    decimal.Decimal
	OddsAway    decimal.Decimal
	ExternalRef *string
}

func (p CreateMatchParams) validate(calc payout.Calculator) error {
	if p.HomeTeam == "" || p.AwayTeam == "" {
		return fmt.Errorf("%w: both participants required", models.ErrInvalidWagerParameters)
	}
	for _, odds := range []decimal.Decimal{p.OddsHome, p.OddsDraw, p.OddsAway} {
		if odds.LessThan(calc.MinOdds) || odds.GreaterThan(calc.MaxOdds) {
			return fmt.Errorf("%w: odds %s outside [%s, %s]", models.ErrInvalidWagerParameters, odds, calc.MinOdds, calc.MaxOdds)
		}
	}
	return nil
}

func (s *MatchService) Create(ctx context.Context, params CreateMatchParams) (*models.Match, error) {
	if err := params.validate(s.Calc); err != nil {
		return nil, err
	}

	id, proof, err := s.Ledger.CreateMatch(ctx, ledger.CreateMatchParams{
		HomeTeam:  params.HomeTeam,
		AwayTeam:  params.AwayTeam,
		StartTime: params.StartTime,
		OddsHome:  params.OddsHome,
		OddsDraw:  params.OddsDraw,
		OddsAway:  params.OddsAway,
	})
	if err != nil {
		return nil, fmt.Errorf("create match on ledger: %w", err)
	}

	m := &models.Match{
		ID:          id,
		HomeTeam:    params.HomeTeam,
		AwayTeam:    params.AwayTeam,
		StartTime:   params.StartTime.UTC(),
		Venue:       params.Venue,
		GroupLabel:  params.GroupLabel,
		OddsHome:    params.OddsHome,
		OddsDraw:    params.OddsDraw,
		OddsAway:    params.OddsAway,
		Status:      models.MatchUpcoming,
		TotalStaked: decimal.Zero,
	}
	if err := s.Repo.CreateMatch(ctx, m); err != nil {
		// The ledger record exists; reconciliation will recreate the mirror row.
		return nil, fmt.Errorf("mirror match %d: %w", id, err)
	}
	if s.Logger != nil {
		s.Logger.Info("match created",
			zap.Uint64("match_id", id),
			zap.String("proof", proof))
	}
	return m, nil
}

type UpdateMatchParams struct {
	HomeTeam    *string
	AwayTeam    *string
	StartTime   *time.Time
	Venue       *string
	GroupLabel  *string
	OddsHome    *decimal.Decimal
	OddsDraw    *decimal.Decimal
	OddsAway    *decimal.Decimal
	ExternalRef *string
}

// Update edits match metadata. Odds and schedule are frozen as soon as any
// stake references the match; the repository re-checks that guard so a
// placement racing this call cannot slip through.
func (s *MatchService) Update(ctx context.Context, id uint64, params UpdateMatchParams) (*models.Match, error) {
	m, err := s.Repo.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == models.MatchCancelled || m.Status == models.MatchFinished {
		return nil, models.ErrInvalidStateTransition
	}

	touchesLocked := params.StartTime != nil ||
		params.OddsHome != nil || params.OddsDraw != nil || params.OddsAway != nil
	if touchesLocked && m.Locked() {
		return nil, models.ErrMatchLocked
	}

	if params.HomeTeam != nil {
		m.HomeTeam = *params.HomeTeam
	}
	if params.AwayTeam != nil {
		m.AwayTeam = *params.AwayTeam
	}
	if params.StartTime != nil {
		m.StartTime = params.StartTime.UTC()
	}
	if params.Venue != nil {
		m.Venue = params.Venue
	}
	if params.GroupLabel != nil {
		m.GroupLabel = params.GroupLabel
	}
	if params.OddsHome != nil {
		m.OddsHome = *params.OddsHome
	}
	if params.OddsDraw != nil {
		m.OddsDraw = *params.OddsDraw
	}
	if params.OddsAway != nil {
		m.OddsAway = *params.OddsAway
	}
	if params.ExternalRef != nil {
		m.ExternalRef = params.ExternalRef
	}
	if err := (CreateMatchParams{
		HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam,
		OddsHome: m.OddsHome, OddsDraw: m.OddsDraw, OddsAway: m.OddsAway,
	}).validate(s.Calc); err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateMatchDetails(ctx, m, touchesLocked); err != nil {
		return nil, err
	}
	return m, nil
}

// Cancel moves an upcoming or live match to cancelled and refunds every
// pending bet on it. The ledger has no cancel operation, so the change is
// local only; reconciliation keeps cancelled matches and refunded bets as
// they are rather than restoring the ledger's view.
func (s *MatchService) Cancel(ctx context.Context, id uint64) error {
	m, err := s.Repo.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateMatchStatus(ctx, id, m.Status, models.MatchCancelled); err != nil {
		return err
	}

	pending, err := s.Repo.ListPendingBets(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, b := range pending {
		if err := s.Repo.TransitionBet(ctx, b.ID, models.BetPending, models.BetRefunded, now); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("refund on cancel failed",
					zap.Uint64("bet_id", b.ID),
					zap.Error(err))
			}
		}
	}
	if s.Logger != nil {
		s.Logger.Info("match cancelled",
			zap.Uint64("match_id", id),
			zap.Int("refunded_bets", len(pending)))
		s.Logger.Warn("cancellation recorded locally only, ledger still holds the stakes",
			zap.Uint64("match_id", id))
	}
	return nil
}

func (s *MatchService) Get(ctx context.Context, id uint64) (*models.Match, error) {
	return s.Repo.GetMatch(ctx, id)
}

func (s *MatchService) List(ctx context.Context, params repository.ListMatchesParams) ([]models.Match, int64, error) {
	items, err := s.Repo.ListMatches(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.Repo.CountMatches(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, count, nil
}
