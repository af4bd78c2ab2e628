package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"betledger/internal/models"
	"betledger/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- matches ----------------------------------------------------------------

func (s *Store) CreateMatch(ctx context.Context, m *models.Match) error {
	if s == nil || s.db == nil || m == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(m).Error
}

func (s *Store) GetMatch(ctx context.Context, id uint64) (*models.Match, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrMatchNotFound
	}
	var m models.Match
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func applyMatchFilters(query *gorm.DB, params repository.ListMatchesParams) *gorm.DB {
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.GroupLabel != nil && strings.TrimSpace(*params.GroupLabel) != "" {
		query = query.Where("group_label = ?", strings.TrimSpace(*params.GroupLabel))
	}
	if params.Participant != nil && strings.TrimSpace(*params.Participant) != "" {
		needle := "%" + strings.TrimSpace(*params.Participant) + "%"
		query = query.Where("home_team ILIKE ? OR away_team ILIKE ?", needle, needle)
	}
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("start_time >= ?", *params.From)
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("start_time <= ?", *params.To)
	}
	if params.HasResult != nil {
		if *params.HasResult {
			query = query.Where("result IS NOT NULL")
		} else {
			query = query.Where("result IS NULL")
		}
	}
	return query
}

func (s *Store) ListMatches(ctx context.Context, params repository.ListMatchesParams) ([]models.Match, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyMatchFilters(s.db.WithContext(ctx).Model(&models.Match{}), params)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Match
	if err := query.Order("start_time asc, id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMatches(ctx context.Context, params repository.ListMatchesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := applyMatchFilters(s.db.WithContext(ctx).Model(&models.Match{}), params)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) UpdateMatchDetails(ctx context.Context, m *models.Match, guardUnstaked bool) error {
	if s == nil || s.db == nil || m == nil {
		return nil
	}
	query := s.db.WithContext(ctx).Model(&models.Match{}).Where("id = ?", m.ID)
	if guardUnstaked {
		query = query.Where("total_staked = 0")
	}
	res := query.Updates(map[string]interface{}{
		"home_team":    m.HomeTeam,
		"away_team":    m.AwayTeam,
		"start_time":   m.StartTime,
		"venue":        m.Venue,
		"group_label":  m.GroupLabel,
		"odds_home":    m.OddsHome,
		"odds_draw":    m.OddsDraw,
		"odds_away":    m.OddsAway,
		"external_ref": m.ExternalRef,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := s.GetMatch(ctx, m.ID)
		if err != nil {
			return err
		}
		if guardUnstaked && current.Locked() {
			return models.ErrMatchLocked
		}
	}
	return nil
}

func (s *Store) UpdateMatchStatus(ctx context.Context, id uint64, from, to models.MatchStatus) error {
	if s == nil || s.db == nil {
		return nil
	}
	if !models.ValidMatchTransition(from, to) {
		return models.ErrInvalidStateTransition
	}
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetMatch(ctx, id); err != nil {
			return err
		}
		return models.ErrInvalidStateTransition
	}
	return nil
}

func (s *Store) IncrementStake(ctx context.Context, id uint64, amount decimal.Decimal) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ?", id).
		Update("total_staked", gorm.Expr("total_staked + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrMatchNotFound
	}
	return nil
}

func (s *Store) SetMatchResult(ctx context.Context, id uint64, outcome models.Outcome, source, proof string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ? AND result IS NULL", id, models.MatchFinished).
		Updates(map[string]interface{}{
			"result":        outcome,
			"result_source": source,
			"result_proof":  proof,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := s.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		if current.Result != nil {
			return models.ErrResultAlreadySet
		}
		return models.ErrMatchNotFinished
	}
	return nil
}

func (s *Store) SetMatchScore(ctx context.Context, id uint64, home, away int) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"home_score": home,
			"away_score": away,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrMatchNotFound
	}
	return nil
}

func (s *Store) SaveMatch(ctx context.Context, m *models.Match) error {
	if s == nil || s.db == nil || m == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(m).Error
}

// --- bets -------------------------------------------------------------------

func (s *Store) CreateBet(ctx context.Context, b *models.Bet) error {
	if s == nil || s.db == nil || b == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(b).Error
}

func (s *Store) GetBet(ctx context.Context, id uint64) (*models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrBetNotFound
	}
	var b models.Bet
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBetNotFound
		}
		return nil, err
	}
	return &b, nil
}

func applyBetFilters(query *gorm.DB, params repository.ListBetsParams) *gorm.DB {
	if params.Owner != nil && strings.TrimSpace(*params.Owner) != "" {
		query = query.Where("owner = ?", strings.TrimSpace(*params.Owner))
	}
	if params.MatchID != nil {
		query = query.Where("match_id = ?", *params.MatchID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Claimed != nil {
		query = query.Where("claimed = ?", *params.Claimed)
	}
	return query
}

func (s *Store) ListBets(ctx context.Context, params repository.ListBetsParams) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyBetFilters(s.db.WithContext(ctx).Model(&models.Bet{}), params)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Bet
	if err := query.Order("placed_at desc, id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountBets(ctx context.Context, params repository.ListBetsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := applyBetFilters(s.db.WithContext(ctx).Model(&models.Bet{}), params)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListPendingBets(ctx context.Context, matchID uint64) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bet
	if err := s.db.WithContext(ctx).
		Where("match_id = ? AND status = ?", matchID, models.BetPending).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) TransitionBet(ctx context.Context, id uint64, from, to models.BetStatus, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	if !models.ValidBetTransition(from, to) {
		return models.ErrInvalidStateTransition
	}
	res := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":        to,
			"result_set_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetBet(ctx, id); err != nil {
			return err
		}
		return models.ErrInvalidStateTransition
	}
	return nil
}

func (s *Store) MarkClaimed(ctx context.Context, id uint64, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND status = ? AND claimed = ?", id, models.BetWon, false).
		Updates(map[string]interface{}{
			"claimed":    true,
			"claimed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := s.GetBet(ctx, id)
		if err != nil {
			return err
		}
		if current.Claimed {
			return models.ErrAlreadyClaimed
		}
		return models.ErrBetNotWon
	}
	return nil
}

func (s *Store) SaveBet(ctx context.Context, b *models.Bet) error {
	if s == nil || s.db == nil || b == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(b).Error
}

func (s *Store) SumStakes(ctx context.Context, matchID uint64) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var total decimal.Decimal
	row := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("match_id = ?", matchID).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// --- user stats -------------------------------------------------------------

func (s *Store) AddWinnings(ctx context.Context, owner string, delta decimal.Decimal) error {
	if s == nil || s.db == nil || strings.TrimSpace(owner) == "" {
		return nil
	}
	now := time.Now().UTC()
	item := &models.UserStats{
		Owner:         strings.TrimSpace(owner),
		TotalWinnings: delta,
		WonBets:       1,
		UpdatedAt:     now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_winnings": gorm.Expr("user_stats.total_winnings + ?", delta),
			"won_bets":       gorm.Expr("user_stats.won_bets + 1"),
			"updated_at":     now,
		}),
	}).Create(item).Error
}

func (s *Store) GetUserStats(ctx context.Context, owner string) (*models.UserStats, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var stats models.UserStats
	if err := s.db.WithContext(ctx).First(&stats, "owner = ?", strings.TrimSpace(owner)).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- sync state -------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	if err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		UpdateAll: true,
	}).Create(state).Error
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, def int) int {
	if limit <= 0 || limit > 1000 {
		return def
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
