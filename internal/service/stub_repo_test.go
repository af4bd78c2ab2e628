package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"betledger/internal/ledger"
	"betledger/internal/models"
	"betledger/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Guarded updates behave like the SQL store: the precondition is checked and
// a failed guard returns the same sentinel error. A mutex makes it safe for
// the concurrency tests.
type stubRepo struct {
	mu        sync.Mutex
	matches   map[uint64]*models.Match
	bets      map[uint64]*models.Bet
	stats     map[string]*models.UserStats
	syncState map[string]*models.SyncState

	failTransition map[uint64]error // bet id -> forced TransitionBet error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		matches:   map[uint64]*models.Match{},
		bets:      map[uint64]*models.Bet{},
		stats:     map[string]*models.UserStats{},
		syncState: map[string]*models.SyncState{},
	}
}

func (s *stubRepo) putMatch(m models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.matches[m.ID] = &cp
}

func (s *stubRepo) putBet(b models.Bet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := b
	s.bets[b.ID] = &cp
}

func (s *stubRepo) matchByID(id uint64) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.matches[id]
}

func (s *stubRepo) betByID(id uint64) models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bets[id]
}

func (s *stubRepo) CreateMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; ok {
		return nil
	}
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *stubRepo) GetMatch(ctx context.Context, id uint64) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", id, models.ErrMatchNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *stubRepo) filterMatches(params repository.ListMatchesParams) []models.Match {
	var out []models.Match
	for _, m := range s.matches {
		if params.Status != nil && m.Status != *params.Status {
			continue
		}
		if params.GroupLabel != nil && (m.GroupLabel == nil || *m.GroupLabel != *params.GroupLabel) {
			continue
		}
		if params.Participant != nil &&
			!strings.Contains(m.HomeTeam, *params.Participant) &&
			!strings.Contains(m.AwayTeam, *params.Participant) {
			continue
		}
		if params.From != nil && m.StartTime.Before(*params.From) {
			continue
		}
		if params.To != nil && m.StartTime.After(*params.To) {
			continue
		}
		if params.HasResult != nil && (m.Result != nil) != *params.HasResult {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *stubRepo) ListMatches(ctx context.Context, params repository.ListMatchesParams) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filterMatches(params)
	// Same page clamp as the SQL store: zero or oversized limits collapse to
	// the default page, they never mean "all rows".
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) CountMatches(ctx context.Context, params repository.ListMatchesParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterMatches(params))), nil
}

func (s *stubRepo) UpdateMatchDetails(ctx context.Context, m *models.Match, guardUnstaked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.matches[m.ID]
	if !ok {
		return models.ErrMatchNotFound
	}
	if guardUnstaked && current.TotalStaked.IsPositive() {
		return models.ErrMatchLocked
	}
	current.HomeTeam = m.HomeTeam
	current.AwayTeam = m.AwayTeam
	current.StartTime = m.StartTime
	current.Venue = m.Venue
	current.GroupLabel = m.GroupLabel
	current.OddsHome = m.OddsHome
	current.OddsDraw = m.OddsDraw
	current.OddsAway = m.OddsAway
	current.ExternalRef = m.ExternalRef
	return nil
}

func (s *stubRepo) UpdateMatchStatus(ctx context.Context, id uint64, from, to models.MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !models.ValidMatchTransition(from, to) {
		return models.ErrInvalidStateTransition
	}
	m, ok := s.matches[id]
	if !ok {
		return models.ErrMatchNotFound
	}
	if m.Status != from {
		return models.ErrInvalidStateTransition
	}
	m.Status = to
	return nil
}

func (s *stubRepo) IncrementStake(ctx context.Context, id uint64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return models.ErrMatchNotFound
	}
	m.TotalStaked = m.TotalStaked.Add(amount)
	return nil
}

func (s *stubRepo) SetMatchResult(ctx context.Context, id uint64, outcome models.Outcome, source, proof string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return models.ErrMatchNotFound
	}
	if m.Result != nil {
		return models.ErrResultAlreadySet
	}
	if m.Status != models.MatchFinished {
		return models.ErrMatchNotFinished
	}
	o := outcome
	m.Result = &o
	m.ResultSource = &source
	m.ResultProof = &proof
	return nil
}

func (s *stubRepo) SetMatchScore(ctx context.Context, id uint64, home, away int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return models.ErrMatchNotFound
	}
	m.HomeScore = &home
	m.AwayScore = &away
	return nil
}

func (s *stubRepo) SaveMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *stubRepo) CreateBet(ctx context.Context, b *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bets[b.ID]; ok {
		return nil
	}
	cp := *b
	s.bets[b.ID] = &cp
	return nil
}

func (s *stubRepo) GetBet(ctx context.Context, id uint64) (*models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	if !ok {
		return nil, fmt.Errorf("bet %d: %w", id, models.ErrBetNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *stubRepo) ListBets(ctx context.Context, params repository.ListBetsParams) ([]models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bet
	for _, b := range s.bets {
		if params.Owner != nil && b.Owner != *params.Owner {
			continue
		}
		if params.MatchID != nil && b.MatchID != *params.MatchID {
			continue
		}
		if params.Status != nil && b.Status != *params.Status {
			continue
		}
		if params.Claimed != nil && b.Claimed != *params.Claimed {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubRepo) CountBets(ctx context.Context, params repository.ListBetsParams) (int64, error) {
	items, err := s.ListBets(ctx, params)
	return int64(len(items)), err
}

func (s *stubRepo) ListPendingBets(ctx context.Context, matchID uint64) ([]models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bet
	for _, b := range s.bets {
		if b.MatchID == matchID && b.Status == models.BetPending {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) TransitionBet(ctx context.Context, id uint64, from, to models.BetStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failTransition[id]; ok {
		return err
	}
	if !models.ValidBetTransition(from, to) {
		return models.ErrInvalidStateTransition
	}
	b, ok := s.bets[id]
	if !ok {
		return models.ErrBetNotFound
	}
	if b.Status != from {
		return models.ErrInvalidStateTransition
	}
	b.Status = to
	b.ResultSetAt = &at
	return nil
}

func (s *stubRepo) MarkClaimed(ctx context.Context, id uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	if !ok {
		return models.ErrBetNotFound
	}
	if b.Claimed {
		return models.ErrAlreadyClaimed
	}
	if b.Status != models.BetWon {
		return models.ErrBetNotWon
	}
	b.Claimed = true
	b.ClaimedAt = &at
	return nil
}

func (s *stubRepo) SaveBet(ctx context.Context, b *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bets[b.ID] = &cp
	return nil
}

func (s *stubRepo) SumStakes(ctx context.Context, matchID uint64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, b := range s.bets {
		if b.MatchID == matchID {
			total = total.Add(b.Amount)
		}
	}
	return total, nil
}

func (s *stubRepo) AddWinnings(ctx context.Context, owner string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[owner]
	if !ok {
		st = &models.UserStats{Owner: owner, TotalWinnings: decimal.Zero}
		s.stats[owner] = st
	}
	st.TotalWinnings = st.TotalWinnings.Add(delta)
	st.WonBets++
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *stubRepo) GetUserStats(ctx context.Context, owner string) (*models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[owner]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.syncState[scope]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.syncState[state.Scope] = &cp
	return nil
}

var _ repository.Repository = (*stubRepo)(nil)

// stubLedger is a test-only in-memory ledger.Client. Counters are assigned
// sequentially and payouts are exactly-once, mirroring the contract.
type stubLedger struct {
	mu      sync.Mutex
	matches map[uint64]*ledger.MatchRecord
	bets    map[uint64]*ledger.BetRecord

	failConfirm error
	failPayout  error
	failSubmit  error

	confirmCalls int
	payoutCalls  int
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		matches: map[uint64]*ledger.MatchRecord{},
		bets:    map[uint64]*ledger.BetRecord{},
	}
}

func (l *stubLedger) putMatchRecord(rec ledger.MatchRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := rec
	l.matches[rec.ID] = &cp
}

func (l *stubLedger) putBetRecord(rec ledger.BetRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := rec
	l.bets[rec.ID] = &cp
}

func (l *stubLedger) CreateMatch(ctx context.Context, params ledger.CreateMatchParams) (uint64, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uint64(len(l.matches) + 1)
	l.matches[id] = &ledger.MatchRecord{
		ID:          id,
		HomeTeam:    params.HomeTeam,
		AwayTeam:    params.AwayTeam,
		StartTime:   params.StartTime,
		OddsHome:    params.OddsHome,
		OddsDraw:    params.OddsDraw,
		OddsAway:    params.OddsAway,
		Status:      models.MatchUpcoming,
		TotalStaked: decimal.Zero,
	}
	return id, "0xmatch", nil
}

func (l *stubLedger) SubmitWager(ctx context.Context, matchID uint64, outcome models.Outcome, owner string, amount decimal.Decimal) (uint64, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failSubmit != nil {
		return 0, "", l.failSubmit
	}
	id := uint64(len(l.bets) + 1)
	l.bets[id] = &ledger.BetRecord{
		ID:       id,
		Owner:    owner,
		MatchID:  matchID,
		Outcome:  outcome,
		Amount:   amount,
		Status:   models.BetPending,
		PlacedAt: time.Now().UTC(),
	}
	return id, "0xbet", nil
}

func (l *stubLedger) ConfirmResult(ctx context.Context, matchID uint64, outcome models.Outcome) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmCalls++
	if l.failConfirm != nil {
		return "", l.failConfirm
	}
	if rec, ok := l.matches[matchID]; ok {
		o := outcome
		rec.Result = &o
		rec.Status = models.MatchFinished
	}
	return "0xconfirm", nil
}

func (l *stubLedger) Payout(ctx context.Context, betID uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payoutCalls++
	if l.failPayout != nil {
		return "", l.failPayout
	}
	rec, ok := l.bets[betID]
	if !ok {
		return "", ledger.ErrRecordNotFound
	}
	if rec.Claimed {
		return "", ledger.ErrReverted
	}
	rec.Claimed = true
	return "0xpayout", nil
}

func (l *stubLedger) MatchRecord(ctx context.Context, id uint64) (*ledger.MatchRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.matches[id]
	if !ok || rec == nil {
		return nil, ledger.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (l *stubLedger) BetRecord(ctx context.Context, id uint64) (*ledger.BetRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.bets[id]
	if !ok || rec == nil {
		return nil, ledger.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (l *stubLedger) MatchCount(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.matches)), nil
}

func (l *stubLedger) BetCount(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.bets)), nil
}

var _ ledger.Client = (*stubLedger)(nil)
