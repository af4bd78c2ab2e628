package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"betledger/internal/ledger"
	"betledger/internal/models"
)

func finishedMatch(id uint64) models.Match {
	return models.Match{
		ID:        id,
		HomeTeam:  "Riverton FC",
		AwayTeam:  "Harbor United",
		StartTime: time.Now().Add(-3 * time.Hour).UTC(),
		OddsHome:  decimal.RequireFromString("1.80"),
		OddsDraw:  decimal.RequireFromString("3.20"),
		OddsAway:  decimal.RequireFromString("4.50"),
		Status:    models.MatchFinished,
	}
}

func pendingBet(id, matchID uint64, owner string, outcome models.Outcome, amount string) models.Bet {
	amt := decimal.RequireFromString(amount)
	odds := decimal.RequireFromString("1.80")
	return models.Bet{
		ID:           id,
		Owner:        owner,
		MatchID:      matchID,
		Outcome:      outcome,
		Amount:       amt,
		Odds:         odds,
		PotentialWin: amt.Mul(odds),
		Status:       models.BetPending,
		PlacedAt:     time.Now().UTC(),
	}
}

func TestSettleResolvesAllPendingBets(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	repo.putMatch(finishedMatch(1))
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeHome, "100"))
	repo.putBet(pendingBet(2, 1, "bob", models.OutcomeAway, "50"))
	repo.putBet(pendingBet(3, 1, "carol", models.OutcomeHome, "25"))

	svc := &SettlementService{Repo: repo, Ledger: chain, Stats: repo}
	if err := svc.Settle(context.Background(), 1, models.OutcomeHome, SettleSourceOracle); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if got := repo.betByID(1).Status; got != models.BetWon {
		t.Fatalf("bet 1 status = %s, want won", got)
	}
	if got := repo.betByID(2).Status; got != models.BetLost {
		t.Fatalf("bet 2 status = %s, want lost", got)
	}
	if got := repo.betByID(3).Status; got != models.BetWon {
		t.Fatalf("bet 3 status = %s, want won", got)
	}
	m := repo.matchByID(1)
	if m.Result == nil || *m.Result != models.OutcomeHome {
		t.Fatalf("match result not recorded: %#v", m.Result)
	}
	if m.ResultSource == nil || *m.ResultSource != SettleSourceOracle {
		t.Fatalf("result source = %#v", m.ResultSource)
	}

	stats, err := repo.GetUserStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := decimal.RequireFromString("180")
	if !stats.TotalWinnings.Equal(want) {
		t.Fatalf("alice winnings = %s, want %s", stats.TotalWinnings, want)
	}
	if stats.WonBets != 1 {
		t.Fatalf("alice won bets = %d, want 1", stats.WonBets)
	}
}

func TestSettleConflictingOutcomeRejected(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	m := finishedMatch(1)
	home := models.OutcomeHome
	m.Result = &home
	repo.putMatch(m)
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeAway, "10"))

	svc := &SettlementService{Repo: repo, Ledger: chain}
	err := svc.Settle(context.Background(), 1, models.OutcomeAway, SettleSourceManual)
	if !errors.Is(err, models.ErrResultAlreadySet) {
		t.Fatalf("err = %v, want ErrResultAlreadySet", err)
	}
	if got := repo.betByID(1).Status; got != models.BetPending {
		t.Fatalf("bet status = %s, want pending (untouched)", got)
	}
}

func TestSettleSameOutcomeResumesPendingBets(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	m := finishedMatch(1)
	home := models.OutcomeHome
	m.Result = &home
	repo.putMatch(m)
	// Bet 1 was already resolved by a previous partial run; bet 2 was not.
	won := pendingBet(1, 1, "alice", models.OutcomeHome, "100")
	won.Status = models.BetWon
	repo.putBet(won)
	repo.putBet(pendingBet(2, 1, "bob", models.OutcomeAway, "50"))

	svc := &SettlementService{Repo: repo, Ledger: chain}
	if err := svc.Settle(context.Background(), 1, models.OutcomeHome, SettleSourceOracle); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := repo.betByID(1).Status; got != models.BetWon {
		t.Fatalf("bet 1 status = %s, want won (untouched)", got)
	}
	if got := repo.betByID(2).Status; got != models.BetLost {
		t.Fatalf("bet 2 status = %s, want lost", got)
	}
	if chain.confirmCalls != 0 {
		t.Fatalf("confirm calls = %d, want 0 on resume", chain.confirmCalls)
	}
}

func TestSettleLedgerFailureLeavesBetsPending(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	chain.failConfirm = ledger.ErrUnavailable
	repo.putMatch(finishedMatch(1))
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeHome, "100"))

	svc := &SettlementService{Repo: repo, Ledger: chain}
	err := svc.Settle(context.Background(), 1, models.OutcomeHome, SettleSourceOracle)
	if !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("err = %v, want wrapped ErrUnavailable", err)
	}
	if got := repo.betByID(1).Status; got != models.BetPending {
		t.Fatalf("bet status = %s, want pending", got)
	}
	if repo.matchByID(1).Result != nil {
		t.Fatalf("match result must stay unset when ledger confirm fails")
	}
}

func TestSettleNotFinishedRequiresManualSource(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	m := finishedMatch(1)
	m.Status = models.MatchLive
	repo.putMatch(m)
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeDraw, "10"))

	svc := &SettlementService{Repo: repo, Ledger: chain}
	err := svc.Settle(context.Background(), 1, models.OutcomeDraw, SettleSourceOracle)
	if !errors.Is(err, models.ErrMatchNotFinished) {
		t.Fatalf("oracle err = %v, want ErrMatchNotFinished", err)
	}

	if err := svc.Settle(context.Background(), 1, models.OutcomeDraw, SettleSourceManual); err != nil {
		t.Fatalf("manual settle: %v", err)
	}
	got := repo.matchByID(1)
	if got.Status != models.MatchFinished {
		t.Fatalf("match status = %s, want finished", got.Status)
	}
	if bet := repo.betByID(1); bet.Status != models.BetWon {
		t.Fatalf("bet status = %s, want won", bet.Status)
	}
}

func TestSettleCancelledMatchRejected(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	m := finishedMatch(1)
	m.Status = models.MatchCancelled
	repo.putMatch(m)

	svc := &SettlementService{Repo: repo, Ledger: chain}
	err := svc.Settle(context.Background(), 1, models.OutcomeHome, SettleSourceManual)
	if !errors.Is(err, models.ErrMatchCancelled) {
		t.Fatalf("err = %v, want ErrMatchCancelled", err)
	}
}

func TestSettleInvalidOutcomeRejected(t *testing.T) {
	repo := newStubRepo()
	svc := &SettlementService{Repo: repo, Ledger: newStubLedger()}
	err := svc.Settle(context.Background(), 1, models.Outcome(7), SettleSourceManual)
	if !errors.Is(err, models.ErrInvalidWagerParameters) {
		t.Fatalf("err = %v, want ErrInvalidWagerParameters", err)
	}
}

func TestSettleSkipsFailingBetAndContinues(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	repo.putMatch(finishedMatch(1))
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeHome, "100"))
	repo.putBet(pendingBet(2, 1, "bob", models.OutcomeHome, "50"))
	repo.failTransition = map[uint64]error{1: errors.New("row lock timeout")}

	svc := &SettlementService{Repo: repo, Ledger: chain}
	if err := svc.Settle(context.Background(), 1, models.OutcomeHome, SettleSourceOracle); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := repo.betByID(1).Status; got != models.BetPending {
		t.Fatalf("bet 1 status = %s, want pending (failed)", got)
	}
	if got := repo.betByID(2).Status; got != models.BetWon {
		t.Fatalf("bet 2 status = %s, want won despite bet 1 failure", got)
	}
}
