package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"betledger/internal/models"
	"betledger/internal/payout"
)

func matchFixture(repo *stubRepo, chain *stubLedger) *MatchService {
	return &MatchService{
		Repo:   repo,
		Ledger: chain,
		Calc: payout.Calculator{
			MinOdds: decimal.RequireFromString("1.01"),
			MaxOdds: decimal.RequireFromString("100"),
		},
	}
}

func TestCreateMatchMirrorsLedgerID(t *testing.T) {
	repo := newStubRepo()
	chain := newStubLedger()
	svc := matchFixture(repo, chain)

	m, err := svc.Create(context.Background(), CreateMatchParams{
		HomeTeam:  "Riverton FC",
		AwayTeam:  "Harbor United",
		StartTime: time.Now().Add(24 * time.Hour).UTC(),
		OddsHome:  decimal.RequireFromString("1.80"),
		OddsDraw:  decimal.RequireFromString("3.20"),
		OddsAway:  decimal.RequireFromString("4.50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID != 1 {
		t.Fatalf("match id = %d, want ledger-assigned 1", m.ID)
	}
	if m.Status != models.MatchUpcoming {
		t.Fatalf("status = %s, want upcoming", m.Status)
	}
	if !m.TotalStaked.IsZero() {
		t.Fatalf("total staked = %s, want 0", m.TotalStaked)
	}
	if _, err := repo.GetMatch(context.Background(), 1); err != nil {
		t.Fatalf("mirror row missing: %v", err)
	}
}

func TestCreateMatchRejectsBadParams(t *testing.T) {
	svc := matchFixture(newStubRepo(), newStubLedger())

	_, err := svc.Create(context.Background(), CreateMatchParams{
		HomeTeam: "Riverton FC",
		OddsHome: decimal.RequireFromString("1.80"),
		OddsDraw: decimal.RequireFromString("3.20"),
		OddsAway: decimal.RequireFromString("4.50"),
	})
	if !errors.Is(err, models.ErrInvalidWagerParameters) {
		t.Fatalf("missing team err = %v, want ErrInvalidWagerParameters", err)
	}

	_, err = svc.Create(context.Background(), CreateMatchParams{
		HomeTeam: "Riverton FC",
		AwayTeam: "Harbor United",
		OddsHome: decimal.RequireFromString("0.90"),
		OddsDraw: decimal.RequireFromString("3.20"),
		OddsAway: decimal.RequireFromString("4.50"),
	})
	if !errors.Is(err, models.ErrInvalidWagerParameters) {
		t.Fatalf("sub-1 odds err = %v, want ErrInvalidWagerParameters", err)
	}
}

func TestUpdateMatchOddsFrozenOnceStaked(t *testing.T) {
	repo := newStubRepo()
	svc := matchFixture(repo, newStubLedger())

	m := finishedMatch(1)
	m.Status = models.MatchUpcoming
	m.TotalStaked = decimal.RequireFromString("100")
	repo.putMatch(m)

	newOdds := decimal.RequireFromString("2.00")
	_, err := svc.Update(context.Background(), 1, UpdateMatchParams{OddsHome: &newOdds})
	if !errors.Is(err, models.ErrMatchLocked) {
		t.Fatalf("odds update err = %v, want ErrMatchLocked", err)
	}

	// Metadata stays editable after stakes arrive.
	venue := "Riverton Arena"
	updated, err := svc.Update(context.Background(), 1, UpdateMatchParams{Venue: &venue})
	if err != nil {
		t.Fatalf("venue update: %v", err)
	}
	if updated.Venue == nil || *updated.Venue != venue {
		t.Fatalf("venue = %#v, want %q", updated.Venue, venue)
	}
	if !repo.matchByID(1).OddsHome.Equal(decimal.RequireFromString("1.80")) {
		t.Fatalf("odds changed despite lock")
	}
}

func TestUpdateMatchRejectedAfterFinish(t *testing.T) {
	repo := newStubRepo()
	svc := matchFixture(repo, newStubLedger())
	repo.putMatch(finishedMatch(1))

	venue := "Riverton Arena"
	_, err := svc.Update(context.Background(), 1, UpdateMatchParams{Venue: &venue})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestCancelRefundsPendingBets(t *testing.T) {
	repo := newStubRepo()
	svc := matchFixture(repo, newStubLedger())

	m := finishedMatch(1)
	m.Status = models.MatchUpcoming
	repo.putMatch(m)
	repo.putBet(pendingBet(1, 1, "alice", models.OutcomeHome, "100"))
	repo.putBet(pendingBet(2, 1, "bob", models.OutcomeAway, "50"))
	resolved := pendingBet(3, 1, "carol", models.OutcomeDraw, "25")
	resolved.Status = models.BetLost
	repo.putBet(resolved)

	if err := svc.Cancel(context.Background(), 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := repo.matchByID(1).Status; got != models.MatchCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}
	if got := repo.betByID(1).Status; got != models.BetRefunded {
		t.Fatalf("bet 1 status = %s, want refunded", got)
	}
	if got := repo.betByID(2).Status; got != models.BetRefunded {
		t.Fatalf("bet 2 status = %s, want refunded", got)
	}
	if got := repo.betByID(3).Status; got != models.BetLost {
		t.Fatalf("bet 3 status = %s, want lost (untouched)", got)
	}
}

func TestCancelFinishedMatchRejected(t *testing.T) {
	repo := newStubRepo()
	svc := matchFixture(repo, newStubLedger())
	repo.putMatch(finishedMatch(1))

	err := svc.Cancel(context.Background(), 1)
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
}
