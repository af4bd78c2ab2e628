package payout

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"betledger/internal/models"
)

func mkCalc() Calculator {
	return Calculator{
		MinOdds: decimal.RequireFromString("1.01"),
		MaxOdds: decimal.RequireFromString("100"),
	}
}

func TestPotentialWin_Basic(t *testing.T) {
	c := mkCalc()
	win, err := c.PotentialWin(decimal.NewFromInt(100), decimal.RequireFromString("1.8"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !win.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("win=%s want 180", win)
	}
}

func TestPotentialWin_NoFloatDrift(t *testing.T) {
	c := mkCalc()
	// 0.1 * 3 is exact in decimal, not in binary floating point.
	win, err := c.PotentialWin(decimal.RequireFromString("0.1"), decimal.RequireFromString("3"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !win.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("win=%s want 0.3", win)
	}
}

func TestPotentialWin_RejectsNonPositiveAmount(t *testing.T) {
	c := mkCalc()
	for _, amount := range []string{"0", "-5"} {
		_, err := c.PotentialWin(decimal.RequireFromString(amount), decimal.RequireFromString("2"))
		if !errors.Is(err, models.ErrInvalidWagerParameters) {
			t.Fatalf("amount=%s err=%v want ErrInvalidWagerParameters", amount, err)
		}
	}
}

func TestPotentialWin_RejectsOddsOutsideBand(t *testing.T) {
	c := mkCalc()
	for _, odds := range []string{"1.0", "0.5", "100.01"} {
		_, err := c.PotentialWin(decimal.NewFromInt(10), decimal.RequireFromString(odds))
		if !errors.Is(err, models.ErrInvalidWagerParameters) {
			t.Fatalf("odds=%s err=%v want ErrInvalidWagerParameters", odds, err)
		}
	}
}

func TestPotentialWin_BandEdgesAllowed(t *testing.T) {
	c := mkCalc()
	for _, odds := range []string{"1.01", "100"} {
		if _, err := c.PotentialWin(decimal.NewFromInt(10), decimal.RequireFromString(odds)); err != nil {
			t.Fatalf("odds=%s err=%v", odds, err)
		}
	}
}
