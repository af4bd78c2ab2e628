package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"betledger/internal/models"
)

// Calculator computes potential winnings from a stake and locked odds.
// It is pure: no state beyond the configured odds band.
type Calculator struct {
	MinOdds decimal.Decimal
	MaxOdds decimal.Decimal
}

// PotentialWin returns amount * odds. The result is fixed at placement time
// and stored on the bet; it is never recomputed afterwards.
func (c Calculator) PotentialWin(amount, odds decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive, got %s", models.ErrInvalidWagerParameters, amount)
	}
	if odds.LessThan(c.MinOdds) || odds.GreaterThan(c.MaxOdds) {
		return decimal.Zero, fmt.Errorf("%w: odds %s outside [%s, %s]", models.ErrInvalidWagerParameters, odds, c.MinOdds, c.MaxOdds)
	}
	return amount.Mul(odds), nil
}
