package models

import "errors"

// Validation failures: rejected before any store is touched.
var (
	ErrInvalidWagerParameters = errors.New("invalid wager parameters")
	ErrWagerOutOfBounds       = errors.New("wager amount out of bounds")
)

// State conflicts: a guarded transition precondition failed, nothing mutated.
var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchExists            = errors.New("match already exists")
	ErrMatchLocked            = errors.New("match locked: stakes reference its odds")
	ErrMatchNotBettable       = errors.New("match not open for betting")
	ErrMatchNotFinished       = errors.New("match not finished")
	ErrMatchCancelled         = errors.New("match cancelled")
	ErrResultAlreadySet       = errors.New("match result already set")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBetNotFound            = errors.New("bet not found")
	ErrNotBetOwner            = errors.New("caller is not the bet owner")
	ErrBetNotWon              = errors.New("bet is not won")
	ErrAlreadyClaimed         = errors.New("bet already claimed")
)

// External-ledger failures: operation aborted with no local mutation, safe to retry.
var (
	ErrPayoutFailed = errors.New("ledger payout failed")
)

// ErrSyncInProgress is returned when a reconciliation run is requested while a
// previous run has not finished. The caller gets a no-op, not a queue.
var ErrSyncInProgress = errors.New("sync already in progress")

// Retryable reports whether the caller should present the error as transient.
// State conflicts and validation failures are final; everything wrapping a
// ledger failure may succeed on retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrPayoutFailed)
}
