package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"betledger/internal/ledger"
	"betledger/internal/models"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps domain errors onto HTTP statuses and writes the envelope.
// Transient failures carry a retryable hint so clients know a repeat of the
// same request may succeed.
func Fail(c *gin.Context, err error) {
	var meta map[string]any
	if retryable(err) {
		meta = map[string]any{"retryable": true}
	}
	Error(c, statusFor(err), err.Error(), meta)
}

func retryable(err error) bool {
	return models.Retryable(err) || errors.Is(err, ledger.ErrUnavailable)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMatchNotFound),
		errors.Is(err, models.ErrBetNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidWagerParameters),
		errors.Is(err, models.ErrWagerOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotBetOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrMatchExists),
		errors.Is(err, models.ErrMatchLocked),
		errors.Is(err, models.ErrMatchNotBettable),
		errors.Is(err, models.ErrMatchNotFinished),
		errors.Is(err, models.ErrMatchCancelled),
		errors.Is(err, models.ErrResultAlreadySet),
		errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrBetNotWon),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrUnavailable),
		errors.Is(err, ledger.ErrReverted),
		errors.Is(err, models.ErrPayoutFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
