package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"betledger/internal/models"
	"betledger/internal/repository"
	"betledger/internal/service"
)

// AdminHandler exposes the operational endpoints: triggering a reconciliation
// pass, inspecting its state, and reading per-user winnings.
type AdminHandler struct {
	Reconcile *service.ReconcileService
	Repo      repository.Repository
}

func (h *AdminHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/admin")
	group.POST("/reconcile", h.runReconcile)
	group.GET("/reconcile", h.reconcileStatus)
	group.GET("/stats/:owner", h.userStats)
}

// @Summary Run ledger reconciliation
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/reconcile [post]
func (h *AdminHandler) runReconcile(c *gin.Context) {
	reports, err := h.Reconcile.RunOnce(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, reports, nil)
}

// @Summary Reconciliation state
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/reconcile [get]
func (h *AdminHandler) reconcileStatus(c *gin.Context) {
	states, err := h.Reconcile.Status(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, states, nil)
}

// @Summary Per-user winnings
// @Tags admin
// @Param owner path string true "owner"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/stats/{owner} [get]
func (h *AdminHandler) userStats(c *gin.Context) {
	owner := strings.TrimSpace(c.Param("owner"))
	if owner == "" {
		Error(c, http.StatusBadRequest, "owner required", nil)
		return
	}
	stats, err := h.Repo.GetUserStats(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Ok(c, &models.UserStats{Owner: owner, TotalWinnings: decimal.Zero}, nil)
			return
		}
		Fail(c, err)
		return
	}
	Ok(c, stats, nil)
}
