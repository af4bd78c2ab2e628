package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"betledger/internal/models"
	"betledger/internal/repository"
	"betledger/internal/service"
)

type BetHandler struct {
	Bets  *service.BetService
	Claim *service.ClaimService
}

func (h *BetHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/bets")
	group.POST("", h.place)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.POST("/:id/claim", h.claim)
}

type placeBetRequest struct {
	Owner   string `json:"owner"`
	MatchID uint64 `json:"match_id"`
	Outcome *int16 `json:"outcome"` // 0 home, 1 draw, 2 away
	Amount  string `json:"amount"`
}

// @Summary Place bet
// @Tags bets
// @Param body body placeBetRequest true "wager"
// @Success 200 {object} apiResponse
// @Router /api/v1/bets [post]
func (h *BetHandler) place(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Outcome == nil {
		Error(c, http.StatusBadRequest, "outcome(0|1|2) required", nil)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		Error(c, http.StatusBadRequest, "amount must be a decimal string", nil)
		return
	}

	b, err := h.Bets.Place(c.Request.Context(), service.PlaceBetParams{
		Owner:   strings.TrimSpace(req.Owner),
		MatchID: req.MatchID,
		Outcome: models.Outcome(*req.Outcome),
		Amount:  amount,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, b, nil)
}

// @Summary List bets
// @Tags bets
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param owner query string false "owner"
// @Param match_id query int false "match id"
// @Param status query string false "pending|won|lost|refunded|cancelled"
// @Param claimed query bool false "claimed flag"
// @Success 200 {object} apiResponse
// @Router /api/v1/bets [get]
func (h *BetHandler) list(c *gin.Context) {
	params := repository.ListBetsParams{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("owner")); v != "" {
		params.Owner = &v
	}
	if v := strings.TrimSpace(c.Query("match_id")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			params.MatchID = &id
		}
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status := models.BetStatus(v)
		params.Status = &status
	}
	if v := strings.TrimSpace(c.Query("claimed")); v != "" {
		claimed := v == "true" || v == "1"
		params.Claimed = &claimed
	}

	bets, total, err := h.Bets.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bets, map[string]any{
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

// @Summary Get bet
// @Tags bets
// @Param id path int true "bet id"
// @Success 200 {object} apiResponse
// @Router /api/v1/bets/{id} [get]
func (h *BetHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.Bets.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, b, nil)
}

type claimRequest struct {
	Owner string `json:"owner"`
}

// @Summary Claim winnings
// @Tags bets
// @Param id path int true "bet id"
// @Param body body claimRequest true "claiming owner"
// @Success 200 {object} apiResponse
// @Router /api/v1/bets/{id}/claim [post]
func (h *BetHandler) claim(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Owner) == "" {
		Error(c, http.StatusBadRequest, "owner required", nil)
		return
	}
	b, err := h.Claim.Claim(c.Request.Context(), id, strings.TrimSpace(req.Owner))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, b, nil)
}
