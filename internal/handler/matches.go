package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"betledger/internal/models"
	"betledger/internal/repository"
	"betledger/internal/service"
)

type MatchHandler struct {
	Matches    *service.MatchService
	Settlement *service.SettlementService
}

func (h *MatchHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/matches")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.POST("/:id/cancel", h.cancel)
	group.POST("/:id/settle", h.settle)
}

type createMatchRequest struct {
	HomeTeam    string  `json:"home_team"`
	AwayTeam    string  `json:"away_team"`
	StartTime   string  `json:"start_time"` // RFC3339
	Venue       *string `json:"venue"`
	GroupLabel  *string `json:"group_label"`
	OddsHome    string  `json:"odds_home"`
	OddsDraw    string  `json:"odds_draw"`
	OddsAway    string  `json:"odds_away"`
	ExternalRef *string `json:"external_ref"`
}

// @Summary Create match
// @Tags matches
// @Param body body createMatchRequest true "match details"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches [post]
func (h *MatchHandler) create(c *gin.Context) {
	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		Error(c, http.StatusBadRequest, "start_time must be RFC3339", nil)
		return
	}
	oddsHome, err1 := decimal.NewFromString(strings.TrimSpace(req.OddsHome))
	oddsDraw, err2 := decimal.NewFromString(strings.TrimSpace(req.OddsDraw))
	oddsAway, err3 := decimal.NewFromString(strings.TrimSpace(req.OddsAway))
	if err1 != nil || err2 != nil || err3 != nil {
		Error(c, http.StatusBadRequest, "odds must be decimal strings", nil)
		return
	}

	m, err := h.Matches.Create(c.Request.Context(), service.CreateMatchParams{
		HomeTeam:    strings.TrimSpace(req.HomeTeam),
		AwayTeam:    strings.TrimSpace(req.AwayTeam),
		StartTime:   startTime.UTC(),
		Venue:       req.Venue,
		GroupLabel:  req.GroupLabel,
		OddsHome:    oddsHome,
		OddsDraw:    oddsDraw,
		OddsAway:    oddsAway,
		ExternalRef: req.ExternalRef,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, m, nil)
}

// @Summary List matches
// @Tags matches
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param status query string false "upcoming|live|finished|cancelled"
// @Param group query string false "group label"
// @Param team query string false "participant name"
// @Param from query string false "start time lower bound (RFC3339)"
// @Param to query string false "start time upper bound (RFC3339)"
// @Param has_result query bool false "only matches with/without a result"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches [get]
func (h *MatchHandler) list(c *gin.Context) {
	params := repository.ListMatchesParams{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status := models.MatchStatus(v)
		params.Status = &status
	}
	if v := strings.TrimSpace(c.Query("group")); v != "" {
		params.GroupLabel = &v
	}
	if v := strings.TrimSpace(c.Query("team")); v != "" {
		params.Participant = &v
	}
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			from := ts.UTC()
			params.From = &from
		}
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			to := ts.UTC()
			params.To = &to
		}
	}
	if v := strings.TrimSpace(c.Query("has_result")); v != "" {
		hasResult := v == "true" || v == "1"
		params.HasResult = &hasResult
	}

	matches, total, err := h.Matches.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, matches, map[string]any{
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

// @Summary Get match
// @Tags matches
// @Param id path int true "match id"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches/{id} [get]
func (h *MatchHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Matches.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, m, nil)
}

type updateMatchRequest struct {
	HomeTeam    *string `json:"home_team"`
	AwayTeam    *string `json:"away_team"`
	StartTime   *string `json:"start_time"`
	Venue       *string `json:"venue"`
	GroupLabel  *string `json:"group_label"`
	OddsHome    *string `json:"odds_home"`
	OddsDraw    *string `json:"odds_draw"`
	OddsAway    *string `json:"odds_away"`
	ExternalRef *string `json:"external_ref"`
}

// @Summary Update match
// @Tags matches
// @Param id path int true "match id"
// @Param body body updateMatchRequest true "fields to change"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches/{id} [put]
func (h *MatchHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	params := service.UpdateMatchParams{
		HomeTeam:    req.HomeTeam,
		AwayTeam:    req.AwayTeam,
		Venue:       req.Venue,
		GroupLabel:  req.GroupLabel,
		ExternalRef: req.ExternalRef,
	}
	if req.StartTime != nil {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.StartTime))
		if err != nil {
			Error(c, http.StatusBadRequest, "start_time must be RFC3339", nil)
			return
		}
		utc := ts.UTC()
		params.StartTime = &utc
	}
	var parseErr bool
	params.OddsHome = parseDecimalPtr(req.OddsHome, &parseErr)
	params.OddsDraw = parseDecimalPtr(req.OddsDraw, &parseErr)
	params.OddsAway = parseDecimalPtr(req.OddsAway, &parseErr)
	if parseErr {
		Error(c, http.StatusBadRequest, "odds must be decimal strings", nil)
		return
	}

	m, err := h.Matches.Update(c.Request.Context(), id, params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, m, nil)
}

// @Summary Cancel match
// @Tags matches
// @Param id path int true "match id"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches/{id}/cancel [post]
func (h *MatchHandler) cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Matches.Cancel(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"id": id, "status": models.MatchCancelled}, nil)
}

type settleMatchRequest struct {
	Outcome *int16 `json:"outcome"` // 0 home, 1 draw, 2 away
}

// settle is the manual settlement entry point. The oracle path goes through
// the detector sweep instead.
//
// @Summary Settle match manually
// @Tags matches
// @Param id path int true "match id"
// @Param body body settleMatchRequest true "final outcome"
// @Success 200 {object} apiResponse
// @Router /api/v1/matches/{id}/settle [post]
func (h *MatchHandler) settle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req settleMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Outcome == nil {
		Error(c, http.StatusBadRequest, "outcome(0|1|2) required", nil)
		return
	}
	outcome := models.Outcome(*req.Outcome)
	if err := h.Settlement.Settle(c.Request.Context(), id, outcome, service.SettleSourceManual); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"id": id, "outcome": outcome}, nil)
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseDecimalPtr(s *string, parseErr *bool) *decimal.Decimal {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		*parseErr = true
		return nil
	}
	return &v
}
