package api

import (
	"net/http"

	"CircuitEngine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CircuitHandler 锦标赛接口
type CircuitHandler struct {
	svc    *service.CircuitService
	logger *logrus.Logger
}

// NewCircuitHandler 创建 CircuitHandler
func NewCircuitHandler(svc *service.CircuitService, logger *logrus.Logger) *CircuitHandler {
	return &CircuitHandler{svc: svc, logger: logger}
}

// CreateCircuit 创建锦标赛 POST /api/circuits
func (h *CircuitHandler) CreateCircuit(c *gin.Context) {
	var req service.CreateCircuitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	circuit, err := h.svc.CreateCircuit(c.Request.Context(), callerID(c), &req)
	if err != nil {
		writeError(c, h.logger, "CreateCircuit", err)
		return
	}
	c.JSON(http.StatusCreated, circuit)
}

// GetCircuit 锦标赛状态 GET /api/circuits/:circuit_id
func (h *CircuitHandler) GetCircuit(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	st, err := h.svc.GetCircuitStatus(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, h.logger, "GetCircuitStatus", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// JoinCircuit 报名 POST /api/circuits/:circuit_id/join
func (h *CircuitHandler) JoinCircuit(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	p, err := h.svc.JoinCircuit(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, h.logger, "JoinCircuit", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PlaceBet 下注 POST /api/circuits/:circuit_id/bets
func (h *CircuitHandler) PlaceBet(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	var req service.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	ub, err := h.svc.PlaceCircuitBet(c.Request.Context(), callerID(c), id, &req)
	if err != nil {
		writeError(c, h.logger, "PlaceCircuitBet", err)
		return
	}
	c.JSON(http.StatusCreated, ub)
}

// ListBets 我的下注 GET /api/circuits/:circuit_id/bets?completed=true
func (h *CircuitHandler) ListBets(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	completedOnly := c.Query("completed") == "true"
	bets, err := h.svc.ListCircuitBets(c.Request.Context(), callerID(c), id, completedOnly)
	if err != nil {
		writeError(c, h.logger, "ListCircuitBets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": bets})
}

// CompleteEvent 录入组件赛事结果 POST /api/circuits/:circuit_id/events/:event_id/complete
func (h *CircuitHandler) CompleteEvent(c *gin.Context) {
	circuitID, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	eventID, ok := parseID(c, "event_id")
	if !ok {
		return
	}
	var req service.CompleteEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	res, err := h.svc.CompleteComponentEvent(c.Request.Context(), callerID(c), circuitID, eventID, &req)
	if err != nil {
		writeError(c, h.logger, "CompleteComponentEvent", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CompleteCircuit 结束锦标赛 POST /api/circuits/:circuit_id/complete
func (h *CircuitHandler) CompleteCircuit(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	res, err := h.svc.CompleteCircuit(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, h.logger, "CompleteCircuit", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ResolveTiebreaker 加赛裁定 POST /api/circuits/:circuit_id/tiebreaker
func (h *CircuitHandler) ResolveTiebreaker(c *gin.Context) {
	id, ok := parseID(c, "circuit_id")
	if !ok {
		return
	}
	var req service.ResolveTiebreakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	res, err := h.svc.ResolveTiebreaker(c.Request.Context(), callerID(c), id, &req)
	if err != nil {
		writeError(c, h.logger, "ResolveTiebreaker", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
