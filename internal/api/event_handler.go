package api

import (
	"net/http"

	"CircuitEngine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventHandler 联赛赛事接口
type EventHandler struct {
	svc    *service.EventService
	logger *logrus.Logger
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(svc *service.EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// CreateEvent POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	event, err := h.svc.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "CreateEvent", err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetEvent GET /api/events/:event_id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseID(c, "event_id")
	if !ok {
		return
	}
	event, err := h.svc.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "GetEvent", err)
		return
	}
	c.JSON(http.StatusOK, event)
}
