package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers 全部路由处理器
type Handlers struct {
	Events   *EventHandler
	Circuits *CircuitHandler
	Accounts *AccountHandler
}

// RegisterRoutes 注册 /healthz 与 /api 路由；/api 下全部需要 X-User-ID
func RegisterRoutes(r *gin.Engine, h Handlers, logger *logrus.Logger) {
	r.Use(RequestID(logger))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g := r.Group("/api", RequireUser())

	g.POST("/events", h.Events.CreateEvent)
	g.GET("/events/:event_id", h.Events.GetEvent)

	g.POST("/circuits", h.Circuits.CreateCircuit)
	g.GET("/circuits/:circuit_id", h.Circuits.GetCircuit)
	g.POST("/circuits/:circuit_id/join", h.Circuits.JoinCircuit)
	g.POST("/circuits/:circuit_id/bets", h.Circuits.PlaceBet)
	g.GET("/circuits/:circuit_id/bets", h.Circuits.ListBets)
	g.POST("/circuits/:circuit_id/events/:event_id/complete", h.Circuits.CompleteEvent)
	g.POST("/circuits/:circuit_id/complete", h.Circuits.CompleteCircuit)
	g.POST("/circuits/:circuit_id/tiebreaker", h.Circuits.ResolveTiebreaker)

	g.GET("/users/me/wallet", h.Accounts.GetWallet)
	g.GET("/users/me/notifications", h.Accounts.ListNotifications)
}
