package api

import (
	"net/http"

	"CircuitEngine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccountHandler 当前用户的钱包与通知
type AccountHandler struct {
	svc    *service.AccountService
	logger *logrus.Logger
}

// NewAccountHandler 创建 AccountHandler
func NewAccountHandler(svc *service.AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

// GetWallet GET /api/users/me/wallet?page=1&page_size=20
func (h *AccountHandler) GetWallet(c *gin.Context) {
	page, pageSize := pageParams(c)
	w, err := h.svc.GetWallet(c.Request.Context(), callerID(c), page, pageSize)
	if err != nil {
		writeError(c, h.logger, "GetWallet", err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListNotifications GET /api/users/me/notifications?unread=true
func (h *AccountHandler) ListNotifications(c *gin.Context) {
	page, pageSize := pageParams(c)
	unread := c.Query("unread") == "true"
	res, err := h.svc.ListNotifications(c.Request.Context(), callerID(c), unread, page, pageSize)
	if err != nil {
		writeError(c, h.logger, "ListNotifications", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
