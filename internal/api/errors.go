package api

import (
	"errors"
	"net/http"
	"strconv"

	"CircuitEngine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusOf 业务错误 → HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrNotAuthorized), errors.Is(err, service.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrNoParticipants),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrEventsPending):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError 4xx 返回错误原文；5xx 只返回通用信息并记录日志
func writeError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("request_id", c.GetString(ctxRequestID)).Error(op + " failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	logger.WithError(err).WithField("status", status).Debug(op + " rejected")
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
