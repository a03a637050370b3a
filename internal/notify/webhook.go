package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CircuitEngine/internal/config"
	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/utils/httpclient"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebhookClient 把通知以 JSON POST 到外部推送服务
type WebhookClient struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewWebhookClient 创建推送客户端；webhook_url 为空时返回 nil
func NewWebhookClient(cfg *config.NotifyConfig, logger *logrus.Logger) *WebhookClient {
	u := strings.TrimSpace(cfg.WebhookURL)
	if u == "" {
		return nil
	}
	return &WebhookClient{
		url:        u,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// webhookPayload 推送请求体
type webhookPayload struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Kind        string                 `json:"kind"`
	Message     string                 `json:"message"`
	ReferenceID uint64                 `json:"reference_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	SentAt      int64                  `json:"sent_at"`
}

// Send 推送一条通知，非 2xx 视为失败
func (c *WebhookClient) Send(ctx context.Context, msg *interfaces.NotificationMessage) error {
	body, err := json.Marshal(webhookPayload{
		ID:          uuid.NewString(),
		UserID:      msg.UserID,
		Kind:        msg.Kind,
		Message:     msg.Message,
		ReferenceID: msg.ReferenceID,
		Data:        msg.Payload,
		SentAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WithField("status", resp.StatusCode).WithField("body", string(respBody)).Warn("webhook 返回错误")
		return fmt.Errorf("webhook 错误 %d", resp.StatusCode)
	}
	return nil
}
