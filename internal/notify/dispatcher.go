// Package notify 实现 interfaces.NotificationGateway：写站内通知，并可选推送 webhook
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Dispatcher 站内通知落库 + webhook 推送
type Dispatcher struct {
	repo    repository.NotificationRepository
	webhook *WebhookClient
	logger  *logrus.Logger
}

var _ interfaces.NotificationGateway = (*Dispatcher)(nil)

// NewDispatcher 创建通知投递器，webhook 可为 nil
func NewDispatcher(repo repository.NotificationRepository, webhook *WebhookClient, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, webhook: webhook, logger: logger}
}

// Notify 先落库；webhook 失败只记日志，不影响站内通知
func (d *Dispatcher) Notify(ctx context.Context, msg *interfaces.NotificationMessage) error {
	n := &model.Notification{
		UserID:  msg.UserID,
		Kind:    msg.Kind,
		Message: msg.Message,
	}
	if msg.ReferenceID != 0 {
		ref := msg.ReferenceID
		n.ReferenceID = &ref
	}
	if len(msg.Payload) > 0 {
		raw, err := json.Marshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("序列化通知 payload 失败: %w", err)
		}
		n.Payload = datatypes.JSON(raw)
	}
	if err := d.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("保存通知失败: %w", err)
	}

	if d.webhook != nil {
		if err := d.webhook.Send(ctx, msg); err != nil {
			d.logger.WithError(err).WithField("user_id", msg.UserID).Warn("webhook 推送失败")
		}
	}
	return nil
}
