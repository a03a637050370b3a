package interfaces

import "context"

// NotificationMessage 发给单个用户的站内通知
type NotificationMessage struct {
	UserID      string
	Kind        string
	Message     string
	ReferenceID uint64
	Payload     map[string]interface{}
}

// NotificationGateway 通知投递。调用方在事务提交后投递，失败只记日志不回滚
type NotificationGateway interface {
	Notify(ctx context.Context, msg *NotificationMessage) error
}
