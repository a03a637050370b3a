package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationCircuitScore = "circuit_score"
	NotificationCircuitWon   = "circuit_won"
	NotificationCircuitTie   = "circuit_tie"
	NotificationInfo         = "info"
)

// Notification 对应 notifications 表
type Notification struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      string         `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Kind        string         `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Message     string         `gorm:"column:message;type:text;not null" json:"message"`
	ReferenceID *uint64        `gorm:"column:reference_id;type:bigint" json:"reference_id"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	IsRead      bool           `gorm:"column:is_read;type:boolean;not null;default:false" json:"is_read"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
