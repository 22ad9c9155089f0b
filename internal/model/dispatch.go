package model

import (
	"time"
)

// DispatchStatus 派发结果，与 Request 的终态一一对应
type DispatchStatus string

const (
	DispatchStatusSent     DispatchStatus = "sent"
	DispatchStatusFailed   DispatchStatus = "failed"
	DispatchStatusRejected DispatchStatus = "rejected"
)

// DispatchRecord 派发日志，每次离开 queued 都写一条
type DispatchRecord struct {
	BaseModel
	IntakeID          string         `gorm:"type:uuid;not null;index:idx_message_logs_intake" json:"intake_id"`
	ProviderMessageID *string        `gorm:"type:varchar(64)" json:"provider_message_id,omitempty"`
	Status            DispatchStatus `gorm:"type:varchar(16);not null" json:"status"`
	SentTo            string         `gorm:"type:varchar(16);not null" json:"sent_to"`
	MessageContent    *string        `gorm:"type:text" json:"message_content,omitempty"`
	ErrorMessage      *string        `gorm:"type:text" json:"error_message,omitempty"`
	SentAt            time.Time      `gorm:"type:timestamptz;not null;default:now()" json:"sent_at"`
}

// TableName 指定表名
func (DispatchRecord) TableName() string {
	return "message_logs"
}
