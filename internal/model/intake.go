package model

import (
	"time"
)

// MessageType 消息类别
type MessageType string

const (
	MessageTypeBirthday      MessageType = "birthday"
	MessageTypeHoliday       MessageType = "holiday"
	MessageTypeCheckIn       MessageType = "check_in"
	MessageTypeEncouragement MessageType = "encouragement"
	MessageTypeOther         MessageType = "other"
)

// MessageTypes 按表单顺序列出全部类别
var MessageTypes = []MessageType{
	MessageTypeBirthday,
	MessageTypeHoliday,
	MessageTypeCheckIn,
	MessageTypeEncouragement,
	MessageTypeOther,
}

func (t MessageType) Valid() bool {
	for _, mt := range MessageTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Request 一次提交对应一条记录，状态机见 status.go
type Request struct {
	BaseModel
	RequesterName          string        `gorm:"type:varchar(255);not null" json:"requester_name"`
	RequesterContact       string        `gorm:"type:varchar(255);not null" json:"requester_contact"`
	ElderName              string        `gorm:"type:varchar(255);not null" json:"elder_name"`
	ElderPhone             string        `gorm:"type:varchar(16);not null" json:"elder_phone"`
	ElderAge               int           `gorm:"type:smallint;not null" json:"elder_age"`
	ElderPersonality       string        `gorm:"type:text;not null" json:"elder_personality"`
	MessageType            MessageType   `gorm:"type:varchar(32);not null" json:"message_type"`
	MessageTypeOther       *string       `gorm:"type:varchar(255)" json:"message_type_other,omitempty"`
	ConsentElderConfirmed  bool          `gorm:"not null;default:false" json:"consent_elder_confirmed"`
	ConsentNoImpersonation bool          `gorm:"not null;default:false" json:"consent_no_impersonation"`
	VerificationTokenHash  string        `gorm:"type:char(64)" json:"-"`
	Status                 RequestStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_intakes_status" json:"status"`
	UpdatedAt              time.Time     `gorm:"type:timestamptz;not null;default:now()" json:"updated_at"`
	ProcessedAt            *time.Time    `gorm:"type:timestamptz" json:"processed_at,omitempty"`
	SentAt                 *time.Time    `gorm:"type:timestamptz" json:"sent_at,omitempty"`
	ErrorMessage           *string       `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName 指定表名
func (Request) TableName() string {
	return "intakes"
}

// Qualifier other 类别的补充说明，未填写时为空串
func (r *Request) Qualifier() string {
	if r.MessageTypeOther == nil {
		return ""
	}
	return *r.MessageTypeOther
}
