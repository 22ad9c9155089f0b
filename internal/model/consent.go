package model

// ConsentType 同意类型
type ConsentType string

const (
	ConsentTypeRecipient       ConsentType = "recipient_consent"
	ConsentTypeNoImpersonation ConsentType = "no_impersonation"
)

// ConsentRecord 同意审计日志，只插入不更新
type ConsentRecord struct {
	BaseModel
	IntakeID    string      `gorm:"type:uuid;not null;index:idx_consent_logs_intake" json:"intake_id"`
	ConsentType ConsentType `gorm:"type:varchar(32);not null" json:"consent_type"`
	Consented   bool        `gorm:"not null" json:"consented"`
	IPAddress   string      `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent   string      `gorm:"type:text" json:"user_agent"`
}

// TableName 指定表名
func (ConsentRecord) TableName() string {
	return "consent_logs"
}
