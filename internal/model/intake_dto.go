package model

// IntakeSubmission 表单原始提交，elder_age 兼容数字与数字字符串
type IntakeSubmission struct {
	RequesterName          string      `json:"requester_name"`
	ElderName              string      `json:"elder_name"`
	ElderPhone             string      `json:"elder_phone"`
	MessageType            string      `json:"message_type"`
	MessageTypeOther       *string     `json:"message_type_other,omitempty"`
	ElderAge               interface{} `json:"elder_age"`
	ElderPersonality       string      `json:"elder_personality"`
	RequesterContact       string      `json:"requester_contact"`
	ConsentElderConfirmed  *bool       `json:"consent_elder_confirmed"`
	ConsentNoImpersonation *bool       `json:"consent_no_impersonation"`
	VerificationToken      string      `json:"verification_token"`
}

// ValidatedIntake 校验通过后的强类型提交
type ValidatedIntake struct {
	RequesterName          string
	RequesterContact       string
	ElderName              string
	ElderPhone             string
	ElderAge               int
	ElderPersonality       string
	MessageType            MessageType
	MessageTypeOther       *string
	ConsentElderConfirmed  bool
	ConsentNoImpersonation bool
	VerificationToken      string
}

// ToRequest 构造待写入的 pending 记录，token 只保存摘要
func (v *ValidatedIntake) ToRequest(tokenHash string) *Request {
	return &Request{
		RequesterName:          v.RequesterName,
		RequesterContact:       v.RequesterContact,
		ElderName:              v.ElderName,
		ElderPhone:             v.ElderPhone,
		ElderAge:               v.ElderAge,
		ElderPersonality:       v.ElderPersonality,
		MessageType:            v.MessageType,
		MessageTypeOther:       v.MessageTypeOther,
		ConsentElderConfirmed:  v.ConsentElderConfirmed,
		ConsentNoImpersonation: v.ConsentNoImpersonation,
		VerificationTokenHash:  tokenHash,
		Status:                 RequestStatusPending,
	}
}

// Provenance 提交来源，写入同意日志
type Provenance struct {
	IPAddress string
	UserAgent string
}
