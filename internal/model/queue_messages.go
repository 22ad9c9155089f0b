package model

// ConfirmationMessage 提交成功后的确认通知
type ConfirmationMessage struct {
	MessageID        string `json:"message_id"`
	IntakeID         string `json:"intake_id"`
	RequesterName    string `json:"requester_name"`
	RequesterContact string `json:"requester_contact"`
	SubmittedAt      string `json:"submitted_at"`
}
