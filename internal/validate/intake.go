// Package validate 校验并规整表单提交，纯函数，无 I/O
package validate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"DignityDialogue/internal/model"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/utils"
)

const minPersonalityLength = 10

// Intake 逐字段校验，不短路，一次返回全部错误
func Intake(raw model.IntakeSubmission) (*model.ValidatedIntake, errors.ValidationErrors) {
	var errs errors.ValidationErrors
	add := func(field, message string) {
		errs = append(errs, errors.FieldError{Field: field, Message: message})
	}

	out := &model.ValidatedIntake{
		RequesterName:     strings.TrimSpace(raw.RequesterName),
		RequesterContact:  strings.TrimSpace(raw.RequesterContact),
		ElderName:         strings.TrimSpace(raw.ElderName),
		ElderPhone:        strings.TrimSpace(raw.ElderPhone),
		ElderPersonality:  strings.TrimSpace(raw.ElderPersonality),
		MessageType:       model.MessageType(strings.TrimSpace(raw.MessageType)),
		VerificationToken: strings.TrimSpace(raw.VerificationToken),
	}

	if out.RequesterName == "" {
		add("requester_name", "Requester name is required")
	}

	if out.ElderName == "" {
		add("elder_name", "Recipient name is required")
	}

	if !utils.ValidatePhone(out.ElderPhone) {
		add("elder_phone", "Phone must be in E.164 format")
	}

	if !out.MessageType.Valid() {
		add("message_type", "Message type must be one of birthday, holiday, check_in, encouragement, other")
	}

	if raw.MessageTypeOther != nil {
		if other := strings.TrimSpace(*raw.MessageTypeOther); other != "" {
			out.MessageTypeOther = &other
		}
	}

	age, msg := parseAge(raw.ElderAge)
	if msg != "" {
		add("elder_age", msg)
	}
	out.ElderAge = age

	if utf8.RuneCountInString(out.ElderPersonality) < minPersonalityLength {
		add("elder_personality", "Personality description must be at least 10 characters")
	}

	if out.RequesterContact == "" {
		add("requester_contact", "Requester contact is required")
	}

	if raw.ConsentElderConfirmed == nil || !*raw.ConsentElderConfirmed {
		add("consent_elder_confirmed", "Recipient consent must be confirmed")
	} else {
		out.ConsentElderConfirmed = true
	}

	if raw.ConsentNoImpersonation == nil || !*raw.ConsentNoImpersonation {
		add("consent_no_impersonation", "No-impersonation acknowledgment must be confirmed")
	} else {
		out.ConsentNoImpersonation = true
	}

	if out.VerificationToken == "" {
		add("verification_token", "Verification token is required")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// parseAge 接受 JSON 数字或数字字符串，必须是非负整数
func parseAge(v interface{}) (int, string) {
	var f float64

	switch n := v.(type) {
	case nil:
		return 0, "Age is required"
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, "Age must be a number"
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, "Age must be a number"
		}
		f = parsed
	default:
		return 0, "Age must be a number"
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "Age must be a number"
	}
	if f != math.Trunc(f) {
		return 0, "Age must be a whole number"
	}
	if f < 0 {
		return 0, "Age must be 0 or greater"
	}
	if f > math.MaxInt16 {
		return 0, "Age is out of range"
	}
	return int(f), ""
}
