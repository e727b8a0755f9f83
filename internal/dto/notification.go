package dto

import (
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/google/uuid"
)

type RegisterTokenRequest struct {
	UserID     uuid.UUID   `json:"userId"     validate:"required"`
	Token      string      `json:"token"      validate:"required"`
	Platform   md.Platform `json:"platform"   validate:"required,platform"`
	DeviceInfo string      `json:"deviceInfo"`
}

type UnregisterTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type UserTokensResponse struct {
	Tokens []string `json:"tokens"`
}

type TestNotificationRequest struct {
	UserID uuid.UUID      `json:"userId" validate:"required"`
	Title  string         `json:"title"  validate:"required"`
	Body   string         `json:"body"   validate:"required"`
	Data   map[string]any `json:"data"`
}

type TokenOutcome struct {
	Token        string `json:"token"`
	Success      bool   `json:"success"`
	MessageID    string `json:"messageId,omitempty"`
	Error        string `json:"error,omitempty"`
	Unregistered bool   `json:"unregistered,omitempty"`
}

// DeliveryResult counts every non-blank token submitted: SuccessCount + FailureCount equals that number.
type DeliveryResult struct {
	Success      bool           `json:"success"`
	SuccessCount int            `json:"successCount"`
	FailureCount int            `json:"failureCount"`
	Outcomes     []TokenOutcome `json:"outcomes"`
	NoDevice     bool           `json:"noDevice,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func (r DeliveryResult) MessageIDs() []string {
	ids := make([]string, 0, r.SuccessCount)
	for _, o := range r.Outcomes {
		if o.Success && o.MessageID != "" {
			ids = append(ids, o.MessageID)
		}
	}
	return ids
}

type CancelRemindersResponse struct {
	Cancelled int64 `json:"cancelled"`
}
