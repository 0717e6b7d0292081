package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// ExternalTokenIssueRequest issues a one-time external evaluator token.
type ExternalTokenIssueRequest struct {
	DefenseID     uint   `json:"defense_id" validate:"required"`
	EvaluatorName string `json:"evaluator_name" validate:"required,min=2,max=255"`
	TTLHours      int    `json:"ttl_hours" validate:"omitempty,min=1,max=336"`
}

// ExternalTokenResponse serializes an issued token. The opaque value is
// only returned at issue time.
type ExternalTokenResponse struct {
	Token         string    `json:"token,omitempty"`
	DefenseID     uint      `json:"defense_id"`
	EvaluatorName string    `json:"evaluator_name"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsRevoked     bool      `json:"is_revoked"`
	Used          bool      `json:"used"`
}

// NewExternalTokenResponse converts a token model into a DTO, omitting the
// secret unless includeSecret is set.
func NewExternalTokenResponse(token models.ExternalToken, includeSecret bool) ExternalTokenResponse {
	response := ExternalTokenResponse{
		DefenseID:     token.DefenseID,
		EvaluatorName: token.EvaluatorName,
		ExpiresAt:     token.ExpiresAt,
		IsRevoked:     token.IsRevoked,
		Used:          token.UsedAt != nil,
	}
	if includeSecret {
		response.Token = token.Token
	}
	return response
}
