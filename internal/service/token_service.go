package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

var (
	// ErrTokenNotFound indicates no token row matched the value.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenNotUsable indicates an expired, revoked or spent token.
	// The token is left untouched so the caller can inspect it.
	ErrTokenNotUsable = errors.New("token is expired, revoked or already used")
)

// TokenService issues and redeems one-time external evaluator tokens.
type TokenService interface {
	Issue(ctx context.Context, actor Actor, payload dto.ExternalTokenIssueRequest) (dto.ExternalTokenResponse, error)
	Redeem(ctx context.Context, value string) (dto.ExternalTokenResponse, error)
	ListByDefense(ctx context.Context, defenseID uint) ([]dto.ExternalTokenResponse, error)
	Revoke(ctx context.Context, actor Actor, value string) error
}

type tokenService struct {
	tokens     repository.TokenRepository
	defenses   repository.DefenseRepository
	validator  *validator.Validate
	defaultTTL time.Duration
	audit      AuditRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTokenService constructs the token service.
func NewTokenService(tokens repository.TokenRepository, defenses repository.DefenseRepository, validate *validator.Validate, defaultTTL time.Duration, audit AuditRecorder, logger zerolog.Logger) TokenService {
	if defaultTTL <= 0 {
		defaultTTL = 72 * time.Hour
	}
	return &tokenService{
		tokens:     tokens,
		defenses:   defenses,
		validator:  validate,
		defaultTTL: defaultTTL,
		audit:      audit,
		logger:     logger.With().Str("component", "token_service").Logger(),
		now:        time.Now,
	}
}

// Issue mints a token for one defense. The opaque value is returned only in
// this response.
func (s *tokenService) Issue(ctx context.Context, actor Actor, payload dto.ExternalTokenIssueRequest) (dto.ExternalTokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExternalTokenResponse{}, err
	}

	if _, err := s.defenses.GetByID(ctx, payload.DefenseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExternalTokenResponse{}, ErrDefenseNotFound
		}
		return dto.ExternalTokenResponse{}, err
	}

	value, err := generateTokenValue()
	if err != nil {
		return dto.ExternalTokenResponse{}, err
	}

	ttl := s.defaultTTL
	if payload.TTLHours > 0 {
		ttl = time.Duration(payload.TTLHours) * time.Hour
	}

	token := models.ExternalToken{
		Token:         value,
		DefenseID:     payload.DefenseID,
		EvaluatorName: payload.EvaluatorName,
		IssuedBy:      actor.UserID,
		ExpiresAt:     s.now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		return dto.ExternalTokenResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "issue_token",
		EntityType: "external_token",
		EntityID:   &token.ID,
		Details:    map[string]interface{}{"defense_id": payload.DefenseID, "evaluator": payload.EvaluatorName},
	})

	return dto.NewExternalTokenResponse(token, true), nil
}

// Redeem marks a usable token spent. Unusable tokens are rejected without
// being modified.
func (s *tokenService) Redeem(ctx context.Context, value string) (dto.ExternalTokenResponse, error) {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExternalTokenResponse{}, ErrTokenNotFound
		}
		return dto.ExternalTokenResponse{}, err
	}

	if !token.Usable(s.now()) {
		return dto.ExternalTokenResponse{}, ErrTokenNotUsable
	}

	at := s.now()
	token.UsedAt = &at
	if err := s.tokens.Update(ctx, &token); err != nil {
		return dto.ExternalTokenResponse{}, err
	}

	return dto.NewExternalTokenResponse(token, false), nil
}

func (s *tokenService) ListByDefense(ctx context.Context, defenseID uint) ([]dto.ExternalTokenResponse, error) {
	tokens, err := s.tokens.ListByDefense(ctx, defenseID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ExternalTokenResponse, 0, len(tokens))
	for _, token := range tokens {
		items = append(items, dto.NewExternalTokenResponse(token, false))
	}
	return items, nil
}

// Revoke invalidates an unspent token.
func (s *tokenService) Revoke(ctx context.Context, actor Actor, value string) error {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	token.IsRevoked = true
	if err := s.tokens.Update(ctx, &token); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "revoke_token",
		EntityType: "external_token",
		EntityID:   &token.ID,
	})
	return nil
}

// generateTokenValue produces 32 random bytes in URL-safe base64.
func generateTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
