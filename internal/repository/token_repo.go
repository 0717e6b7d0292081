package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// TokenRepository handles persistence for external evaluator tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.ExternalToken) error
	GetByValue(ctx context.Context, value string) (models.ExternalToken, error)
	Update(ctx context.Context, token *models.ExternalToken) error
	ListByDefense(ctx context.Context, defenseID uint) ([]models.ExternalToken, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository constructs the repository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.ExternalToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) GetByValue(ctx context.Context, value string) (models.ExternalToken, error) {
	var token models.ExternalToken
	if err := r.db.WithContext(ctx).Where("token = ?", value).First(&token).Error; err != nil {
		return models.ExternalToken{}, err
	}
	return token, nil
}

func (r *tokenRepository) Update(ctx context.Context, token *models.ExternalToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}

func (r *tokenRepository) ListByDefense(ctx context.Context, defenseID uint) ([]models.ExternalToken, error) {
	var tokens []models.ExternalToken
	err := r.db.WithContext(ctx).
		Where("defense_id = ?", defenseID).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}
