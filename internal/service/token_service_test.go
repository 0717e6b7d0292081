package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
)

// fakeTokenRepo is an in-memory TokenRepository.
type fakeTokenRepo struct {
	tokens map[string]*models.ExternalToken
	nextID uint
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*models.ExternalToken{}}
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *models.ExternalToken) error {
	r.nextID++
	token.ID = r.nextID
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) GetByValue(ctx context.Context, value string) (models.ExternalToken, error) {
	stored, ok := r.tokens[value]
	if !ok {
		return models.ExternalToken{}, gorm.ErrRecordNotFound
	}
	return *stored, nil
}

func (r *fakeTokenRepo) Update(ctx context.Context, token *models.ExternalToken) error {
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) ListByDefense(ctx context.Context, defenseID uint) ([]models.ExternalToken, error) {
	var tokens []models.ExternalToken
	for _, token := range r.tokens {
		if token.DefenseID == defenseID {
			tokens = append(tokens, *token)
		}
	}
	return tokens, nil
}

func newTokenFixture(t *testing.T) (*fakeTokenRepo, *fakeDefenseRepo, TokenService) {
	t.Helper()

	tokens := newFakeTokenRepo()
	defenses := newFakeDefenseRepo()
	require.NoError(t, defenses.Create(context.Background(), &models.Defense{
		GroupID: 1, Type: models.DefenseFinal, ScheduledAt: time.Now().Add(24 * time.Hour),
		Status: models.DefenseScheduled, Version: 1,
	}))

	svc := NewTokenService(tokens, defenses, testValidator(), 72*time.Hour, &captureAudit{}, testLogger())
	return tokens, defenses, svc
}

func TestTokenIssueReturnsSecretOnce(t *testing.T) {
	_, _, svc := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, dto.ExternalTokenIssueRequest{
		DefenseID:     1,
		EvaluatorName: "External Examiner",
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.Len(t, issued.Token, 43)

	listed, err := svc.ListByDefense(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Empty(t, listed[0].Token)
}

func TestTokenRedeemIsOneTime(t *testing.T) {
	_, _, svc := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, dto.ExternalTokenIssueRequest{
		DefenseID:     1,
		EvaluatorName: "External Examiner",
	})
	require.NoError(t, err)

	redeemed, err := svc.Redeem(context.Background(), issued.Token)
	require.NoError(t, err)
	require.True(t, redeemed.Used)

	_, err = svc.Redeem(context.Background(), issued.Token)
	require.ErrorIs(t, err, ErrTokenNotUsable)
}

func TestTokenRedeemExpiredLeavesTokenUntouched(t *testing.T) {
	tokens, _, svc := newTokenFixture(t)

	expired := models.ExternalToken{
		Token:     "expired-token-value",
		DefenseID: 1,
		IssuedBy:  31,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, tokens.Create(context.Background(), &expired))

	_, err := svc.Redeem(context.Background(), expired.Token)
	require.ErrorIs(t, err, ErrTokenNotUsable)

	stored, err := tokens.GetByValue(context.Background(), expired.Token)
	require.NoError(t, err)
	require.Nil(t, stored.UsedAt)
}

func TestTokenRedeemRevoked(t *testing.T) {
	_, _, svc := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, dto.ExternalTokenIssueRequest{
		DefenseID:     1,
		EvaluatorName: "External Examiner",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, issued.Token))

	_, err = svc.Redeem(context.Background(), issued.Token)
	require.ErrorIs(t, err, ErrTokenNotUsable)
}

func TestTokenRedeemUnknownValue(t *testing.T) {
	_, _, svc := newTokenFixture(t)

	_, err := svc.Redeem(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrTokenNotFound)
}
