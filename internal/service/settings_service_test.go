package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fypdesk/fyp-api/internal/models"
)

type fakeSettingRepo struct {
	rows []models.SystemSetting
}

func (r *fakeSettingRepo) All(ctx context.Context) ([]models.SystemSetting, error) {
	return r.rows, nil
}

func (r *fakeSettingRepo) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	for i, row := range r.rows {
		if row.Key == setting.Key {
			r.rows[i].Value = setting.Value
			r.rows[i].UpdatedBy = setting.UpdatedBy
			return nil
		}
	}
	setting.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, *setting)
	return nil
}

func TestSettingsLoadSnapshotsTypedValues(t *testing.T) {
	repo := &fakeSettingRepo{rows: []models.SystemSetting{
		{Key: SettingRegistrationOpen, Value: "false"},
		{Key: SettingCurrentSession, Value: "Fall 2026"},
		{Key: SettingSupervisorMaxDefault, Value: "3"},
		{Key: "malformed_flag", Value: "definitely"},
	}}
	svc := NewSettingsService(repo, &captureAudit{}, testLogger())

	settings, err := svc.Load(context.Background())
	require.NoError(t, err)

	require.False(t, settings.GetBool(SettingRegistrationOpen, true))
	require.Equal(t, "Fall 2026", settings.Get(SettingCurrentSession, ""))
	require.Equal(t, 3, settings.GetInt(SettingSupervisorMaxDefault, 5))

	// unset and malformed values fall back
	require.Equal(t, "default", settings.Get("missing", "default"))
	require.True(t, settings.GetBool("malformed_flag", true))
	require.Equal(t, 5, settings.GetInt("missing", 5))
}

func TestSettingsSetUpsertsAndAudits(t *testing.T) {
	repo := &fakeSettingRepo{}
	audit := &captureAudit{}
	svc := NewSettingsService(repo, audit, testLogger())

	err := svc.Set(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator},
		"  "+SettingRegistrationOpen+"  ", " true ")
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	require.Equal(t, SettingRegistrationOpen, repo.rows[0].Key)
	require.Equal(t, "true", repo.rows[0].Value)
	require.Equal(t, uint(31), repo.rows[0].UpdatedBy)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "update_setting", audit.entries[0].Action)
}
