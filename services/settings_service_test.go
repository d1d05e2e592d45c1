package services

import (
	"testing"

	"referral-tracking-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearSettingsRow(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Where("id = ?", models.RewardSettingsRowID).
		Delete(&models.RewardSettings{}).Error)
}

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	clearSettingsRow(t)

	settings, err := settingsService.Effective()
	require.NoError(t, err)
	assert.Equal(t, DefaultReferrerCoins, settings.ReferrerCoins)
	assert.Equal(t, DefaultReferredCoins, settings.ReferredCoins)
	assert.False(t, settings.RequireCompleteProfile)
}

func TestSettingsPartialUpdateMerges(t *testing.T) {
	clearSettingsRow(t)

	ten := int64(10)
	saved, err := settingsService.Update(UpdateSettingsRequest{ReferrerCoins: &ten})
	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ReferrerCoins)
	assert.Equal(t, DefaultReferredCoins, saved.ReferredCoins, "untouched field keeps its default")

	on := true
	saved, err = settingsService.Update(UpdateSettingsRequest{RequireCompleteProfile: &on})
	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ReferrerCoins, "earlier update survives a later partial update")
	assert.True(t, saved.RequireCompleteProfile)

	clearSettingsRow(t)
}

func TestSettingsRejectNonPositiveAmounts(t *testing.T) {
	zero := int64(0)
	_, err := settingsService.Update(UpdateSettingsRequest{ReferrerCoins: &zero})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	negative := int64(-5)
	_, err = settingsService.Update(UpdateSettingsRequest{ReferredCoins: &negative})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
