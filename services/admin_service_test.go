package services

import (
	"fmt"
	"testing"
	"time"

	"referral-tracking-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLedgerEntries(t *testing.T, n int) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		entry := models.ReferralEntry{
			ID:            uuid.NewString(),
			ReferrerID:    "ledger-ref",
			ReferredID:    fmt.Sprintf("ledger-new-%d-%s", i, uuid.NewString()[:8]),
			CodeUsed:      "LG-000000",
			ReferrerAward: 50,
			ReferredAward: 20,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, testDB.Create(&entry).Error)
	}
}

func TestListRecentReferralsOrderAndLimit(t *testing.T) {
	seedLedgerEntries(t, 5)

	entries, err := adminService.ListRecentReferrals(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt), "entries must be newest first")
	}
}

func TestListRecentReferralsCapsLimit(t *testing.T) {
	entries, err := adminService.ListRecentReferrals(100000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), MaxReferralListLimit)

	entries, err = adminService.ListRecentReferrals(0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), MaxReferralListLimit)
}

func TestAdjustBalance(t *testing.T) {
	createAccount(t, "adj-u1", "Wallet")

	require.NoError(t, adminService.AdjustBalance("adj-u1", 30))
	assert.Equal(t, int64(30), fetchAccount(t, "adj-u1").Balance)

	require.NoError(t, adminService.AdjustBalance("adj-u1", -10))
	assert.Equal(t, int64(20), fetchAccount(t, "adj-u1").Balance)

	err := adminService.AdjustBalance("adj-u1", -100)
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, int64(20), fetchAccount(t, "adj-u1").Balance, "rejected adjustment must not mutate")

	err = adminService.AdjustBalance("adj-missing", 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRenameAccount(t *testing.T) {
	createAccount(t, "ren-u1", "Old Name")

	require.NoError(t, adminService.RenameAccount("ren-u1", "New Name"))
	assert.Equal(t, "New Name", fetchAccount(t, "ren-u1").DisplayName)

	err := adminService.RenameAccount("ren-missing", "Anything")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
