package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"referral-tracking-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemConcurrentExactlyOnce(t *testing.T) {
	setAwards(t, 50, 20)
	createAccount(t, "conc-ref", "Referrer")
	createAccount(t, "conc-new", "Newcomer")
	code, err := referralService.EnsureCode("conc-ref")
	require.NoError(t, err)

	// All goroutines pass the pre-read before any of them commits; only the
	// conditional claim inside the transaction may decide the winner.
	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := referralService.Redeem("conc-new", "conc-new", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var success, alreadyApplied int
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrAlreadyApplied):
			alreadyApplied++
		default:
			t.Errorf("unexpected redemption error: %v", err)
		}
	}
	assert.Equal(t, 1, success, "exactly one concurrent redemption may commit")
	assert.Equal(t, workers-1, alreadyApplied, "every race loser must see AlreadyApplied")

	var count int64
	require.NoError(t, testDB.Model(&models.ReferralEntry{}).
		Where("referred_id = ?", "conc-new").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, int64(50), fetchAccount(t, "conc-ref").Balance)
	assert.Equal(t, int64(20), fetchAccount(t, "conc-new").Balance)
}

func TestRedeemConcurrentConservation(t *testing.T) {
	setAwards(t, 50, 20)
	createAccount(t, "fan-ref", "Popular")
	code, err := referralService.EnsureCode("fan-ref")
	require.NoError(t, err)

	const workers = 6
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = fmt.Sprintf("fan-new-%d", i)
		createAccount(t, ids[i], "Friend")
	}

	// Distinct targets all crediting the same referrer: a read-modify-write
	// balance update would lose increments here.
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := referralService.Redeem(id, id, code)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}

	assert.Equal(t, int64(50*workers), fetchAccount(t, "fan-ref").Balance, "no referrer credit may be lost")

	var count int64
	require.NoError(t, testDB.Model(&models.ReferralEntry{}).
		Where("referrer_id = ?", "fan-ref").Count(&count).Error)
	assert.Equal(t, int64(workers), count)
}

func TestEnsureCodeConcurrentFirstTouch(t *testing.T) {
	// The account row does not exist yet, so the goroutines race both the
	// first-touch create and the code generation. Everyone must end up with
	// the single persisted code.
	const workers = 8
	var wg sync.WaitGroup
	codes := make(chan string, workers)
	failures := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := referralService.EnsureCode("conc-unsynced")
			if err != nil {
				failures <- err
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)
	close(failures)

	for err := range failures {
		t.Errorf("concurrent EnsureCode failed: %v", err)
	}

	seen := make(map[string]struct{})
	for code := range codes {
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 1, "all callers must observe the same persisted code")

	var count int64
	require.NoError(t, testDB.Model(&models.Account{}).
		Where("id = ?", "conc-unsynced").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
