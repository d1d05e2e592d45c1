// services/scheduler.go
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"referral-tracking-system/models"
	"referral-tracking-system/utils"

	"github.com/go-co-op/gocron/v2"
)

// StartMaintenanceScheduler runs the background housekeeping jobs:
// an hourly referral-code uniqueness scan and a daily ledger export to R2.
// Neither job sits on the redemption path.
func (s *AdminService) StartMaintenanceScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Hourly: the referral_code unique index should make duplicates
	// impossible; if one ever appears it is a data-integrity anomaly that
	// must be surfaced, not silently tolerated.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			type dup struct {
				ReferralCode string
				N            int64
			}
			var dups []dup
			err := s.DB.Model(&models.Account{}).
				Select("referral_code, COUNT(*) AS n").
				Where("referral_code IS NOT NULL").
				Group("referral_code").
				Having("COUNT(*) > 1").
				Scan(&dups).Error
			if err != nil {
				log.Printf("[Scheduler] integrity scan failed: %v", err)
				return
			}
			for _, d := range dups {
				log.Printf("⚠️ [Scheduler] integrity anomaly: referral code %q held by %d accounts", d.ReferralCode, d.N)
			}
		}),
	)

	// Daily: export the last 24h of ledger entries as CSV for finance/audit.
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			if !utils.R2Enabled() {
				return
			}
			if err := s.exportLedger(context.Background()); err != nil {
				log.Printf("[Scheduler] ledger export failed: %v", err)
			}
		}),
	)
}

func (s *AdminService) exportLedger(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	since := time.Now().UTC().Add(-24 * time.Hour)
	var entries []models.ReferralEntry
	if err := s.DB.Where("created_at >= ?", since).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Println("[Scheduler] no ledger entries to export")
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "referrer_id", "referred_id", "code_used", "referrer_award", "referred_award", "created_at"})
	for _, e := range entries {
		_ = w.Write([]string{
			e.ID, e.ReferrerID, e.ReferredID, e.CodeUsed,
			strconv.FormatInt(e.ReferrerAward, 10),
			strconv.FormatInt(e.ReferredAward, 10),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	key := fmt.Sprintf("ledger-exports/referrals-%s.csv", time.Now().UTC().Format("2006-01-02"))
	url, err := utils.UploadBytesToR2(ctx, key, "text/csv", buf.Bytes())
	if err != nil {
		return err
	}

	log.Printf("✅ [Scheduler] exported %d ledger entries to %s", len(entries), url)
	return nil
}
