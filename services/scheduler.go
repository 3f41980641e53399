// services/scheduler.go
package services

import (
	"log"
	"time"

	"photo-contest-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartFinalizeScheduler polls for contests whose voting window has closed
// and runs the reward pass for each. Polling plus idempotent grants replaces
// "fire exactly once at voting end": a tick may find the same contest twice
// (slow pass, restart) and nothing double-credits, because every award is
// guarded and the finalization marker is only written on full success.
func (s *RewardService) StartFinalizeScheduler(pollInterval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(pollInterval),
		gocron.NewTask(func() {
			now := time.Now()
			var contests []models.Contest
			err := s.DB.
				Where("voting_end_date <= ?", now).
				Where("id NOT IN (?)", s.DB.Model(&models.ContestFinalization{}).Select("contest_id")).
				Find(&contests).Error
			if err != nil {
				log.Printf("[FinalizeScheduler] DB error: %v", err)
				return
			}

			for _, c := range contests {
				if err := s.FinalizeContest(c.ID); err != nil {
					// Retried on the next tick; award guards make that safe.
					log.Printf("[FinalizeScheduler] Failed to finalize contest %s: %v", c.ID, err)
					continue
				}
				log.Printf("✅ Finalized contest: %s", c.Title)
			}
		}),
	)
}
