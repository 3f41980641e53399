package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// PollAggregates periodically rebuilds photo vote aggregates from the votes
// table and repairs any drift. The vote service keeps the counters correct
// transactionally, so under normal operation every tick is a no-op — the job
// exists because the aggregates are defined as derivable from the vote rows,
// and a manual data fix or a missed migration must not leave them wrong
// forever.
func PollAggregates(ctx context.Context, db *gorm.DB, pollInterval time.Duration) {
	log.Println("Starting vote aggregate reconciliation...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Aggregate reconciliation stopped.")
			return
		case <-ticker.C:
			res := db.Exec(`
				UPDATE contest_photos p
				SET vote_count = v.cnt, total_score = v.score
				FROM (
					SELECT photo_id, COUNT(*) AS cnt, COALESCE(SUM(value), 0) AS score
					FROM votes
					GROUP BY photo_id
				) v
				WHERE p.id = v.photo_id
				  AND (p.vote_count <> v.cnt OR p.total_score <> v.score)`)
			if res.Error != nil {
				log.Printf("❌ [Reconcile] aggregate repair failed: %v", res.Error)
				continue
			}
			repaired := res.RowsAffected

			// Photos whose votes were all removed keep stale counters unless
			// zeroed explicitly — the join above never matches them.
			res = db.Exec(`
				UPDATE contest_photos p
				SET vote_count = 0, total_score = 0
				WHERE (p.vote_count <> 0 OR p.total_score <> 0)
				  AND NOT EXISTS (SELECT 1 FROM votes v WHERE v.photo_id = p.id)`)
			if res.Error != nil {
				log.Printf("❌ [Reconcile] orphan zeroing failed: %v", res.Error)
				continue
			}
			repaired += res.RowsAffected

			if repaired > 0 {
				log.Printf("⚠️ [Reconcile] repaired %d drifted aggregate row(s)", repaired)
			}
		}
	}
}
