package models

import (
	"time"
)

// ContestPhoto is a photo entered into a contest. The binary itself lives in
// the upload service; this service owns only the vote aggregates.
//
// VoteCount and TotalScore are maintained incrementally by the vote service
// inside the same transaction as the vote upsert, and are always rebuildable
// from the votes table (see workers.PollAggregates).
type ContestPhoto struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	ContestID  string    `json:"contest_id" gorm:"not null;index"`
	UserID     string    `json:"user_id" gorm:"not null;index"` // owner
	URL        string    `json:"url" gorm:"type:text"`
	VoteCount  int64     `json:"vote_count" gorm:"not null;default:0"`
	TotalScore int64     `json:"total_score" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AverageRating is derived; 0 when the photo has no votes.
func (p *ContestPhoto) AverageRating() float64 {
	if p.VoteCount == 0 {
		return 0
	}
	return float64(p.TotalScore) / float64(p.VoteCount)
}
