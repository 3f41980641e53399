package models

import (
	"time"
)

// Contest is created and edited by the contest-management service — this
// service only reads it. There is deliberately no phase/status column: the
// current phase is derived from the four timestamps on every read, so a stale
// stored status can never disagree with the clock.
//
// Timestamp invariant (enforced upstream): StartDate < EndDate ≤
// VotingStartDate < VotingEndDate.
type Contest struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid"`
	Title            string     `json:"title" gorm:"not null"`
	Description      string     `json:"description" gorm:"type:text"`
	BannerImageURL   string     `json:"banner_image_url" gorm:"type:text"`
	StartDate        time.Time  `json:"start_date" gorm:"not null;index"`
	EndDate          time.Time  `json:"end_date" gorm:"not null"`
	VotingStartDate  time.Time  `json:"voting_start_date" gorm:"not null"`
	VotingEndDate    time.Time  `json:"voting_end_date" gorm:"not null;index"`
	MaxPhotosPerUser *int       `json:"max_photos_per_user,omitempty"` // nil = unlimited
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Photos []ContestPhoto `json:"photos,omitempty" gorm:"foreignKey:ContestID"`
}

// ContestFinalization records that a contest's reward pass ran to completion.
// The finalize scheduler polls for ended contests that have no row here, so a
// contest is re-submitted on every tick until the pass fully succeeds. It is
// written by the reward service only after every award has committed.
type ContestFinalization struct {
	ContestID   string    `json:"contest_id" gorm:"primaryKey;type:uuid"`
	FinalizedAt time.Time `json:"finalized_at" gorm:"autoCreateTime"`
}
