package models

import (
	"time"
)

// Vote holds exactly one row per (user, photo) pair — re-voting updates Value
// and UpdatedAt in place, no history is kept. The composite unique index is
// what makes the upsert in the vote service race-safe.
type Vote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_votes_user_photo"`
	PhotoID   string    `json:"photo_id" gorm:"not null;uniqueIndex:idx_votes_user_photo;index"`
	ContestID string    `json:"contest_id" gorm:"not null;index"`
	Value     int       `json:"value" gorm:"not null"` // 1..5
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
