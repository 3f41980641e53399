package models

import (
	"time"
)

// XPActionType identifies why XP was granted (or clawed back).
type XPActionType string

const (
	ActionSubmitPhoto   XPActionType = "SUBMIT_PHOTO"
	ActionVote          XPActionType = "VOTE"
	ActionPlace1st      XPActionType = "PLACE_1ST"
	ActionPlace2nd      XPActionType = "PLACE_2ND"
	ActionPlace3rd      XPActionType = "PLACE_3RD"
	ActionTop10Percent  XPActionType = "TOP_10_PERCENT"
	ActionTop25Percent  XPActionType = "TOP_25_PERCENT"
	ActionPhotoDeletion XPActionType = "PHOTO_DELETION"
)

// XPTransaction is an append-only ledger row. Rows are never updated or
// deleted once written; user totals, levels and leaderboards are always
// derived by summation. A photo deletion appends a compensating negative
// row rather than removing prior ones.
type XPTransaction struct {
	ID           string       `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       string       `json:"user_id" gorm:"not null;index"`
	ActionType   XPActionType `json:"action_type" gorm:"not null;type:varchar(32)"`
	XPAmount     int64        `json:"xp_amount" gorm:"not null"` // signed
	AwardedAt    time.Time    `json:"awarded_at" gorm:"not null;index"`
	ContestID    *string      `json:"contest_id,omitempty" gorm:"type:uuid;index"`
	ContestTitle string       `json:"contest_title,omitempty"` // denormalized for display
}

// ContestRewardRecord is the idempotency guard for contest-scoped XP grants.
// The unique index on (contest, user, action) turns a retried award into a
// safe no-op: the guard insert reports zero rows affected and the transaction
// writes nothing. It exists purely for that constraint and carries no other
// data.
type ContestRewardRecord struct {
	ID         string       `json:"id" gorm:"primaryKey;type:uuid"`
	ContestID  string       `json:"contest_id" gorm:"not null;uniqueIndex:idx_contest_reward_guard"`
	UserID     string       `json:"user_id" gorm:"not null;uniqueIndex:idx_contest_reward_guard"`
	ActionType XPActionType `json:"action_type" gorm:"not null;type:varchar(32);uniqueIndex:idx_contest_reward_guard"`
	CreatedAt  time.Time    `json:"created_at" gorm:"autoCreateTime"`
}
