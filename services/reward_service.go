// services/reward_service.go
package services

import (
	"errors"
	"fmt"
	"log"

	"photo-contest-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPWeights define relative XP values per action (tunable via config later)
type XPWeights struct {
	Place1st      int64
	Place2nd      int64
	Place3rd      int64
	Top10Percent  int64
	Top25Percent  int64
	SubmitPhoto   int64
	Vote          int64
	PhotoDeletion int64
}

var DefaultXPWeights = XPWeights{
	Place1st:      500,
	Place2nd:      300,
	Place3rd:      200,
	Top10Percent:  100,
	Top25Percent:  50,
	SubmitPhoto:   10,
	Vote:          2,
	PhotoDeletion: -10, // compensates a SUBMIT_PHOTO grant
}

// ForAction resolves the weight for a placement or activity action type.
func (w XPWeights) ForAction(action models.XPActionType) int64 {
	switch action {
	case models.ActionPlace1st:
		return w.Place1st
	case models.ActionPlace2nd:
		return w.Place2nd
	case models.ActionPlace3rd:
		return w.Place3rd
	case models.ActionTop10Percent:
		return w.Top10Percent
	case models.ActionTop25Percent:
		return w.Top25Percent
	case models.ActionSubmitPhoto:
		return w.SubmitPhoto
	case models.ActionVote:
		return w.Vote
	case models.ActionPhotoDeletion:
		return w.PhotoDeletion
	}
	return 0
}

type RewardService struct {
	DB      *gorm.DB
	Weights XPWeights
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db, Weights: DefaultXPWeights}
}

// placementAward is one pending (user, tier) grant for a contest.
type placementAward struct {
	UserID     string
	ActionType models.XPActionType
}

// placementTier maps a photo's rank to its single highest qualifying award.
// n is the number of ranked photos. Percent cutoffs round up, so a 5-photo
// contest still has a top-10% slot (rank 1, normally swallowed by PLACE_1ST).
func placementTier(rank, n int) (models.XPActionType, bool) {
	switch rank {
	case 1:
		return models.ActionPlace1st, true
	case 2:
		return models.ActionPlace2nd, true
	case 3:
		return models.ActionPlace3rd, true
	}
	if rank <= (n+9)/10 {
		return models.ActionTop10Percent, true
	}
	if rank <= (n+3)/4 {
		return models.ActionTop25Percent, true
	}
	return "", false
}

// placementAwards expands a ranking into the award list. Each photo yields at
// most one tier, so an owner with several qualifying photos accumulates one
// award per photo — but duplicates of the same (user, tier) pair collapse to
// one, matching the guard key the grants are persisted under.
func placementAwards(ranked []RankedPhoto) []placementAward {
	n := len(ranked)
	seen := make(map[placementAward]bool, n)
	awards := make([]placementAward, 0, n)
	for _, r := range ranked {
		tier, ok := placementTier(r.Rank, n)
		if !ok {
			continue
		}
		a := placementAward{UserID: r.OwnerID, ActionType: tier}
		if seen[a] {
			continue
		}
		seen[a] = true
		awards = append(awards, a)
	}
	return awards
}

// FinalizeContest runs the reward pass for an ended contest. It is safe to
// call any number of times: every grant is keyed by (contest, user, action)
// in contest_reward_records, so a retried pass finds the guards already
// present and writes nothing. A contest with no votes finalizes with zero
// awards rather than erroring.
func (s *RewardService) FinalizeContest(contestID string) error {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("contest %s: %w", contestID, ErrNotFound)
		}
		return err
	}

	var photos []models.ContestPhoto
	if err := s.DB.Where("contest_id = ?", contestID).Find(&photos).Error; err != nil {
		return err
	}

	standings := make([]PhotoStanding, 0, len(photos))
	for _, p := range photos {
		standings = append(standings, PhotoStanding{
			PhotoID:    p.ID,
			OwnerID:    p.UserID,
			TotalScore: p.TotalScore,
			VoteCount:  p.VoteCount,
		})
	}
	ranked := RankPhotos(standings)
	awards := placementAwards(ranked)

	for _, a := range awards {
		if err := grantGuardedXP(s.DB, &contest, a.UserID, a.ActionType, s.Weights.ForAction(a.ActionType)); err != nil {
			return fmt.Errorf("granting %s to %s: %w", a.ActionType, a.UserID, err)
		}
	}
	log.Printf("[Rewards] contest %s: %d ranked photo(s), %d award(s)", contestID, len(ranked), len(awards))

	fin := models.ContestFinalization{ContestID: contestID}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fin).Error
}
