package services

import (
	"sort"
)

// PhotoStanding is a photo's vote aggregate going into the ranking.
type PhotoStanding struct {
	PhotoID    string `json:"photo_id"`
	OwnerID    string `json:"owner_id"`
	TotalScore int64  `json:"total_score"`
	VoteCount  int64  `json:"vote_count"`
}

// RankedPhoto is a standing with its final competition rank attached.
type RankedPhoto struct {
	PhotoStanding
	Rank int `json:"rank"`
}

// RankPhotos produces the final ordering for a contest. Photos are sorted by
// total score descending, then vote count descending (more votes at the same
// score means more confidence), then photo ID for a deterministic result.
// Photos with zero votes are left out entirely — they are unranked, not last.
//
// Ranks follow competition style: photos with equal (score, count) share a
// rank and the next distinct photo takes its positional rank, so two photos
// tied at 1 are followed by rank 3, never 2.
func RankPhotos(standings []PhotoStanding) []RankedPhoto {
	eligible := make([]PhotoStanding, 0, len(standings))
	for _, s := range standings {
		if s.VoteCount > 0 {
			eligible = append(eligible, s)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].TotalScore != eligible[j].TotalScore {
			return eligible[i].TotalScore > eligible[j].TotalScore
		}
		if eligible[i].VoteCount != eligible[j].VoteCount {
			return eligible[i].VoteCount > eligible[j].VoteCount
		}
		return eligible[i].PhotoID < eligible[j].PhotoID
	})

	ranked := make([]RankedPhoto, 0, len(eligible))
	for i, s := range eligible {
		rank := i + 1
		if i > 0 {
			prev := ranked[i-1]
			if prev.TotalScore == s.TotalScore && prev.VoteCount == s.VoteCount {
				rank = prev.Rank
			}
		}
		ranked = append(ranked, RankedPhoto{PhotoStanding: s, Rank: rank})
	}
	return ranked
}
