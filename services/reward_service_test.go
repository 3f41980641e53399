package services

import (
	"fmt"
	"testing"

	"photo-contest-system/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementTier(t *testing.T) {
	tests := []struct {
		name string
		rank int
		n    int
		want models.XPActionType
		none bool
	}{
		{"first", 1, 40, models.ActionPlace1st, false},
		{"second", 2, 40, models.ActionPlace2nd, false},
		{"third", 3, 40, models.ActionPlace3rd, false},
		{"top ten percent", 4, 40, models.ActionTop10Percent, false},
		{"cutoff rounds up", 4, 31, models.ActionTop10Percent, false},
		{"top quarter", 10, 40, models.ActionTop25Percent, false},
		{"just outside quarter", 11, 40, "", true},
		{"midfield", 25, 40, "", true},
		// In a 10-photo field the 10% and 25% cutoffs land inside the
		// podium, so rank 4 gets nothing.
		{"small field no percent tiers", 4, 10, "", true},
		// Tiny fields still award the podium.
		{"two photo winner", 1, 2, models.ActionPlace1st, false},
		{"two photo runner-up", 2, 2, models.ActionPlace2nd, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := placementTier(tt.rank, tt.n)
			if tt.none {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, tier)
		})
	}
}

// An owner with several qualifying photos accumulates one award per photo,
// but duplicates of the same (user, tier) pair collapse to the guard key.
func TestPlacementAwards(t *testing.T) {
	// 40 ranked photos: 10% cutoff = rank 4, 25% cutoff = rank 10.
	// u1 owns the winner plus a top-25% photo; u2 owns the runner-up plus
	// two top-25% photos (which collapse to one TOP_25_PERCENT grant).
	owners := map[int]string{
		1: "u1", 2: "u2", 3: "u3", 4: "u4",
		5: "u1", 6: "u2", 7: "u2", 8: "u5", 9: "u6", 10: "u7",
	}
	standings := make([]PhotoStanding, 0, 40)
	for i := 1; i <= 40; i++ {
		owner, ok := owners[i]
		if !ok {
			owner = "crowd"
		}
		standings = append(standings, standing(fmt.Sprintf("p%02d", i), owner, int64(200-i), 10))
	}

	awards := placementAwards(RankPhotos(standings))

	byUser := map[string][]models.XPActionType{}
	for _, a := range awards {
		byUser[a.UserID] = append(byUser[a.UserID], a.ActionType)
	}

	assert.ElementsMatch(t, []models.XPActionType{models.ActionPlace1st, models.ActionTop25Percent}, byUser["u1"])
	assert.ElementsMatch(t, []models.XPActionType{models.ActionPlace2nd, models.ActionTop25Percent}, byUser["u2"])
	assert.ElementsMatch(t, []models.XPActionType{models.ActionPlace3rd}, byUser["u3"])
	assert.ElementsMatch(t, []models.XPActionType{models.ActionTop10Percent}, byUser["u4"])
	for _, u := range []string{"u5", "u6", "u7"} {
		assert.ElementsMatch(t, []models.XPActionType{models.ActionTop25Percent}, byUser[u])
	}
	assert.Empty(t, byUser["crowd"])
}

func TestPlacementAwards_NoWinners(t *testing.T) {
	assert.Empty(t, placementAwards(nil))
	assert.Empty(t, placementAwards(RankPhotos([]PhotoStanding{
		standing("silent", "u1", 0, 0),
	})))
}

func TestXPWeightsForAction(t *testing.T) {
	w := DefaultXPWeights
	assert.Equal(t, int64(500), w.ForAction(models.ActionPlace1st))
	assert.Equal(t, int64(-10), w.ForAction(models.ActionPhotoDeletion))
	assert.Equal(t, int64(0), w.ForAction(models.XPActionType("BOGUS")))
}

func TestFinalizeContest_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRewardService(db)

	mock.ExpectQuery(`SELECT .* FROM "contests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.FinalizeContest("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A contest whose photos collected no votes finalizes with zero awards —
// the completion marker is still written so the scheduler stops retrying.
func TestFinalizeContest_NoVotesStillFinalizes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRewardService(db)

	mock.ExpectQuery(`SELECT .* FROM "contests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow("c-1", "Golden Hour"))
	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contest_id", "user_id", "vote_count", "total_score"}).
			AddRow("p-1", "c-1", "u-1", 0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "contest_finalizations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.FinalizeContest("c-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func finalizeContestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title"}).AddRow("c-1", "Golden Hour")
}

func finalizePhotoRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "contest_id", "user_id", "vote_count", "total_score"}).
		AddRow("p-1", "c-1", "u-1", 3, 15).
		AddRow("p-2", "c-1", "u-2", 1, 5)
}

// The first finalization pass grants PLACE_1ST and PLACE_2ND; a rerun finds
// both guard rows already present and must not append to the ledger again.
// The expectations are strictly ordered, so a second pass that tried another
// xp_transactions insert would fail the commit expectation.
func TestFinalizeContest_RerunGrantsNothing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRewardService(db)

	mock.ExpectQuery(`SELECT .* FROM "contests"`).WillReturnRows(finalizeContestRows())
	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).WillReturnRows(finalizePhotoRows())
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "contest_reward_records"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "xp_transactions"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "contest_finalizations"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, svc.FinalizeContest("c-1"))

	// Rerun: every guard insert hits the unique index and reports zero rows.
	mock.ExpectQuery(`SELECT .* FROM "contests"`).WillReturnRows(finalizeContestRows())
	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).WillReturnRows(finalizePhotoRows())
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "contest_reward_records"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "contest_finalizations"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.NoError(t, svc.FinalizeContest("c-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
