package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "contest_id", "user_id", "url", "vote_count", "total_score"})
}

func votingContestRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "start_date", "end_date", "voting_start_date", "voting_end_date"}).
		AddRow("c-1", "Golden Hour", now.Add(-96*time.Hour), now.Add(-48*time.Hour), now.Add(-24*time.Hour), now.Add(24*time.Hour))
}

func endedContestRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "start_date", "end_date", "voting_start_date", "voting_end_date"}).
		AddRow("c-1", "Golden Hour", now.Add(-96*time.Hour), now.Add(-72*time.Hour), now.Add(-48*time.Hour), now.Add(-24*time.Hour))
}

func TestCastVote_InvalidValue(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	for _, v := range []int{0, -1, 6, 100} {
		receipt, err := svc.CastVote("voter", "p-1", v)
		assert.Nil(t, receipt)
		assert.ErrorIs(t, err, ErrInvalidValue)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVote_PhotoNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "contest_photos" .*FOR UPDATE`).WillReturnRows(photoColumns())
	mock.ExpectRollback()

	_, err := svc.CastVote("voter", "missing", 4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVote_OwnPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "contest_photos" .*FOR UPDATE`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "voter", "", 0, 0))
	mock.ExpectRollback()

	_, err := svc.CastVote("voter", "p-1", 4)
	assert.ErrorIs(t, err, ErrInvalidVote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVote_PhaseClosed(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "contest_photos" .*FOR UPDATE`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 0, 0))
	mock.ExpectQuery(`SELECT .* FROM "contests"`).WillReturnRows(endedContestRows())
	mock.ExpectRollback()

	_, err := svc.CastVote("voter", "p-1", 4)
	assert.ErrorIs(t, err, ErrPhaseClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVote_FirstVote(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "contest_photos" .*FOR UPDATE`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 2, 7))
	mock.ExpectQuery(`SELECT .* FROM "contests"`).WillReturnRows(votingContestRows())
	mock.ExpectQuery(`SELECT .* FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "votes"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// The aggregates must move as in-database increments, not values computed
	// in Go from a stale read.
	mock.ExpectExec(`UPDATE "contest_photos" SET "total_score"=total_score \+ \$1,.*"vote_count"=vote_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 3, 12))
	mock.ExpectCommit()

	receipt, err := svc.CastVote("voter", "p-1", 5)
	require.NoError(t, err)
	assert.True(t, receipt.Accepted)
	assert.Nil(t, receipt.PreviousValue)
	assert.Equal(t, int64(3), receipt.VoteCount)
	assert.InDelta(t, 4.0, receipt.AverageRating, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Re-voting changes the score by the delta and leaves the count alone.
func TestCastVote_Revote(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "contest_photos" .*FOR UPDATE`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 3, 12))
	mock.ExpectQuery(`SELECT .* FROM "contests"`).WillReturnRows(votingContestRows())
	mock.ExpectQuery(`SELECT .* FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "photo_id", "contest_id", "value", "created_at", "updated_at"}).
			AddRow("v-1", "voter", "p-1", "c-1", 2, now, now))
	mock.ExpectExec(`UPDATE "votes" SET "value"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Only the score moves on a re-vote, again as an in-database increment;
	// the count expression must not appear.
	mock.ExpectExec(`UPDATE "contest_photos" SET "total_score"=total_score \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 3, 15))
	mock.ExpectCommit()

	receipt, err := svc.CastVote("voter", "p-1", 5)
	require.NoError(t, err)
	require.NotNil(t, receipt.PreviousValue)
	assert.Equal(t, 2, *receipt.PreviousValue)
	assert.Equal(t, int64(3), receipt.VoteCount)
	assert.InDelta(t, 5.0, receipt.AverageRating, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAggregate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 4, 14))

	agg, err := svc.GetAggregate("p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), agg.VoteCount)
	assert.Equal(t, int64(14), agg.TotalScore)
	assert.InDelta(t, 3.5, agg.AverageRating, 0.001)
}

func TestGetAggregate_NoVotes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoteService(db, nil)

	mock.ExpectQuery(`SELECT .* FROM "contest_photos"`).
		WillReturnRows(photoColumns().AddRow("p-1", "c-1", "owner", "", 0, 0))

	agg, err := svc.GetAggregate("p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.VoteCount)
	assert.Equal(t, 0.0, agg.AverageRating)
}
