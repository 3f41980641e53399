package services

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Timeframe selects the XP summation window for the leaderboard.
type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

// ParseTimeframe normalizes a query value; empty defaults to all-time.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch Timeframe(raw) {
	case TimeframeAll, "":
		return TimeframeAll, nil
	case TimeframeMonthly:
		return TimeframeMonthly, nil
	case TimeframeYearly:
		return TimeframeYearly, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", raw)
}

// timeframeStart returns the UTC start of the current calendar window, or
// nil for the unbounded all-time frame.
func timeframeStart(tf Timeframe, now time.Time) *time.Time {
	now = now.UTC()
	var start time.Time
	switch tf {
	case TimeframeMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case TimeframeYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return nil
	}
	return &start
}

// LeaderboardEntry is one row of the ranked output. XP is summed over the
// requested window; Level is always derived from the all-time total, because
// level is a lifetime attribute, not a windowed one.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Level  int    `json:"level"`
}

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Leaderboard sums the ledger per user over the timeframe window and ranks
// the top entries. Ties keep a stable order by user ID; ranks are positional.
func (s *LeaderboardService) Leaderboard(tf Timeframe, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	type sumRow struct {
		UserID string
		XP     int64
	}
	var rows []sumRow

	q := s.DB.Table("xp_transactions").
		Select("user_id, COALESCE(SUM(xp_amount), 0) AS xp")
	if start := timeframeStart(tf, time.Now()); start != nil {
		q = q.Where("awarded_at >= ?", *start)
	}
	err := q.Group("user_id").
		Order("xp DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []LeaderboardEntry{}, nil
	}

	// Level comes from the lifetime sum regardless of the window.
	lifetime := make(map[string]int64, len(rows))
	if tf == TimeframeAll {
		for _, r := range rows {
			lifetime[r.UserID] = r.XP
		}
	} else {
		userIDs := make([]string, 0, len(rows))
		for _, r := range rows {
			userIDs = append(userIDs, r.UserID)
		}
		var totals []sumRow
		err := s.DB.Table("xp_transactions").
			Select("user_id, COALESCE(SUM(xp_amount), 0) AS xp").
			Where("user_id IN ?", userIDs).
			Group("user_id").
			Scan(&totals).Error
		if err != nil {
			return nil, err
		}
		for _, t := range totals {
			lifetime[t.UserID] = t.XP
		}
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			UserID: r.UserID,
			XP:     r.XP,
			Level:  LevelForXP(lifetime[r.UserID]),
		})
	}
	return entries, nil
}

// --- Handlers ---

// GetLeaderboard handles GET /leaderboard?timeframe=&limit=.
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	tf, err := ParseTimeframe(c.Query("timeframe", "all"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	entries, err := s.Leaderboard(tf, limit)
	if err != nil {
		log.Printf("[Leaderboard] %s query failed: %v", tf, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load leaderboard"})
	}
	return c.JSON(fiber.Map{
		"timeframe":   tf,
		"leaderboard": entries,
	})
}
