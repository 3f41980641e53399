package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"photo-contest-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPService owns all reads and writes of the XP ledger that are not part of
// contest finalization: user stats, transaction history, and the per-activity
// grants (submitting, voting, deleting a photo).
type XPService struct {
	DB *gorm.DB
}

func NewXPService(db *gorm.DB) *XPService {
	return &XPService{DB: db}
}

// UserXPStats is the read model behind GET /user/xp.
type UserXPStats struct {
	UserID   string        `json:"user_id"`
	TotalXP  int64         `json:"total_xp"`
	Level    int           `json:"level"`
	Progress LevelProgress `json:"progress"`
}

// TotalXPFor sums the ledger for one user. Totals are never stored — the
// ledger is the single source of truth.
func (s *XPService) TotalXPFor(userID string) (int64, error) {
	var total int64
	err := s.DB.Model(&models.XPTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(xp_amount), 0)").
		Scan(&total).Error
	return total, err
}

// GetUserStats derives level and progress from the ledger sum.
func (s *XPService) GetUserStats(userID string) (*UserXPStats, error) {
	total, err := s.TotalXPFor(userID)
	if err != nil {
		return nil, err
	}
	return &UserXPStats{
		UserID:   userID,
		TotalXP:  total,
		Level:    LevelForXP(total),
		Progress: ProgressForXP(total),
	}, nil
}

// GetRecentTransactions pages through a user's ledger, newest first.
func (s *XPService) GetRecentTransactions(userID string, page, size int) ([]models.XPTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var total int64
	if err := s.DB.Model(&models.XPTransaction{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.XPTransaction
	err := s.DB.Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Limit(size).Offset(offset).
		Find(&txns).Error
	return txns, total, err
}

// grantGuardedXP appends one ledger row protected by the (contest, user,
// action) guard. The guard insert and the ledger insert commit together or
// not at all; a duplicate guard means an earlier grant won and this call is
// a no-op. This is the single definition of the idempotency unit — activity
// grants and contest finalization both go through it.
func grantGuardedXP(db *gorm.DB, contest *models.Contest, userID string, action models.XPActionType, amount int64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		guard := models.ContestRewardRecord{
			ID:         uuid.NewString(),
			ContestID:  contest.ID,
			UserID:     userID,
			ActionType: action,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&guard)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		txn := models.XPTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			ActionType:   action,
			XPAmount:     amount,
			AwardedAt:    time.Now().UTC(),
			ContestID:    &guard.ContestID,
			ContestTitle: contest.Title,
		}
		return tx.Create(&txn).Error
	})
}

func (s *XPService) loadContest(contestID string) (*models.Contest, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contest %s: %w", contestID, ErrNotFound)
		}
		return nil, err
	}
	return &contest, nil
}

// AwardSubmissionXP grants SUBMIT_PHOTO XP the first time a user enters a
// contest. Further submissions to the same contest grant nothing.
func (s *XPService) AwardSubmissionXP(userID, contestID string) error {
	contest, err := s.loadContest(contestID)
	if err != nil {
		return err
	}
	return grantGuardedXP(s.DB, contest, userID, models.ActionSubmitPhoto, DefaultXPWeights.SubmitPhoto)
}

// AwardVoteXP grants VOTE XP the first time a user votes in a contest.
func (s *XPService) AwardVoteXP(userID, contestID string) error {
	contest, err := s.loadContest(contestID)
	if err != nil {
		return err
	}
	return grantGuardedXP(s.DB, contest, userID, models.ActionVote, DefaultXPWeights.Vote)
}

// RecordPhotoDeletion appends a compensating negative row. The ledger is
// append-only, so the original SUBMIT_PHOTO grant stays. It must run inside
// the transaction that deletes the photo row, and only after that delete
// reported an affected row — the row removal is what makes the compensation
// exactly-once when a deletion request is retried.
func (s *XPService) RecordPhotoDeletion(tx *gorm.DB, userID, contestID string) error {
	var contest models.Contest
	if err := tx.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("contest %s: %w", contestID, ErrNotFound)
		}
		return err
	}
	txn := models.XPTransaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActionType:   models.ActionPhotoDeletion,
		XPAmount:     DefaultXPWeights.PhotoDeletion,
		AwardedAt:    time.Now().UTC(),
		ContestID:    &contest.ID,
		ContestTitle: contest.Title,
	}
	return tx.Create(&txn).Error
}

// --- Handlers ---

// GetUserXPStatsHandler handles GET /user/xp.
func (s *XPService) GetUserXPStatsHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	stats, err := s.GetUserStats(userID)
	if err != nil {
		log.Printf("[XP] stats read for %s failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load XP stats"})
	}
	return c.JSON(stats)
}

// GetUserTransactionsHandler handles GET /user/xp/transactions.
func (s *XPService) GetUserTransactionsHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("size", "20"))

	txns, total, err := s.GetRecentTransactions(userID, page, size)
	if err != nil {
		log.Printf("[XP] transaction history for %s failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load transactions"})
	}

	sizeClamped := size
	if sizeClamped < 1 || sizeClamped > 100 {
		sizeClamped = 20
	}
	totalPages := (total + int64(sizeClamped) - 1) / int64(sizeClamped)
	return c.JSON(fiber.Map{
		"transactions": txns,
		"page":         page,
		"size":         sizeClamped,
		"total_items":  total,
		"total_pages":  totalPages,
	})
}
