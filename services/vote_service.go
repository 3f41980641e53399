package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"photo-contest-system/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteService struct {
	DB       *gorm.DB
	Validate *validator.Validate
	// XP is optional; when set, a user's first vote in a contest grants
	// participation XP after the vote commits.
	XP *XPService
}

func NewVoteService(db *gorm.DB, xp *XPService) *VoteService {
	return &VoteService{DB: db, Validate: validator.New(), XP: xp}
}

// VoteReceipt is returned to the caller after a successful cast or re-cast.
type VoteReceipt struct {
	Accepted      bool    `json:"accepted"`
	PreviousValue *int    `json:"previous_value,omitempty"`
	VoteCount     int64   `json:"vote_count"`
	AverageRating float64 `json:"average_rating"`
}

// PhotoAggregate is the public read view of a photo's votes.
type PhotoAggregate struct {
	PhotoID       string  `json:"photo_id"`
	VoteCount     int64   `json:"vote_count"`
	TotalScore    int64   `json:"total_score"`
	AverageRating float64 `json:"average_rating"`
}

// CastVote upserts the caller's vote on a photo and updates the photo's
// aggregates in the same transaction. The photo row is locked FOR UPDATE, so
// concurrent voters on the same photo serialize on that row and the count/sum
// increments are applied as SQL expressions — never read-modify-write in Go.
// Lock scope is the single photo row; votes on other photos do not contend.
func (s *VoteService) CastVote(userID, photoID string, value int) (*VoteReceipt, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidValue
	}

	var receipt VoteReceipt
	var contestID string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var photo models.ContestPhoto
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
			}
			return err
		}
		if photo.UserID == userID {
			return ErrInvalidVote
		}
		contestID = photo.ContestID

		var contest models.Contest
		if err := tx.First(&contest, "id = ?", photo.ContestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("contest %s: %w", photo.ContestID, ErrNotFound)
			}
			return err
		}
		if ResolvePhase(&contest, time.Now()) != PhaseVoting {
			return ErrPhaseClosed
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND photo_id = ?", userID, photoID).
			First(&existing).Error
		switch {
		case err == nil:
			// Re-vote: value and timestamp change in place, count stays.
			prev := existing.Value
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ContestPhoto{}).Where("id = ?", photoID).
				Update("total_score", gorm.Expr("total_score + ?", value-prev)).Error; err != nil {
				return err
			}
			receipt.PreviousValue = &prev
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				ID:        uuid.NewString(),
				UserID:    userID,
				PhotoID:   photoID,
				ContestID: photo.ContestID,
				Value:     value,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ContestPhoto{}).Where("id = ?", photoID).
				Updates(map[string]interface{}{
					"total_score": gorm.Expr("total_score + ?", value),
					"vote_count":  gorm.Expr("vote_count + 1"),
				}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// Re-read through the same tx so the receipt reflects this vote.
		var updated models.ContestPhoto
		if err := tx.First(&updated, "id = ?", photoID).Error; err != nil {
			return err
		}
		receipt.Accepted = true
		receipt.VoteCount = updated.VoteCount
		receipt.AverageRating = updated.AverageRating()
		return nil
	})
	if err != nil {
		return nil, wrapStorageError(err)
	}

	if s.XP != nil && receipt.PreviousValue == nil {
		// First vote on this photo — grant voting XP, once per contest.
		if err := s.XP.AwardVoteXP(userID, contestID); err != nil {
			log.Printf("[Votes] failed to grant voting XP to %s: %v", userID, err)
		}
	}
	return &receipt, nil
}

// GetAggregate returns the current vote aggregate for a photo.
func (s *VoteService) GetAggregate(photoID string) (*PhotoAggregate, error) {
	var photo models.ContestPhoto
	if err := s.DB.First(&photo, "id = ?", photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
		}
		return nil, err
	}
	return &PhotoAggregate{
		PhotoID:       photo.ID,
		VoteCount:     photo.VoteCount,
		TotalScore:    photo.TotalScore,
		AverageRating: photo.AverageRating(),
	}, nil
}

// --- Handlers ---

// CastVoteHandler handles POST /votes for the authenticated user.
func (s *VoteService) CastVoteHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		PhotoID string `json:"photo_id" validate:"required,uuid"`
		Value   int    `json:"value" validate:"required,min=1,max=5"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	receipt, err := s.CastVote(userID, req.PhotoID, req.Value)
	if err != nil {
		log.Printf("[Votes] cast by %s on %s rejected: %v", userID, req.PhotoID, err)
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(receipt)
}

// GetPhotoAggregate handles GET /photos/:id/aggregate.
func (s *VoteService) GetPhotoAggregate(c *fiber.Ctx) error {
	agg, err := s.GetAggregate(c.Params("id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Votes] aggregate read failed: %v", err)
		}
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(agg)
}
