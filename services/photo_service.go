package services

import (
	"errors"
	"log"

	"photo-contest-system/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhotoService is the ingestion seam with the upload service. The upload
// service owns binaries, compression and per-user submission limits; it calls
// these internal endpoints when a photo enters or leaves a contest so the
// aggregate row exists here and the activity XP hooks fire.
type PhotoService struct {
	DB       *gorm.DB
	Validate *validator.Validate
	XP       *XPService
}

func NewPhotoService(db *gorm.DB, xp *XPService) *PhotoService {
	return &PhotoService{DB: db, Validate: validator.New(), XP: xp}
}

// RegisterPhoto handles POST /internal/photos.
func (s *PhotoService) RegisterPhoto(c *fiber.Ctx) error {
	var req struct {
		ID        string `json:"id" validate:"omitempty,uuid"`
		ContestID string `json:"contest_id" validate:"required,uuid"`
		UserID    string `json:"user_id" validate:"required"`
		URL       string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", req.ContestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contest not found"})
		}
		log.Printf("[Photos] contest lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	photo := models.ContestPhoto{
		ID:        req.ID,
		ContestID: req.ContestID,
		UserID:    req.UserID,
		URL:       req.URL,
	}
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if err := wrapStorageError(s.DB.Create(&photo).Error); err != nil {
		if errors.Is(err, ErrConflict) {
			// Upload-service retry of a registration that already landed.
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Photo already registered"})
		}
		log.Printf("[Photos] register failed for %s: %v", photo.ID, err)
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": "Failed to register photo"})
	}

	if err := s.XP.AwardSubmissionXP(req.UserID, req.ContestID); err != nil {
		// The photo row is in; the XP grant is guarded, so a later retry of
		// this endpoint by the upload service cannot double-credit.
		log.Printf("[Photos] submission XP for %s failed: %v", req.UserID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(photo)
}

// RemovePhoto handles DELETE /internal/photos/:id. The photo row and its
// votes go; the XP ledger keeps the original SUBMIT_PHOTO grant and gains a
// compensating PHOTO_DELETION row instead.
func (s *PhotoService) RemovePhoto(c *fiber.Ctx) error {
	photoID := c.Params("id")

	var photo models.ContestPhoto
	if err := s.DB.First(&photo, "id = ?", photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Photo not found"})
		}
		log.Printf("[Photos] lookup failed for %s: %v", photoID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photoID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&photo)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent deletion of the same photo won between our lookup
			// and this delete; it also wrote the compensating XP row.
			return nil
		}
		// Same transaction as the row removal: a retried DELETE finds no
		// photo row and therefore cannot debit twice.
		return s.XP.RecordPhotoDeletion(tx, photo.UserID, photo.ContestID)
	})
	if err != nil {
		log.Printf("[Photos] delete failed for %s: %v", photoID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete photo"})
	}

	return c.JSON(fiber.Map{"message": "Photo removed", "photo_id": photoID})
}
