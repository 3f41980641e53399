package services

import (
	"errors"
	"log"
	"time"

	"photo-contest-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ContestService serves the read side of the contest lifecycle: derived
// phase, countdown targets and standings. Contest rows are written by the
// contest-management service; nothing here mutates them.
type ContestService struct {
	DB *gorm.DB
}

func NewContestService(db *gorm.DB) *ContestService {
	return &ContestService{DB: db}
}

// contestView decorates a contest with its derived phase for list responses.
type contestView struct {
	models.Contest
	Slug            string     `json:"slug"`
	Phase           Phase      `json:"phase"`
	CountdownTarget *time.Time `json:"countdown_target,omitempty"`
}

func viewOf(c models.Contest, now time.Time) contestView {
	return contestView{
		Contest:         c,
		Slug:            slug.Make(c.Title),
		Phase:           ResolvePhase(&c, now),
		CountdownTarget: PhaseDeadline(&c, now),
	}
}

func (s *ContestService) findContest(c *fiber.Ctx) (*models.Contest, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// --- Handlers ---

// ListContests handles GET /contests.
func (s *ContestService) ListContests(c *fiber.Ctx) error {
	var contests []models.Contest
	if err := s.DB.Order("start_date DESC").Find(&contests).Error; err != nil {
		log.Printf("[Contests] list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load contests"})
	}

	now := time.Now()
	views := make([]contestView, 0, len(contests))
	for _, contest := range contests {
		views = append(views, viewOf(contest, now))
	}
	return c.JSON(views)
}

// GetContestPhase handles GET /contests/:id/phase. The phase is recomputed
// on every request and never cached beyond it.
func (s *ContestService) GetContestPhase(c *fiber.Ctx) error {
	contest, err := s.findContest(c)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Contests] phase read failed: %v", err)
		}
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	return c.JSON(fiber.Map{
		"contest_id":       contest.ID,
		"phase":            ResolvePhase(contest, now),
		"countdown_target": PhaseDeadline(contest, now),
	})
}

// GetStandings handles GET /contests/:id/standings.
//
// While voting is open the interim order would leak standings, so the default
// view returns the entries without ranks or scores, newest first; internal
// callers pass ?reveal=true to see the live ranking. Once the contest has
// ended the full ranked listing is always returned.
func (s *ContestService) GetStandings(c *fiber.Ctx) error {
	contest, err := s.findContest(c)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Contests] standings read failed: %v", err)
		}
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	var photos []models.ContestPhoto
	if err := s.DB.Where("contest_id = ?", contest.ID).
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		log.Printf("[Contests] photo load failed for %s: %v", contest.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load photos"})
	}

	phase := ResolvePhase(contest, time.Now())
	reveal := phase == PhaseEnded || c.Query("reveal") == "true"
	if !reveal {
		type hiddenEntry struct {
			PhotoID   string    `json:"photo_id"`
			UserID    string    `json:"user_id"`
			URL       string    `json:"url"`
			CreatedAt time.Time `json:"created_at"`
		}
		entries := make([]hiddenEntry, 0, len(photos))
		for _, p := range photos {
			entries = append(entries, hiddenEntry{
				PhotoID:   p.ID,
				UserID:    p.UserID,
				URL:       p.URL,
				CreatedAt: p.CreatedAt,
			})
		}
		return c.JSON(fiber.Map{"phase": phase, "entries": entries})
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
	return c.JSON(fiber.Map{"phase": phase, "ranking": RankPhotos(standings)})
}
