// handlers/contest_routes.go
package handlers

import (
	"photo-contest-system/middleware"
	"photo-contest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupContestRoutes(app *fiber.App, contestService *services.ContestService, voteService *services.VoteService, photoService *services.PhotoService) {
	// 🔓 Read endpoints — gateway token only, no user context needed
	app.Get("/contests", contestService.ListContests)
	app.Get("/contests/:id/phase", contestService.GetContestPhase)
	app.Get("/contests/:id/standings", contestService.GetStandings)
	app.Get("/photos/:id/aggregate", voteService.GetPhotoAggregate)

	// 🔐 Voting requires the authenticated caller's identity
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/votes", voteService.CastVoteHandler)

	// Service-to-service ingestion from the upload service
	app.Post("/internal/photos", photoService.RegisterPhoto)
	app.Delete("/internal/photos/:id", photoService.RemovePhoto)
}
