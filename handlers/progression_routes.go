// handlers/progression_routes.go
package handlers

import (
	"photo-contest-system/middleware"
	"photo-contest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, xpService *services.XPService, leaderboardService *services.LeaderboardService) {
	app.Get("/leaderboard", leaderboardService.GetLeaderboard)

	// 🔐 Secured routes — require user context from the gateway
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/user/xp", xpService.GetUserXPStatsHandler)
	secured.Get("/user/xp/transactions", xpService.GetUserTransactionsHandler)
}
