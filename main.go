package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"photo-contest-system/handlers"
	"photo-contest-system/middleware"
	"photo-contest-system/models"
	"photo-contest-system/services"
	"photo-contest-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Contest{},
		&models.ContestPhoto{},
		&models.Vote{},
		&models.XPTransaction{},
		&models.ContestRewardRecord{},
		&models.ContestFinalization{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	xpService := services.NewXPService(db)
	voteService := services.NewVoteService(db, xpService)
	photoService := services.NewPhotoService(db, xpService)
	contestService := services.NewContestService(db)
	rewardService := services.NewRewardService(db)
	leaderboardService := services.NewLeaderboardService(db)

	pollSeconds := 30
	if raw := os.Getenv("FINALIZE_POLL_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pollSeconds = parsed
		} else {
			log.Printf("⚠️  Invalid FINALIZE_POLL_SECONDS %q, using default %ds", raw, pollSeconds)
		}
	}
	rewardService.StartFinalizeScheduler(time.Duration(pollSeconds) * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollAggregates(ctx, db, 1*time.Hour)

	handlers.SetupContestRoutes(app, contestService, voteService, photoService)
	handlers.SetupProgressionRoutes(app, xpService, leaderboardService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Contest finalize scheduler running (every %ds)", pollSeconds)
	log.Println("✅ Vote aggregate reconciliation running (hourly)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
