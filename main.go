package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"swimforge-engine/handlers"
	"swimforge-engine/middleware"
	"swimforge-engine/models"
	"swimforge-engine/services"
	"swimforge-engine/utils"
	"swimforge-engine/workers"

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

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // badge icons only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.SwimmingActivity{},
		&models.SwimmerProfile{},
		&models.BadgeDefinition{},
		&models.UserBadge{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	progressionService := services.NewProgressionService(db)
	badgeService := services.NewBadgeService(db, progressionService, nil)
	challengeService := services.NewChallengeService(db, badgeService, progressionService)
	skillService := services.NewSkillService(db, badgeService)

	if err := badgeService.SeedDefaultDefinitions(); err != nil {
		log.Fatal("failed to seed badge definitions:", err)
	}

	garminServiceURL := os.Getenv("GARMIN_SERVICE_URL")
	if garminServiceURL == "" {
		log.Fatal("GARMIN_SERVICE_URL environment variable not set")
	}
	engineServiceToken := os.Getenv("ENGINE_SERVICE_TOKEN")
	if engineServiceToken == "" {
		log.Fatal("ENGINE_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewGarminSyncWorker(db, progressionService, badgeService, garminServiceURL, engineServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Garmin Sync Worker...")
		syncWorker.Start(ctx)
	}()

	services.StartEngineScheduler(ctx, challengeService, skillService)

	handlers.SetupEngineRoutes(app, progressionService, badgeService, challengeService, skillService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Garmin Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
