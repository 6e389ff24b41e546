package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"contest-platform/gateways"
	"contest-platform/handlers"
	"contest-platform/models"
	"contest-platform/services"
	"contest-platform/utils"
	"contest-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // entry videos
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Bookmark{},
		&models.DeletionRequest{},
		&models.Contest{},
		&models.Participation{},
		&models.Payment{},
		&models.ContestEntry{},
		&models.EntryImage{},
		&models.Vote{},
		&models.ContestWinner{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	otpStore, err := utils.NewOTPStore(redisURL)
	if err != nil {
		log.Fatal("failed to connect to redis:", err)
	}
	defer otpStore.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	var gateway gateways.Adapter
	switch strings.ToLower(os.Getenv("PAYMENT_GATEWAY")) {
	case "razorpay":
		gateway = gateways.NewRazorpayGateway()
	default:
		gateway = gateways.NewPhonePeGateway()
	}
	log.Printf("Payment gateway: %s", gateway.Name())

	authService := services.NewAuthService(db, otpStore, utils.NewSMSClient(), jwtSecret)
	contestService := services.NewContestService(db)
	participationService := services.NewParticipationService(db)
	paymentService := services.NewPaymentService(db, gateway)
	entryService := services.NewEntryService(db)
	voteService := services.NewVoteService(db)
	winnerService := services.NewWinnerService(db)
	userService := services.NewUserService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconcileWorker := workers.NewPaymentReconcileWorker(paymentService)
	reconcileWorker.Start(ctx)

	paymentService.StartExpiryScheduler()

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupContestRoutes(app, authService, contestService, participationService,
		entryService, voteService, winnerService, userService)
	handlers.SetupPaymentRoutes(app, authService, paymentService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
