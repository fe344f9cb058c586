package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/igscheduler/configs"
	"github.com/maheshrc27/igscheduler/internal/api/handlers"
	"github.com/maheshrc27/igscheduler/internal/api/middleware"
	job "github.com/maheshrc27/igscheduler/internal/jobs"
	"github.com/maheshrc27/igscheduler/internal/queue"
	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is required")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	postRepo := repository.NewPostRepository(db)
	historyRepo := repository.NewPostingHistoryRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	graph := service.NewGraphClient(cfg.Publish.GraphBaseURL, cfg.Publish.HTTPTimeout)
	policy := service.RetryPolicy{
		MaxAttempts: cfg.Publish.PollAttempts,
		Delay:       cfg.Publish.PollInterval,
		Multiplier:  cfg.Publish.PollMultiplier,
	}
	if err := service.CheckClaimTimeout(cfg.Scheduler.ClaimTimeout, policy, cfg.Publish.HTTPTimeout); err != nil {
		log.Fatalf("Invalid CLAIM_TIMEOUT: %v", err)
	}
	publisher := service.NewInstagramPublisher(service.NewCredentialStore(*cfg, socialAccountRepo), graph, policy, cfg.Publish.QuotaCheck)

	postService := service.NewPostService(postRepo, historyRepo, socialAccountRepo, publisher)
	accountService := service.NewAccountService(*cfg, socialAccountRepo)

	var enqueuer queue.Enqueuer
	var asynqServer *asynq.Server
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client := asynq.NewClient(redisConn)
		defer client.Close()
		enqueuer = queue.NewClient(client)

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queue.NewQueue(postService).HandlePublishPostTask)

		go func() {
			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, enqueuer)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/:id/publish", post.PublishPost)

	account := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", account.ListAccounts)

	if cfg.R2.BucketName != "" {
		r2Service, err := service.NewR2Service(context.Background(), *cfg)
		if err != nil {
			log.Fatalf("Failed to configure media storage: %v", err)
		}
		media := handlers.NewMediaHandler(service.NewMediaService(r2Service))
		api.Post("/media", media.Upload)
	}

	// cron jobs
	publishJob := job.NewPublishJob(postRepo, postService, cfg.Scheduler.BatchSize)
	sweepJob := job.NewClaimSweepJob(postService, cfg.Scheduler.ClaimTimeout)

	c := cron.New()
	if err := c.AddFunc(cfg.Scheduler.Spec, publishJob.PublishDuePosts); err != nil {
		log.Fatalf("Invalid SCHEDULER_SPEC %q: %v", cfg.Scheduler.Spec, err)
	}
	if err := c.AddFunc(cfg.Scheduler.SweepSpec, sweepJob.Sweep); err != nil {
		log.Fatalf("Invalid SWEEP_SPEC %q: %v", cfg.Scheduler.SweepSpec, err)
	}
	c.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, c, asynqServer)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, asynqServer *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	if asynqServer != nil {
		asynqServer.Shutdown()
	}

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
