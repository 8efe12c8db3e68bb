package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/domain/fiber/handler"
	"github.com/prepwise/interview-coach/internal/middleware"
	"github.com/prepwise/interview-coach/internal/service"
	"github.com/prepwise/interview-coach/internal/store"
	"github.com/prepwise/interview-coach/internal/usecase"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	initLogger(appConfig)

	interviewConfig, err := config.LoadInterview(appConfig.InterviewConfigPath)
	if err != nil {
		slog.Error("failed to load interview config", "path", appConfig.InterviewConfigPath, "error", err)
		os.Exit(1)
	}

	llm, err := newCompletionService(ctx)
	if err != nil {
		slog.Error("failed to initialize completion provider", "error", err)
		os.Exit(1)
	}

	sessionStore, err := newSessionStore()
	if err != nil {
		slog.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer sessionStore.Close()

	uc := usecase.NewInterviewUsecase(interviewConfig, llm, sessionStore)

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(120, 1*time.Minute))

	handler.NewInterviewHandler(uc).RegisterRoutes(app)

	// Stop live sessions on shutdown so in-progress interviews still get
	// a persisted result.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		uc.Shutdown(shutdownCtx)
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	slog.Info("server running", "port", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func initLogger(appConfig *config.AppConfig) {
	level := slog.LevelDebug
	if appConfig.IsProduction() {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func newCompletionService(ctx context.Context) (service.CompletionService, error) {
	cfg := config.LoadLLMConfig()
	switch cfg.Provider {
	case "gemini":
		return service.NewGeminiService(ctx)
	case "openrouter":
		return service.NewOpenRouterService(), nil
	default:
		return nil, errors.New("LLM_PROVIDER must be gemini or openrouter")
	}
}

func newSessionStore() (store.Store, error) {
	cfg := config.LoadStoreConfig()
	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		return store.NewRedisStore(client, time.Duration(cfg.SessionTTLMin)*time.Minute), nil
	default:
		return nil, errors.New("SESSION_STORE must be memory or redis")
	}
}
