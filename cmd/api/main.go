package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/cloud"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/config"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/http"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/llm"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/repository"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/source"
)

type store interface {
	service.ReadingStore
	service.AlertStore
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger := zerolog.New(os.Stderr).Level(config.LogLevel()).With().Timestamp().Logger()
	ctx := context.Background()

	opts := service.Options{
		Logger:          logger,
		RecentCount:     config.RecentCount(),
		HistoricalCount: config.HistoricalCount(),
		MaxWindow:       config.MaxWindow(),
	}

	var st store
	switch config.ReadingStore() {
	case config.StorePostgres:
		db, err := database.Connect(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		repos := repository.New(db, config.RecentHorizon())
		if err := repos.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrate failed")
		}
		st = repos
	case config.StoreDynamoDB:
		cfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			logger.Fatal().Err(err).Msg("aws config failed")
		}
		st = cloud.NewDynamoDBStore(cfg, config.RecentHorizon())
	default:
		st = source.NewMock(config.MockSeed(), nil)
	}
	opts.Readings, opts.Alerts = st, st

	if config.Detector() == config.StrategyLLM || config.Summarizer() == config.StrategyLLM {
		client := llm.New(llm.Config{
			Endpoint: config.LLMEndpoint(),
			Model:    config.LLMModel(),
			APIKey:   config.LLMAPIKey(),
			Timeout:  config.LLMTimeout(),
		})
		if config.Detector() == config.StrategyLLM {
			opts.Detector = client
		}
		if config.Summarizer() == config.StrategyLLM {
			opts.Summarizer = client
		}
	}

	if config.UseCloudServices() || config.Detector() == config.StrategyLambda {
		cfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			logger.Fatal().Err(err).Msg("aws config failed")
		}
		if config.Detector() == config.StrategyLambda {
			opts.Detector = cloud.NewLambdaDetector(cfg, config.LambdaDetectorFunction())
		}
		if config.UseCloudServices() {
			opts.Notifier = cloud.NewSNSNotifier(cfg, config.SNSTopicArn(), logger)
			opts.Archive = cloud.NewS3Archive(cfg, config.S3Bucket())
		}
	}

	svcs := service.New(opts)
	app := fiber.New()
	app.Use(recover.New())
	app.Use(httpHandlers.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	httpHandlers.Register(app, svcs, httpHandlers.Defaults{
		RecentCount:     config.RecentCount(),
		HistoricalCount: config.HistoricalCount(),
		Threshold:       config.AnomalyThreshold(),
	})

	addr := config.APIAddr()
	logger.Info().
		Str("addr", addr).
		Str("store", config.ReadingStore()).
		Str("detector", config.Detector()).
		Str("summarizer", config.Summarizer()).
		Msg("api listening")
	logger.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
