package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/cloud"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/config"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/database"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/repository"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/source"
)

type store interface {
	service.ReadingStore
	service.ReadingWriter
	seedTarget
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger := zerolog.New(os.Stderr).Level(config.LogLevel()).With().Timestamp().Str("cmd", "ingestor").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
		logger.Fatal().Str("store", config.ReadingStore()).Msg("ingestor needs READING_STORE=postgres or dynamodb")
	}

	sensors, alerts, err := seed(ctx, st, source.NewMock(config.MockSeed(), nil))
	if err != nil {
		logger.Fatal().Err(err).Msg("seed fleet failed")
	}
	logger.Info().Int("sensors", sensors).Int("alerts", alerts).Msg("fleet seeded")

	svcs := service.New(service.Options{Readings: st, Writer: st, Logger: logger})

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("city-sensor-ingestor").
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := svcs.Readings.FromMQTT(mctx, msg.Topic(), msg.Payload()); err != nil {
			logger.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
		}
	}

	topic := config.MQTTTopic()
	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		logger.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	logger.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("ingestor stopping")
}
