package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/config"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/source"
)

const rounds = 100

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger := zerolog.New(os.Stderr).Level(config.LogLevel()).With().Timestamp().Str("cmd", "simulator").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("city-sensor-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	mock := source.NewMock(config.MockSeed(), nil)
	sensors, _ := mock.ListSensors(ctx)
	topic := config.MQTTTopic()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; i < rounds; i++ {
		for _, s := range sensors {
			readings, err := mock.FetchRecent(ctx, s.ID, 1)
			if err != nil || len(readings) == 0 {
				continue
			}
			payload, err := json.Marshal(service.ReadingMessage{
				SensorID:  s.ID,
				Timestamp: time.Now().UTC(),
				Value:     readings[0].Value,
			})
			if err != nil {
				logger.Error().Err(err).Msg("encode reading")
				continue
			}
			if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
				logger.Error().Err(token.Error()).Str("sensor", s.ID).Msg("publish failed")
			}
		}
		select {
		case <-ctx.Done():
			logger.Info().Int("rounds", i+1).Msg("simulation interrupted")
			return
		case <-ticker.C:
		}
	}
	logger.Info().Int("rounds", rounds).Int("sensors", len(sensors)).Msg("simulation done")
}
