package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type SNSPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes anomaly alerts to an SNS topic.
type SNSNotifier struct {
	svc      SNSPublisher
	topicArn string
	log      zerolog.Logger
}

func NewSNSNotifier(cfg aws.Config, topicArn string, log zerolog.Logger) *SNSNotifier {
	return &SNSNotifier{svc: sns.NewFromConfig(cfg), topicArn: topicArn, log: log}
}

// SendAlert publishes one message. Without a topic it only logs.
func (c *SNSNotifier) SendAlert(ctx context.Context, subject, message string) error {
	if c.topicArn == "" {
		c.log.Debug().Str("subject", subject).Msg("SNS topic not configured, skipping notification")
		return nil
	}
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	c.log.Info().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// NotifyAnomalies sends a single digest covering every flagged reading.
func (c *SNSNotifier) NotifyAnomalies(ctx context.Context, sensor domain.Sensor, anomalies []domain.AnomalyResult) error {
	if len(anomalies) == 0 {
		return nil
	}
	return c.SendAlert(ctx, anomalySubject(sensor, len(anomalies)), anomalyMessage(sensor, anomalies))
}

// SNS subjects are limited to 100 characters.
const maxSubject = 100

func anomalySubject(sensor domain.Sensor, n int) string {
	subject := fmt.Sprintf("City Sensors: %d anomalies at %s", n, sensor.Name)
	if utf8.RuneCountInString(subject) > maxSubject {
		subject = string([]rune(subject)[:maxSubject])
	}
	return subject
}

func anomalyMessage(sensor domain.Sensor, anomalies []domain.AnomalyResult) string {
	unit := domain.ProfileFor(sensor.Type).Unit
	var b strings.Builder
	fmt.Fprintf(&b, "Anomaly Detection Alert\n\nSensor: %s (%s)\nType: %s\nArea: %s\n\n", sensor.Name, sensor.ID, sensor.Type, sensor.Area)
	for i, a := range anomalies {
		fmt.Fprintf(&b, "%d. %s  %.2f %s  score %.2f\n   %s\n", i+1, a.Timestamp.UTC().Format(time.RFC3339), a.Value, unit, a.AnomalyScore, a.Reason)
	}
	b.WriteString("\nPlease investigate.")
	return b.String()
}
