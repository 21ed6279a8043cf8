package cloud

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

// Table names.
const (
	SensorsTable  = "CitySensors"
	ReadingsTable = "SensorReadings"
	AlertsTable   = "SensorAlerts"
)

// LoadConfig loads AWS configuration from the environment/credentials chain.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// DynamoAPI is the subset of the DynamoDB client used by DynamoDBStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoDBStore keeps sensors, readings and alerts in DynamoDB. Readings are
// keyed by sensorId with a millisecond timestamp sort key; those newer than
// now-horizon are the recent window.
type DynamoDBStore struct {
	svc     DynamoAPI
	horizon time.Duration
	now     func() time.Time
}

func NewDynamoDBStore(cfg aws.Config, horizon time.Duration) *DynamoDBStore {
	return newDynamoDBStore(dynamodb.NewFromConfig(cfg), horizon)
}

func newDynamoDBStore(svc DynamoAPI, horizon time.Duration) *DynamoDBStore {
	return &DynamoDBStore{svc: svc, horizon: horizon, now: time.Now}
}

type sensorItem struct {
	ID     string  `dynamodbav:"id"`
	Name   string  `dynamodbav:"name"`
	Type   string  `dynamodbav:"type"`
	Area   string  `dynamodbav:"area"`
	Lat    float64 `dynamodbav:"lat"`
	Lng    float64 `dynamodbav:"lng"`
	Status string  `dynamodbav:"status"`
}

func (s sensorItem) sensor() domain.Sensor {
	return domain.Sensor{
		ID: s.ID, Name: s.Name, Type: s.Type, Area: s.Area, Status: s.Status,
		Location: domain.LatLng{Lat: s.Lat, Lng: s.Lng},
	}
}

type readingItem struct {
	SensorID   string  `dynamodbav:"sensorId"`
	Timestamp  int64   `dynamodbav:"timestamp"`
	Value      float64 `dynamodbav:"value"`
	Unit       string  `dynamodbav:"unit"`
	SensorType string  `dynamodbav:"sensorType"`
	Location   string  `dynamodbav:"location"`
}

func (r readingItem) reading() domain.Reading {
	return domain.Reading{
		SensorID:   r.SensorID,
		Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
		Value:      r.Value,
		Unit:       r.Unit,
		SensorType: r.SensorType,
		Location:   r.Location,
	}
}

type alertItem struct {
	AlertID     string `dynamodbav:"alertId"`
	SensorID    string `dynamodbav:"sensorId"`
	SensorType  string `dynamodbav:"sensorType"`
	Severity    string `dynamodbav:"severity"`
	Timestamp   int64  `dynamodbav:"timestamp"`
	Description string `dynamodbav:"description"`
	Status      string `dynamodbav:"status"`
}

func (c *DynamoDBStore) ListSensors(ctx context.Context) ([]domain.Sensor, error) {
	var items []sensorItem
	p := dynamodb.NewScanPaginator(c.svc, &dynamodb.ScanInput{TableName: aws.String(SensorsTable)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensors: %w", err)
		}
		var batch []sensorItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sensors: %w", err)
		}
		items = append(items, batch...)
	}

	out := make([]domain.Sensor, len(items))
	for i, it := range items {
		out[i] = it.sensor()
	}
	slices.SortFunc(out, func(a, b domain.Sensor) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (c *DynamoDBStore) Sensor(ctx context.Context, id string) (domain.Sensor, error) {
	res, err := c.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(SensorsTable),
		Key:       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return domain.Sensor{}, fmt.Errorf("failed to get sensor: %w", err)
	}
	if len(res.Item) == 0 {
		return domain.Sensor{}, fmt.Errorf("sensor %s: %w", id, domain.ErrNotFound)
	}
	var it sensorItem
	if err := attributevalue.UnmarshalMap(res.Item, &it); err != nil {
		return domain.Sensor{}, fmt.Errorf("failed to unmarshal sensor: %w", err)
	}
	return it.sensor(), nil
}

func (c *DynamoDBStore) UpsertSensor(ctx context.Context, s domain.Sensor) error {
	item, err := attributevalue.MarshalMap(sensorItem{
		ID: s.ID, Name: s.Name, Type: s.Type, Area: s.Area, Status: s.Status,
		Lat: s.Location.Lat, Lng: s.Location.Lng,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sensor: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(SensorsTable), Item: item})
	if err != nil {
		return fmt.Errorf("failed to put sensor: %w", err)
	}
	return nil
}

func (c *DynamoDBStore) FetchRecent(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return c.window(ctx, sensorID, "#ts >= :cutoff", count)
}

func (c *DynamoDBStore) FetchHistorical(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return c.window(ctx, sensorID, "#ts < :cutoff", count)
}

// window pages through the readings newest first until count are collected
// and returns them oldest first.
func (c *DynamoDBStore) window(ctx context.Context, sensorID, cond string, count int) ([]domain.Reading, error) {
	if count <= 0 {
		return nil, nil
	}
	cutoff := c.now().Add(-c.horizon).UnixMilli()
	input := &dynamodb.QueryInput{
		TableName:              aws.String(ReadingsTable),
		KeyConditionExpression: aws.String("sensorId = :sid AND " + cond),
		ExpressionAttributeNames: map[string]string{
			"#ts": "timestamp",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid":    &types.AttributeValueMemberS{Value: sensorID},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(min(count, math.MaxInt32))),
	}

	var items []readingItem
	p := dynamodb.NewQueryPaginator(c.svc, input)
	for p.HasMorePages() && len(items) < count {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query readings: %w", err)
		}
		var batch []readingItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal readings: %w", err)
		}
		items = append(items, batch...)
	}
	if len(items) > count {
		items = items[:count]
	}

	out := make([]domain.Reading, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it.reading()
	}
	return out, nil
}

func (c *DynamoDBStore) InsertReading(ctx context.Context, r domain.Reading) error {
	item, err := attributevalue.MarshalMap(readingItem{
		SensorID:   r.SensorID,
		Timestamp:  r.Timestamp.UnixMilli(),
		Value:      r.Value,
		Unit:       r.Unit,
		SensorType: r.SensorType,
		Location:   r.Location,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(ReadingsTable), Item: item})
	if err != nil {
		return fmt.Errorf("failed to put reading: %w", err)
	}
	return nil
}

// ListAlerts scans the alerts table, newest first.
func (c *DynamoDBStore) ListAlerts(ctx context.Context, severity string) ([]domain.Alert, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(AlertsTable)}
	if severity != "" {
		input.FilterExpression = aws.String("severity = :sev")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":sev": &types.AttributeValueMemberS{Value: severity},
		}
	}

	out := []domain.Alert{}
	p := dynamodb.NewScanPaginator(c.svc, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alerts: %w", err)
		}
		var items []alertItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
		}
		for _, it := range items {
			out = append(out, domain.Alert{
				ID:          it.AlertID,
				SensorID:    it.SensorID,
				SensorType:  it.SensorType,
				Severity:    it.Severity,
				Timestamp:   time.UnixMilli(it.Timestamp).UTC(),
				Description: it.Description,
				Status:      it.Status,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Alert) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

func (c *DynamoDBStore) CreateAlert(ctx context.Context, a domain.Alert) error {
	item, err := attributevalue.MarshalMap(alertItem{
		AlertID:     a.ID,
		SensorID:    a.SensorID,
		SensorType:  a.SensorType,
		Severity:    a.Severity,
		Timestamp:   a.Timestamp.UnixMilli(),
		Description: a.Description,
		Status:      a.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(AlertsTable), Item: item})
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (c *DynamoDBStore) UpdateAlertStatus(ctx context.Context, id, status string) error {
	_, err := c.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(AlertsTable),
		Key: map[string]types.AttributeValue{
			"alertId": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(alertId)"),
		UpdateExpression:    aws.String("SET #st = :status, updatedAt = :time"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":time":   &types.AttributeValueMemberN{Value: strconv.FormatInt(c.now().Unix(), 10)},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}
