package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

var now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeDynamo struct {
	DynamoAPI
	queryIn    *dynamodb.QueryInput
	queryOut   []map[string]types.AttributeValue
	queryPages [][]map[string]types.AttributeValue
	queries    int
	updateIn *dynamodb.UpdateItemInput
	updErr   error
	getOut   map[string]types.AttributeValue
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryIn = in
	f.queries++
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{Items: f.queryOut}, nil
	}
	out := &dynamodb.QueryOutput{Items: f.queryPages[f.queries-1]}
	if f.queries < len(f.queryPages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"page": &types.AttributeValueMemberN{Value: strconv.Itoa(f.queries)}}
	}
	return out, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	return &dynamodb.UpdateItemOutput{}, f.updErr
}

func (f *fakeDynamo) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.getOut}, nil
}

// readingItems marshals readings one minute apart, newest first.
func readingItems(t *testing.T, values ...float64) []map[string]types.AttributeValue {
	t.Helper()
	var items []map[string]types.AttributeValue
	for i, v := range values {
		item, err := attributevalue.MarshalMap(readingItem{
			SensorID:   "sensor-002",
			Timestamp:  now.Add(-time.Duration(i) * time.Minute).UnixMilli(),
			Value:      v,
			SensorType: domain.SensorTraffic,
			Location:   "Traffic Sensor #2",
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		items = append(items, item)
	}
	return items
}

func TestDynamoDBStore_FetchRecent(t *testing.T) {
	t.Parallel()

	fake := &fakeDynamo{queryOut: readingItems(t, 3, 2, 1)}
	store := newDynamoDBStore(fake, time.Hour)
	store.now = func() time.Time { return now }

	got, err := store.FetchRecent(context.Background(), "sensor-002", 3)
	if err != nil {
		t.Fatalf("FetchRecent failed: %v", err)
	}
	if len(got) != 3 || got[0].Value != 1 || got[2].Value != 3 {
		t.Fatalf("expected oldest-first readings, got %+v", got)
	}
	if !got[2].Timestamp.Equal(now) {
		t.Fatalf("expected last reading at %v, got %v", now, got[2].Timestamp)
	}

	in := fake.queryIn
	if !strings.Contains(aws.ToString(in.KeyConditionExpression), "#ts >= :cutoff") {
		t.Fatalf("unexpected key condition %q", aws.ToString(in.KeyConditionExpression))
	}
	if aws.ToBool(in.ScanIndexForward) || aws.ToInt32(in.Limit) != 3 {
		t.Fatalf("expected descending query limited to 3")
	}
	cutoff := in.ExpressionAttributeValues[":cutoff"].(*types.AttributeValueMemberN).Value
	if want := now.Add(-time.Hour).UnixMilli(); cutoff != strconv.FormatInt(want, 10) {
		t.Fatalf("expected cutoff %d, got %s", want, cutoff)
	}
}

func TestDynamoDBStore_FetchFollowsPages(t *testing.T) {
	t.Parallel()

	items := readingItems(t, 5, 4, 3, 2, 1)
	fake := &fakeDynamo{queryPages: [][]map[string]types.AttributeValue{items[:2], items[2:4], items[4:]}}
	store := newDynamoDBStore(fake, time.Hour)
	store.now = func() time.Time { return now }

	got, err := store.FetchHistorical(context.Background(), "sensor-002", 3)
	if err != nil {
		t.Fatalf("FetchHistorical failed: %v", err)
	}
	if fake.queries != 2 {
		t.Fatalf("expected paging to stop after 2 queries, got %d", fake.queries)
	}
	if len(got) != 3 || got[0].Value != 3 || got[2].Value != 5 {
		t.Fatalf("expected the 3 newest readings oldest first, got %+v", got)
	}
	if fake.queryIn.ExclusiveStartKey == nil {
		t.Fatal("expected second page to start after the first page's last key")
	}
}

func TestDynamoDBStore_SensorNotFound(t *testing.T) {
	t.Parallel()

	store := newDynamoDBStore(&fakeDynamo{}, time.Hour)
	if _, err := store.Sensor(context.Background(), "sensor-404"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDynamoDBStore_UpdateAlertStatus(t *testing.T) {
	t.Parallel()

	fake := &fakeDynamo{}
	store := newDynamoDBStore(fake, time.Hour)
	if err := store.UpdateAlertStatus(context.Background(), "a-1", domain.AlertAcknowledged); err != nil {
		t.Fatalf("UpdateAlertStatus failed: %v", err)
	}
	if v := fake.updateIn.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS).Value; v != domain.AlertAcknowledged {
		t.Fatalf("expected status %s, got %s", domain.AlertAcknowledged, v)
	}

	fake.updErr = &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	if err := store.UpdateAlertStatus(context.Background(), "a-2", domain.AlertResolved); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type fakeSNS struct{ in []*sns.PublishInput }

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = append(f.in, in)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSNotifier(t *testing.T) {
	t.Parallel()

	fake := &fakeSNS{}
	n := &SNSNotifier{svc: fake, topicArn: "arn:aws:sns:us-east-1:123:city", log: zerolog.Nop()}
	sensor := domain.Sensor{ID: "sensor-001", Name: "Air Quality Sensor #1", Type: domain.SensorAirQuality, Area: "Downtown"}
	anomalies := []domain.AnomalyResult{{Timestamp: now, Value: 142, AnomalyScore: 4.2, IsAnomalous: true, Reason: "spike"}}

	if err := n.NotifyAnomalies(context.Background(), sensor, anomalies); err != nil {
		t.Fatalf("NotifyAnomalies failed: %v", err)
	}
	if len(fake.in) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fake.in))
	}
	msg := aws.ToString(fake.in[0].Message)
	for _, want := range []string{"sensor-001", "Downtown", "142.00 AQI", "score 4.20", "spike"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	if err := n.NotifyAnomalies(context.Background(), sensor, nil); err != nil || len(fake.in) != 1 {
		t.Fatalf("expected no publish for empty anomalies")
	}

	silent := &SNSNotifier{svc: fake, log: zerolog.Nop()}
	if err := silent.NotifyAnomalies(context.Background(), sensor, anomalies); err != nil || len(fake.in) != 1 {
		t.Fatalf("expected no publish without topic")
	}
}

func TestAnomalySubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, sensor string
	}{
		{"ascii", strings.Repeat("x", 200)},
		{"multibyte", strings.Repeat("é", 120)},
		{"mixed", "Plaça " + strings.Repeat("日本", 60)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := anomalySubject(domain.Sensor{Name: tt.sensor}, 3)
			if !utf8.ValidString(got) {
				t.Fatalf("subject is not valid UTF-8: %q", got)
			}
			if n := utf8.RuneCountInString(got); n != maxSubject {
				t.Fatalf("expected %d characters, got %d", maxSubject, n)
			}
			if !strings.HasPrefix(got, "City Sensors: 3 anomalies at ") {
				t.Fatalf("unexpected subject %q", got)
			}
		})
	}

	if got := anomalySubject(domain.Sensor{Name: "Noise Level Sensor #3"}, 1); got != "City Sensors: 1 anomalies at Noise Level Sensor #3" {
		t.Fatalf("short subject changed: %q", got)
	}
}

type fakeS3 struct{ in *s3.PutObjectInput }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archive(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	a := &S3Archive{svc: fake, bucket: "reports", now: func() time.Time { return now }}
	req := domain.SummaryRequest{Area: "Fisherman's Wharf", SensorType: domain.SensorPublicTransport, StartTime: now.Add(-24 * time.Hour), EndTime: now}

	if err := a.ArchiveSummary(context.Background(), req, domain.SummaryResult{Summary: "ok", Trend: "stable"}); err != nil {
		t.Fatalf("ArchiveSummary failed: %v", err)
	}
	want := "summaries/fisherman-s-wharf/public-transport/20260531T080000Z_20260601T080000Z.json"
	if got := aws.ToString(fake.in.Key); got != want {
		t.Fatalf("expected key %s, got %s", want, got)
	}
	if aws.ToString(fake.in.Bucket) != "reports" {
		t.Fatalf("unexpected bucket %s", aws.ToString(fake.in.Bucket))
	}
}

type fakeLambda struct {
	in  *lambda.InvokeInput
	out *lambda.InvokeOutput
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.in = in
	return f.out, nil
}

func TestLambdaDetector(t *testing.T) {
	t.Parallel()

	recent := []domain.Reading{{Timestamp: now, Value: 90, SensorType: domain.SensorNoiseLevel, Location: "N"}}
	body, _ := json.Marshal([]domain.AnomalyResult{{Timestamp: now, Value: 90, SensorType: domain.SensorNoiseLevel, Location: "N", IsAnomalous: true, AnomalyScore: 3.1, Reason: "loud"}})
	fake := &fakeLambda{out: &lambda.InvokeOutput{Payload: body}}
	d := &LambdaDetector{svc: fake, function: "anomaly-detection"}

	got, err := d.Detect(context.Background(), recent, recent, 2.5)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 || !got[0].IsAnomalous || got[0].AnomalyScore != 3.1 {
		t.Fatalf("unexpected results %+v", got)
	}
	var sent DetectionPayload
	if err := json.Unmarshal(fake.in.Payload, &sent); err != nil || sent.AnomalyThreshold != 2.5 || len(sent.SensorData) != 1 {
		t.Fatalf("unexpected payload %s (%v)", fake.in.Payload, err)
	}

	fake.out = &lambda.InvokeOutput{FunctionError: aws.String("Unhandled")}
	if _, err := d.Detect(context.Background(), recent, recent, 2.5); err == nil {
		t.Fatal("expected function error")
	}
}
