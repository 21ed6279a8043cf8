package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type S3Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores generated summaries as JSON documents.
type S3Archive struct {
	svc    S3Putter
	bucket string
	now    func() time.Time
}

func NewS3Archive(cfg aws.Config, bucket string) *S3Archive {
	return &S3Archive{svc: s3.NewFromConfig(cfg), bucket: bucket, now: time.Now}
}

type archivedSummary struct {
	Request     domain.SummaryRequest `json:"request"`
	Result      domain.SummaryResult  `json:"result"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

func (c *S3Archive) ArchiveSummary(ctx context.Context, req domain.SummaryRequest, res domain.SummaryResult) error {
	generated := c.now().UTC()
	data, err := json.Marshal(archivedSummary{Request: req, Result: res, GeneratedAt: generated})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	_, err = c.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(summaryKey(req, generated)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-at": generated.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// summaryKey lays reports out as summaries/<area>/<sensor-type>/<start>_<generated>.json.
func summaryKey(req domain.SummaryRequest, generated time.Time) string {
	area := slug(req.Area)
	if area == "" {
		area = "city"
	}
	return fmt.Sprintf("summaries/%s/%s/%s_%s.json", area, slug(req.SensorType),
		req.StartTime.UTC().Format("20060102T150405Z"), generated.Format("20060102T150405Z"))
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
