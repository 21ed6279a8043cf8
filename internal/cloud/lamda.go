package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type LambdaInvoker interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaDetector delegates scoring to a deployed function. The function
// receives DetectionPayload and answers with a JSON array of results.
type LambdaDetector struct {
	svc      LambdaInvoker
	function string
}

func NewLambdaDetector(cfg aws.Config, function string) *LambdaDetector {
	return &LambdaDetector{svc: lambda.NewFromConfig(cfg), function: function}
}

type DetectionPayload struct {
	SensorData       []domain.Reading `json:"sensorData"`
	HistoricalData   []domain.Reading `json:"historicalData"`
	AnomalyThreshold float64          `json:"anomalyThreshold"`
}

func (c *LambdaDetector) Detect(ctx context.Context, recent, historical []domain.Reading, threshold float64) ([]domain.AnomalyResult, error) {
	payload, err := json.Marshal(DetectionPayload{SensorData: recent, HistoricalData: historical, AnomalyThreshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := c.svc.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.function),
		Payload:        payload,
		InvocationType: types.InvocationTypeRequestResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Lambda: %w", err)
	}
	if result.FunctionError != nil {
		return nil, fmt.Errorf("lambda function error: %s", aws.ToString(result.FunctionError))
	}

	var out []domain.AnomalyResult
	if err := json.Unmarshal(result.Payload, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return out, nil
}
