// Package llm implements the anomaly detector and summarizer on top of an
// OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Client answers Detect and Summarize by prompting a chat model. Its output
// is only as trustworthy as the model; callers validate it.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectInput struct {
	SensorData       []domain.Reading
	HistoricalData   []domain.Reading
	AnomalyThreshold float64
}

func (c *Client) Detect(ctx context.Context, recent, historical []domain.Reading, threshold float64) ([]domain.AnomalyResult, error) {
	prompt, err := render(detectPrompt, detectInput{SensorData: recent, HistoricalData: historical, AnomalyThreshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("render detect prompt: %w", err)
	}
	content, err := c.complete(ctx, detectSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var out []domain.AnomalyResult
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		// Some models wrap the array in an object.
		var wrapped struct {
			Results []domain.AnomalyResult `json:"results"`
		}
		if werr := json.Unmarshal([]byte(content), &wrapped); werr != nil || wrapped.Results == nil {
			return nil, fmt.Errorf("decode detection response: %w", err)
		}
		out = wrapped.Results
	}
	return out, nil
}

type summaryInput struct {
	Request  domain.SummaryRequest
	Readings []domain.Reading
}

func (c *Client) Summarize(ctx context.Context, req domain.SummaryRequest, readings []domain.Reading) (domain.SummaryResult, error) {
	prompt, err := render(summaryPrompt, summaryInput{Request: req, Readings: readings})
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("render summary prompt: %w", err)
	}
	content, err := c.complete(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	var res domain.SummaryResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return domain.SummaryResult{}, fmt.Errorf("decode summary response: %w", err)
	}
	return domain.SummaryResult{Summary: strings.TrimSpace(res.Summary), Count: len(readings)}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one system+user exchange and returns the first choice with
// any markdown code fence removed.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", errors.New("llm client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", errors.New("llm client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": 0,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	return stripFence(parsed.Choices[0].Message.Content), nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
