package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/sentiment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	predictPath     = "/api/predict"
	maxResponseSize = 64 << 10
	defaultTimeout  = 2 * time.Second
)

// SentimentClient calls the remote classification service.
// Every call is a single attempt bounded by the configured timeout.
type SentimentClient struct {
	client   *http.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	log      *logger.Logger
	latency  metric.Float64Histogram
}

// SentimentClientConfig configures a SentimentClient.
type SentimentClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// APIKey is sent as a bearer token when set.
	APIKey string
	// HTTPClient overrides the default client. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// NewSentimentClient validates the base URL and returns a ready client.
func NewSentimentClient(cfg SentimentClientConfig, log *logger.Logger) (*SentimentClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("sentiment service base URL is empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid sentiment service URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	httpClient.Timeout = timeout

	if log == nil {
		log = logger.GetGlobal()
	}

	latency, err := otel.Meter("chat-sentiment/backend/ai").Float64Histogram(
		"sentiment_remote_request_duration_seconds",
		metric.WithDescription("Latency of remote classifier calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	return &SentimentClient{
		client:   httpClient,
		endpoint: base + predictPath,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		log:      log.WithComponent("sentiment-client"),
		latency:  latency,
	}, nil
}

// Endpoint returns the full predict URL.
func (c *SentimentClient) Endpoint() string {
	return c.endpoint
}

// TryClassify returns the remote label, or ok=false on any failure.
func (c *SentimentClient) TryClassify(ctx context.Context, text string) (sentiment.Label, bool) {
	start := time.Now()
	label, err := c.predict(ctx, text)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))

	if err != nil {
		logger.FromContext(ctx, c.log).Warn("Remote sentiment request failed",
			"endpoint", c.endpoint,
			"error", err.Error(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", false
	}
	return label, true
}

func (c *SentimentClient) predict(ctx context.Context, text string) (sentiment.Label, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(PredictRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out PredictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	label, ok := sentiment.ParseLabel(out.Sentiment)
	if !ok {
		return "", fmt.Errorf("unknown sentiment %q", out.Sentiment)
	}

	if out.Confidence != nil {
		logger.FromContext(ctx, c.log).Debug("Remote sentiment received",
			"label", string(label),
			"confidence", *out.Confidence,
		)
	}
	return label, nil
}
