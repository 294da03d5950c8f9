// Package reporter implements the HTTP client for the external learning
// analytics sink. After a learner's style is reclassified, the engine posts
// a style report to the sink. Delivery is best-effort: the dispatcher logs
// failures and moves on, so this client can afford a longer retry budget
// than the renderer.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
	"github.com/arlearn/arlearn-engine/pkg/circuitbreaker"
	"github.com/arlearn/arlearn-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the reporter client.
type ClientConfig struct {
	// BaseURL is the analytics sink base URL.
	BaseURL string

	// APIKey authenticates the engine against the sink (optional).
	APIKey string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrReportRejected is returned when the sink rejects the report as
	// malformed. Not retryable.
	ErrReportRejected = errors.New("reporter: report rejected")

	// ErrSinkUnavailable is returned when the sink is unreachable or
	// failing after the retry budget is spent.
	ErrSinkUnavailable = errors.New("reporter: sink unavailable")
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client posts style reports to the analytics sink over HTTP. Implements
// learner.StyleReportSink.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

// NewClient creates a new reporter client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	logger := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		breaker: circuitbreaker.ReporterBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		retrier: retry.ReporterRetrier(),
	}
}

// styleReportDTO is the wire shape of a style report.
type styleReportDTO struct {
	LearnerID       string         `json:"learner_id"`
	Name            string         `json:"name"`
	Engagement      map[string]int `json:"engagement"`
	TotalActivities int            `json:"total_activities"`
	AnalyzedStyle   string         `json:"analyzed_style"`
	ReportedAt      string         `json:"reported_at"`
}

// engagementMap flattens the engagement counters to the sink's wire shape.
func engagementMap(e learner.Engagement) map[string]int {
	return map[string]int{
		string(shared.StyleVisual):      e.Visual,
		string(shared.StyleAuditory):    e.Auditory,
		string(shared.StyleKinesthetic): e.Kinesthetic,
		string(shared.StyleReading):     e.Reading,
	}
}

// SendStyleReport delivers a style report to the sink.
func (c *Client) SendStyleReport(ctx context.Context, report learner.StyleReport) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSend(ctx, report)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			c.logger.Debug("style report short-circuited",
				"learner_id", string(report.LearnerID),
				"error", err,
			)
			return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
		}
		return err
	}

	return nil
}

// doSend performs a single report POST, classifying failures for the retry
// layer.
func (c *Client) doSend(ctx context.Context, report learner.StyleReport) error {
	body, err := json.Marshal(styleReportDTO{
		LearnerID:       string(report.LearnerID),
		Name:            report.Name,
		Engagement:      engagementMap(report.Engagement),
		TotalActivities: report.Engagement.TotalActivities,
		AnalyzedStyle:   string(report.AnalyzedStyle),
		ReportedAt:      report.ReportedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal style report: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/reports/learning-style", bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return retry.Retryable(fmt.Errorf("%w: %v", ErrSinkUnavailable, err))
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("%w: status %d", ErrSinkUnavailable, resp.StatusCode))
	default:
		return retry.Permanent(fmt.Errorf("%w: status %d", ErrReportRejected, resp.StatusCode))
	}
}

// IsHealthy checks if the sink is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}
