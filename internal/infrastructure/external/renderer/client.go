// Package renderer implements the HTTP client for the external certificate
// document renderer. The renderer turns a learner name, course title, and
// completion date into a durable certificate document and hands back a
// stable locator. Calls are bounded by a circuit breaker and a short retry
// budget because rendering sits on the completion request path.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/certificate"
	"github.com/arlearn/arlearn-engine/pkg/circuitbreaker"
	"github.com/arlearn/arlearn-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the renderer client.
type ClientConfig struct {
	// BaseURL is the renderer service base URL.
	BaseURL string

	// APIKey authenticates the engine against the renderer (optional).
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
		Timeout: 5 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRenderRejected is returned when the renderer rejects the request
	// as malformed. Not retryable.
	ErrRenderRejected = errors.New("renderer: request rejected")

	// ErrRenderUnavailable is returned when the renderer is unreachable or
	// failing. The caller degrades to a completion response without a
	// certificate.
	ErrRenderUnavailable = errors.New("renderer: service unavailable")

	// ErrEmptyLocator is returned when the renderer responds OK but without
	// a document locator.
	ErrEmptyLocator = errors.New("renderer: empty locator in response")
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls the certificate renderer over HTTP. Implements
// certificate.Renderer.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

// NewClient creates a new renderer client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	logger := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		breaker: circuitbreaker.RendererBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		retrier: retry.RendererRetrier(),
	}
}

// renderRequestDTO is the wire shape of a render call.
type renderRequestDTO struct {
	StudentName string `json:"student_name"`
	CourseTitle string `json:"course_title"`
	Date        string `json:"date"`
}

// renderResponseDTO is the wire shape of a successful render response.
type renderResponseDTO struct {
	Locator string `json:"locator"`
}

// Render produces a certificate document and returns its locator.
func (c *Client) Render(ctx context.Context, req certificate.RenderRequest) (string, error) {
	var locator string

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			loc, err := c.doRender(ctx, req)
			if err != nil {
				return err
			}
			locator = loc
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			c.logger.Warn("render call short-circuited", "error", err)
			return "", fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
		}
		return "", err
	}

	return locator, nil
}

// doRender performs a single render request, classifying failures for the
// retry layer.
func (c *Client) doRender(ctx context.Context, req certificate.RenderRequest) (string, error) {
	body, err := json.Marshal(renderRequestDTO{
		StudentName: req.StudentName,
		CourseTitle: req.CourseTitle,
		Date:        req.Date.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal render request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/certificates/render", bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("%w: %v", ErrRenderUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var dto renderResponseDTO
		if err := json.Unmarshal(respBody, &dto); err != nil {
			return "", retry.Permanent(fmt.Errorf("parse render response: %w", err))
		}
		if strings.TrimSpace(dto.Locator) == "" {
			return "", retry.Permanent(ErrEmptyLocator)
		}
		return dto.Locator, nil

	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", retry.Retryable(fmt.Errorf("%w: status %d", ErrRenderUnavailable, resp.StatusCode))

	default:
		return "", retry.Permanent(fmt.Errorf("%w: status %d: %s", ErrRenderRejected, resp.StatusCode, truncate(respBody, 200)))
	}
}

// IsHealthy checks if the renderer is reachable.
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

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
