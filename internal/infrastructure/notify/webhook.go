// Package notify is the outbound HTTP client for the team-chat webhook
// (§6.4): a POST carrying {text, blocks?}, rich blocks for products that
// honour them and a plain-text fallback for those that don't. Failures
// are logged and swallowed - a missing or unreachable webhook degrades
// this feature, never the decision pipeline it reports on.
package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
	"github.com/riskibarqy/fantasy-league/internal/platform/resilience"
)

const defaultTimeout = 5 * time.Second

var ErrUnavailable = crerr.New("notify: webhook unavailable")

type ClientConfig struct {
	HTTPClient     *http.Client
	WebhookURL     string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client posts team-chat notifications to a single configured webhook
// URL.
type Client struct {
	httpClient *http.Client
	webhookURL string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	breakerOn  bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient.Timeout = timeout

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: httpClient,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		logger:     logger.With("component", "notify.Client"),
		breaker:    resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		breakerOn:  breakerCfg.Enabled,
	}
}

// Block is one entry of the target product's rich-message format. The
// schema is target-specific; callers populate whatever fields their
// webhook's product expects and Text carries the plain-text fallback.
type Block map[string]any

type webhookRequest struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Send posts text (and optional rich blocks) to the configured webhook.
// A missing URL is not an error - it is the documented degrade-to-
// disabled configuration state (§6.4/§7), so Send silently no-ops.
func (c *Client) Send(ctx context.Context, text string, blocks ...Block) error {
	if c.webhookURL == "" {
		return nil
	}

	if c.breakerOn {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "webhook circuit open, dropping notification", "error", err)
			return nil
		}
	}

	body, err := sonic.Marshal(webhookRequest{Text: text, Blocks: blocks})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode webhook payload", "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		c.logger.WarnContext(ctx, "failed to build webhook request", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		c.logger.WarnContext(ctx, "webhook request failed", "error", err)
		return nil
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure()
		c.logger.WarnContext(ctx, "webhook non-2xx response", "status", resp.StatusCode)
		return nil
	}

	c.recordSuccess()
	return nil
}

func (c *Client) recordFailure() {
	if c.breakerOn {
		c.breaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.breakerOn {
		c.breaker.RecordSuccess()
	}
}
