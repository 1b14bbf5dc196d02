// Package llm is the outbound HTTP client for the natural-language
// announcement endpoint the decision coordinator calls in §4.12 step 7.
// The endpoint itself is opaque: the client only owns the wire call, the
// coordinator owns prompt construction and the fixed-template fallback.
package llm

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

// defaultTimeout matches the 30 s hard timeout §5 sets for upstream HTTP
// calls.
const defaultTimeout = 30 * time.Second

// ErrUnavailable wraps non-2xx responses and transport failures, the
// transient error family of §7.
var ErrUnavailable = crerr.New("llm: announcement endpoint unavailable")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client calls a text-generation endpoint to turn a structured prompt
// into a natural-language announcement.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		logger:     logger.With("component", "llm.Client"),
		breaker:    resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		breakerOn:  breakerCfg.Enabled,
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// maxAnnouncementTokens bounds the reply to a few sentences, matching
// the template fallback's length.
const maxAnnouncementTokens = 220

// announcementTemperature favors a consistent, factual tone over
// creative variation for a weekly status update.
const announcementTemperature = 0.4

// Generate sends prompt to the text endpoint and returns its reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.baseURL == "" {
		return "", crerr.Wrap(ErrUnavailable, "no base url configured")
	}

	if c.breakerOn {
		if err := c.breaker.Allow(); err != nil {
			return "", crerr.Wrapf(ErrUnavailable, "circuit open: %v", err)
		}
	}

	body, err := sonic.Marshal(generateRequest{
		Prompt:      prompt,
		MaxTokens:   maxAnnouncementTokens,
		Temperature: announcementTemperature,
	})
	if err != nil {
		return "", crerr.Wrap(err, "encode announcement request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", crerr.Wrap(err, "build announcement request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		c.logger.WarnContext(ctx, "announcement endpoint request failed", "error", err)
		return "", crerr.Wrapf(ErrUnavailable, "%v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return "", crerr.Wrap(err, "read announcement response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure()
		c.logger.WarnContext(ctx, "announcement endpoint non-2xx", "status", resp.StatusCode)
		return "", crerr.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		c.recordFailure()
		return "", crerr.Wrap(err, "decode announcement response")
	}

	c.recordSuccess()
	return strings.TrimSpace(out.Text), nil
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
