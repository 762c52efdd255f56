package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	maxBodyBytes     = 64 << 10
)

// Client fetches quotes from a quotable-compatible endpoint.
type Client struct {
	http       *http.Client
	url        string
	maxRetries uint64
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewClient creates a Client. Each attempt is bounded by cfg.TimeoutSeconds
// and failed attempts are retried up to cfg.MaxRetries more times.
func NewClient(cfg config.QuoteConfig, logger *slog.Logger) *Client {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		http:       &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		url:        cfg.URL,
		maxRetries: uint64(retries),
		baseDelay:  defaultBaseDelay,
		logger:     logger.With("component", "quote_client"),
	}
}

type quotePayload struct {
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// FetchQuote returns a quote from the API. Errors wrap ErrBadUpstream,
// ErrUnavailable or ErrTimeout, or the context's error when ctx ends first.
func (c *Client) FetchQuote(ctx context.Context) (*domain.Quote, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithJitterPercent(10, retry.NewExponential(c.baseDelay)))

	var quote *domain.Quote
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c.logger.InfoContext(ctx, "fetching quote", "attempt", attempt, "max_attempts", c.maxRetries+1)

		q, err := c.fetchOnce(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, ErrBadUpstream) {
				c.logger.WarnContext(ctx, "quote fetch failed, will retry", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorContext(ctx, "quote fetch gave up", "attempts", attempt, "error", err)
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetched quote", "author", quote.Author)
	return quote, nil
}

func (c *Client) fetchOnce(ctx context.Context) (*domain.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrBadUpstream, resp.StatusCode)
	}

	var p quotePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadUpstream, err)
	}
	if p.Content == "" {
		return nil, fmt.Errorf("%w: missing required field 'content'", ErrBadUpstream)
	}
	if p.Author == "" {
		return nil, fmt.Errorf("%w: missing required field 'author'", ErrBadUpstream)
	}
	return domain.NewQuote(p.Content, p.Author, p.Tags, domain.QuoteSourceAPI), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
