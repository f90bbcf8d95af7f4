package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"tekken-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

const userAgent = "Mozilla/5.0 (compatible; tekken-tracker)"

// Client fetches profile pages. Requests are paced per host so a full poll cycle never bursts
// more than a handful of requests at one site.
type Client struct {
	client *fasthttp.Client
	logger zerolog.Logger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	limit      rate.Limit
	burst      int
}

func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
			// profile pages carry large inline scripts
			ReadBufferSize: 64 * 1024,
		},
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(constants.SourceRequestsPerSecond),
		burst:    constants.SourceBurst,
	}
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[host] = l
	}
	return l
}

// FetchPage GETs rawURL and returns the body. Without a deadline on ctx the request is bounded by
// constants.ExternalAPITimeout.
func (c *Client) FetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
	}

	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	return doRequest(ctx, c, rawURL)
}

func doRequest(ctx context.Context, client *Client, rawURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
		}
	}

	client.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode()).
		Int("bytes", len(resp.Body())).
		Dur("took", time.Since(start)).
		Msg("page fetched")

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode(), rawURL)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("failed to decode body from %s: %w", rawURL, err)
	}
	// resp is released on return
	return append([]byte(nil), body...), nil
}
