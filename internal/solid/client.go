// Package solid talks HTTP to Solid pods: it fetches and parses RDF
// resources, lists containers, reads WebID profiles, deletes resources
// and delivers notifications to LDN inboxes.
//
// Every request goes through a rate limiter and a circuit breaker shared by
// the Client, so a Client is meant to be created once and reused.
package solid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/parsers"
)

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 512

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	// HTTPClient is the underlying client. Default: a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil.
	// Default: 30 seconds
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string

	// RateLimit is the sustained number of requests per second. Zero means
	// unlimited.
	RateLimit float64

	// Burst is the number of requests allowed at once.
	// Default: 10
	Burst int

	// Breaker configures the circuit breaker.
	Breaker BreakerConfig

	// Logger receives request logs. Default: no logging.
	Logger *zap.Logger
}

// Client is a Solid HTTP client. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	registry  *parsers.Registry
	limiter   *rate.Limiter
	breaker   *breaker
	logger    *zap.Logger
	userAgent string
	authToken string
}

// NewClient creates a client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	burst := opts.Burst
	if burst <= 0 {
		burst = 10
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		http:      httpClient,
		registry:  parsers.NewDefaultRegistry(httpClient),
		limiter:   rate.NewLimiter(limit, burst),
		breaker:   newBreaker("solid", opts.Breaker, logger),
		logger:    logger,
		userAgent: opts.UserAgent,
		authToken: opts.AuthToken,
	}
}

// BreakerState returns the state of the client's circuit breaker.
func (c *Client) BreakerState() string {
	return c.breaker.state()
}

// Fetch retrieves url and parses it as RDF. The final URL after redirects
// is the base for relative IRIs.
func (c *Client) Fetch(ctx context.Context, url string) (*graph.Graph, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", c.registry.Accept())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	base := url
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}

	g, err := c.registry.Parse(resp.Header.Get("Content-Type"), base, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	c.logger.Debug("fetched resource",
		zap.String("url", url),
		zap.Int("subjects", g.SubjectCount()),
		zap.Int("triples", g.TripleCount()),
	)
	return g, nil
}

// Delete removes the resource at url.
func (c *Client) Delete(ctx context.Context, url string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	drain(resp)

	c.logger.Info("deleted resource", zap.String("url", url))
	return nil
}

// DeliveryResult reports the outcome of posting a notification.
type DeliveryResult struct {
	// StatusCode is the HTTP status returned by the inbox.
	StatusCode int

	// Location is the URL of the created notification, when the inbox
	// reported one.
	Location string

	// Delivered is true for any 2xx status.
	Delivered bool
}

// Deliver posts doc to inbox as application/ld+json. A non-2xx response is
// reported through the result, not as an error; errors are reserved for
// requests that never got a response. Deliveries are not retried.
func (c *Client) Deliver(ctx context.Context, inbox string, doc *jsonld.Object) (*DeliveryResult, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding notification: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, inbox, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", parsers.MediaTypeJSONLD)

	resp, err := c.do(req)
	if err != nil {
		if se, ok := asStatusError(err); ok {
			c.logger.Warn("notification rejected",
				zap.String("inbox", inbox),
				zap.Int("status", se.StatusCode),
			)
			return &DeliveryResult{StatusCode: se.StatusCode}, nil
		}
		return nil, err
	}
	drain(resp)

	result := &DeliveryResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
		Delivered:  true,
	}
	c.logger.Info("notification delivered",
		zap.String("inbox", inbox),
		zap.Int("status", result.StatusCode),
		zap.String("location", result.Location),
	)
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request for %s: %w", method, url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// do sends req once the rate limiter allows it. It returns the response
// only for 2xx statuses; anything else becomes a *StatusError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.breaker.execute(ctx, func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode/100 != 2 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &StatusError{
				Method:     req.Method,
				URL:        req.URL.String(),
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(body),
			}
		}
		return resp, nil
	})

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Debug("request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("request done", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
