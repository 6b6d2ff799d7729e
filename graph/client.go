package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pepperhq/outlook-agent/instrumentation"
)

const (
	// BaseURL is the fixed Microsoft Graph v1.0 base URL.
	BaseURL = "https://graph.microsoft.com/v1.0"

	// MaxRetries is the number of retries after the initial attempt for
	// retryable failures (5xx and transport errors).
	MaxRetries = 3

	// InitialRetryDelay is the backoff delay before the first retry; each
	// subsequent retry doubles it.
	InitialRetryDelay = time.Second

	// defaultRetryAfter is assumed when a 429 response carries no usable
	// Retry-After header.
	defaultRetryAfter = 60 * time.Second

	graphHTTPTimeout = 30 * time.Second
	graphMaxConns    = 100
)

// Client issues Outlook operations against Microsoft Graph on behalf of one
// user. It is bound to a single access token; obtain a new Client after a
// token refresh.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger

	maxRetries int
	retryDelay time.Duration

	// sleep is replaceable so retry tests can record delays instead of
	// actually waiting through the backoff schedule.
	sleep func(time.Duration)

	inst   *instrumentation.Instrumentation
	tracer trace.Tracer
}

// NewClient creates a Graph client for the given access token.
func NewClient(accessToken string) *Client {
	rest := resty.NewWithClient(&http.Client{
		Timeout: graphHTTPTimeout,
		Transport: &http.Transport{
			MaxConnsPerHost:     graphMaxConns,
			MaxIdleConnsPerHost: graphMaxConns,
		},
	}).
		SetBaseURL(BaseURL).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		rest:       rest,
		logger:     slog.Default(),
		maxRetries: MaxRetries,
		retryDelay: InitialRetryDelay,
		sleep:      time.Sleep,
	}
}

// SetLogger sets a custom logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetBaseURL points the client at a different Graph base URL.
// Used to target test servers.
func (c *Client) SetBaseURL(baseURL string) {
	c.rest.SetBaseURL(baseURL)
}

// SetRetryPolicy overrides the retry count and initial backoff delay.
func (c *Client) SetRetryPolicy(maxRetries int, initialDelay time.Duration) {
	c.maxRetries = maxRetries
	c.retryDelay = initialDelay
}

// SetInstrumentation enables OpenTelemetry tracing and metrics for Graph
// requests.
func (c *Client) SetInstrumentation(inst *instrumentation.Instrumentation) {
	c.inst = inst
	if inst != nil {
		c.tracer = inst.Tracer("graph")
	}
}

// do issues one logical Graph operation with bounded exponential-backoff
// retry. 5xx responses and transport failures are retried up to maxRetries
// times with delays retryDelay, 2*retryDelay, 4*retryDelay, ...; all other
// failures return immediately. On 2xx the body, if any, is decoded into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, query url.Values, out interface{}) error {
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "graph."+method+" "+path)
		defer span.End()
	}

	start := time.Now()
	attempts := 0
	err := c.doWithRetry(ctx, method, path, body, query, out, &attempts)

	if c.inst != nil {
		status := 0
		var ge *Error
		if err == nil {
			status = http.StatusOK
		} else if errors.As(err, &ge) {
			status = ge.StatusCode
		}
		c.inst.Metrics().RecordGraphRequest(ctx, method, path, status, attempts,
			float64(time.Since(start).Milliseconds()))
	}
	if span != nil {
		span.SetAttributes(attribute.Int("graph.attempts", attempts))
		instrumentation.RecordError(span, err)
	}
	return err
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body interface{}, query url.Values, out interface{}, attempts *int) error {
	var lastErr *Error

	for attempt := 0; ; attempt++ {
		*attempts = attempt + 1

		c.logger.Info("Graph request",
			"method", method,
			"path", path,
			"attempt", attempt+1)

		req := c.rest.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			// Transport failure: timeout or connectivity. Retryable.
			lastErr = &Error{
				Kind:    KindNetworkError,
				Message: fmt.Sprintf("network error after %d attempts: %v", attempt+1, err),
			}
		} else {
			done, opErr := c.classify(resp, out, attempt)
			if done {
				return opErr
			}
			lastErr = opErr.(*Error)
		}

		if attempt >= c.maxRetries {
			return lastErr
		}

		delay := c.retryDelay << attempt
		c.logger.Warn("Graph request failed, retrying",
			"method", method,
			"path", path,
			"kind", string(lastErr.Kind),
			"delay", delay,
			"attempt", attempt+1,
			"max_retries", c.maxRetries)
		c.sleep(delay)
	}
}

// classify turns a completed HTTP exchange into a result. done=false means
// the failure is retryable and opErr holds the error to report if retries
// run out.
func (c *Client) classify(resp *resty.Response, out interface{}, attempt int) (done bool, opErr error) {
	status := resp.StatusCode()

	switch {
	case status == http.StatusUnauthorized:
		return true, &Error{
			Kind:       KindTokenExpired,
			StatusCode: status,
			Message:    "access token expired or invalid",
		}

	case status == http.StatusTooManyRequests:
		return true, &Error{
			Kind:       KindRateLimited,
			StatusCode: status,
			Message:    "rate limit exceeded",
			RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After")),
		}

	case status >= 500:
		return false, &Error{
			Kind:       KindServerError,
			StatusCode: status,
			Message:    fmt.Sprintf("server error %d after %d attempts: %s", status, attempt+1, resp.String()),
		}

	case status >= 400:
		return true, &Error{
			Kind:       KindClientError,
			StatusCode: status,
			Message:    extractErrorMessage(resp.Body()),
		}
	}

	// Success. 204 and empty bodies yield the zero result.
	if status == http.StatusNoContent || len(resp.Body()) == 0 || out == nil {
		return true, nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return true, &Error{
			Kind:       KindClientError,
			StatusCode: status,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return true, nil
}

// extractErrorMessage pulls the message out of Graph's error envelope,
// falling back to the raw body when it doesn't parse.
func extractErrorMessage(body []byte) string {
	var envelope graphError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.E.Message != "" {
		return envelope.E.Message
	}
	return string(body)
}

// parseRetryAfter interprets a Retry-After header carrying delay seconds.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
