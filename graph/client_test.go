package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client pointed at a test server, with sleeps
// recorded instead of slept so backoff tests run instantly.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var sleeps []time.Duration
	c := NewClient("test-access-token")
	c.SetBaseURL(server.URL)
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestDo_Success(t *testing.T) {
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1","subject":"hello"}`))
	}))

	var msg Message
	err := c.do(context.Background(), http.MethodGet, "/me/messages/msg-1", nil, nil, &msg)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "hello", msg.Subject)
	assert.Empty(t, *sleeps)
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var hits atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"msg-1"}`))
	}))

	var msg Message
	err := c.do(context.Background(), http.MethodGet, "/me/messages/msg-1", nil, nil, &msg)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
}

func TestDo_ServerErrorExhaustsRetries(t *testing.T) {
	var hits atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.do(context.Background(), http.MethodGet, "/me/messages", nil, nil, nil)
	require.Error(t, err)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindServerError, ge.Kind)
	assert.Equal(t, http.StatusInternalServerError, ge.StatusCode)

	// Initial attempt plus maxRetries retries, with doubling delays.
	assert.Equal(t, int64(MaxRetries+1), hits.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestDo_TokenExpiredNotRetried(t *testing.T) {
	var hits atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.do(context.Background(), http.MethodGet, "/me/messages", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
	assert.Equal(t, int64(1), hits.Load())
	assert.Empty(t, *sleeps)
}

func TestDo_RateLimitedNotRetried(t *testing.T) {
	var hits atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := c.do(context.Background(), http.MethodPost, "/me/sendMail", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 30*time.Second, ge.RetryAfter)
	assert.Equal(t, int64(1), hits.Load())
	assert.Empty(t, *sleeps)
}

func TestDo_RateLimitedDefaultRetryAfter(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := c.do(context.Background(), http.MethodGet, "/me/messages", nil, nil, nil)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, defaultRetryAfter, ge.RetryAfter)
}

func TestDo_ClientErrorParsesEnvelope(t *testing.T) {
	var hits atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"ErrorInvalidRecipients","message":"The recipient is invalid."}}`))
	}))

	err := c.do(context.Background(), http.MethodPost, "/me/sendMail", nil, nil, nil)
	require.Error(t, err)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindClientError, ge.Kind)
	assert.Equal(t, http.StatusBadRequest, ge.StatusCode)
	assert.Equal(t, "The recipient is invalid.", ge.Message)
	assert.Equal(t, int64(1), hits.Load())
	assert.Empty(t, *sleeps)
}

func TestDo_ClientErrorRawBodyFallback(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not json"))
	}))

	err := c.do(context.Background(), http.MethodGet, "/me/messages/x", nil, nil, nil)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "not json", ge.Message)
}

func TestDo_NetworkErrorExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	var sleeps []time.Duration
	c := NewClient("test-access-token")
	c.SetBaseURL(server.URL)
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	err := c.do(context.Background(), http.MethodGet, "/me/messages", nil, nil, nil)
	require.Error(t, err)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindNetworkError, ge.Kind)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, sleeps)
}

func TestDo_NoContent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var msg Message
	err := c.do(context.Background(), http.MethodPost, "/me/messages/x/send", nil, nil, &msg)
	require.NoError(t, err)
	assert.Empty(t, msg.ID)
}

func TestDo_EmptyBodySuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	var msg Message
	err := c.do(context.Background(), http.MethodPost, "/me/sendMail", nil, nil, &msg)
	require.NoError(t, err)
	assert.Empty(t, msg.ID)
}

func TestDo_MalformedSuccessBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))

	var msg Message
	err := c.do(context.Background(), http.MethodGet, "/me/messages/x", nil, nil, &msg)
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindClientError, ge.Kind)
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"empty header", "", defaultRetryAfter},
		{"seconds", "120", 120 * time.Second},
		{"zero", "0", 0},
		{"negative", "-5", defaultRetryAfter},
		{"http date ignored", "Wed, 21 Oct 2026 07:28:00 GMT", defaultRetryAfter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.header))
		})
	}
}
