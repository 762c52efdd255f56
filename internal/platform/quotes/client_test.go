package quotes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int, timeout time.Duration) *Client {
	c := NewClient(config.QuoteConfig{URL: url, TimeoutSeconds: 1, MaxRetries: retries},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseDelay = time.Millisecond
	c.http.Timeout = timeout
	return c
}

// scripted replies with the given status codes in order, then 200s.
func scripted(t *testing.T, calls *atomic.Int32, statuses ...int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n < len(statuses) {
			w.WriteHeader(statuses[n])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":"Stay hungry.","author":"Someone","tags":["drive"]}`)
	}))
}

func TestFetchQuote_Success(t *testing.T) {
	var calls atomic.Int32
	srv := scripted(t, &calls)
	defer srv.Close()

	q, err := newTestClient(srv.URL, 3, time.Second).FetchQuote(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Stay hungry.", q.Content)
	assert.Equal(t, "Someone", q.Author)
	assert.Equal(t, []string{"drive"}, q.Tags)
	assert.Equal(t, 12, q.Length)
	assert.Equal(t, domain.QuoteSourceAPI, q.Source)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchQuote_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := scripted(t, &calls, http.StatusTooManyRequests, http.StatusServiceUnavailable)
	defer srv.Close()

	q, err := newTestClient(srv.URL, 3, time.Second).FetchQuote(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Stay hungry.", q.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchQuote_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := scripted(t, &calls, 503, 503, 503, 503, 503)
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2, time.Second).FetchQuote(context.Background())

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchQuote_BadResponsesAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"client error status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"missing author", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"content":"x"}`)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, 3, time.Second).FetchQuote(context.Background())

			assert.ErrorIs(t, err, ErrBadUpstream)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetchQuote_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv.URL, 1, 20*time.Millisecond).FetchQuote(context.Background())

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFetchQuote_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 1, time.Second).FetchQuote(context.Background())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchQuote_ContextCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := scripted(t, &calls, 503, 503, 503)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 3, time.Second).FetchQuote(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
