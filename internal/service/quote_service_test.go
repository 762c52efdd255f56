package service

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	quote *domain.Quote
	err   error
}

func (s stubFetcher) FetchQuote(context.Context) (*domain.Quote, error) {
	return s.quote, s.err
}

type stubGenerator struct {
	quote *domain.Quote
	err   error
	calls int
}

func (s *stubGenerator) GenerateQuote(context.Context) (*domain.Quote, error) {
	s.calls++
	return s.quote, s.err
}

func newTestQuoteService(f QuoteFetcher, g *stubGenerator) *quoteService {
	var svc QuoteService
	if g == nil {
		svc = NewQuoteService(f, nil, testLogger())
	} else {
		svc = NewQuoteService(f, g, testLogger())
	}
	qs := svc.(*quoteService)
	qs.pick = func(int) int { return 3 }
	return qs
}

func TestGetQuote_Upstream(t *testing.T) {
	upstream := domain.NewQuote("Stay hungry.", "Steve Jobs", nil, domain.QuoteSourceAPI)
	gen := &stubGenerator{}
	svc := newTestQuoteService(stubFetcher{quote: upstream}, gen)

	q, err := svc.GetQuote(context.Background(), true)

	require.NoError(t, err)
	assert.Same(t, upstream, q)
	assert.Zero(t, gen.calls)
}

func TestGetQuote_NoFallbackReturnsUpstreamError(t *testing.T) {
	upstreamErr := errors.New("upstream unavailable")
	svc := newTestQuoteService(stubFetcher{err: upstreamErr}, nil)

	_, err := svc.GetQuote(context.Background(), false)
	assert.ErrorIs(t, err, upstreamErr)
}

func TestGetQuote_GeneratedFallback(t *testing.T) {
	gen := &stubGenerator{quote: domain.NewQuote("Ship it.", "Unknown", []string{"work"}, domain.QuoteSourceGenerated)}
	svc := newTestQuoteService(stubFetcher{err: errors.New("timeout")}, gen)

	q, err := svc.GetQuote(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, domain.QuoteSourceGenerated, q.Source)
	assert.Equal(t, "timeout", q.FallbackReason)
	assert.Equal(t, 1, gen.calls)
}

func TestGetQuote_BuiltInFallback(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"no generator", nil},
		{"generator fails", &stubGenerator{err: errors.New("blocked")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestQuoteService(stubFetcher{err: errors.New("503")}, tt.gen)

			q, err := svc.GetQuote(context.Background(), true)

			require.NoError(t, err)
			assert.Equal(t, domain.QuoteSourceFallback, q.Source)
			assert.Equal(t, "Winston Churchill", q.Author)
			assert.Equal(t, []string{"success", "courage", "perseverance"}, q.Tags)
			assert.Equal(t, "503", q.FallbackReason)
			assert.Equal(t, len([]rune(q.Content)), q.Length)
		})
	}
}
