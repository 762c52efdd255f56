package service

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/generation"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// QuoteFetcher retrieves a quote from the upstream quote API.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context) (*domain.Quote, error)
}

// QuoteService returns a motivational quote.
type QuoteService interface {
	// GetQuote fetches from the upstream API. With useFallback, a failure is
	// answered with a generated or built-in quote and never returns an
	// error; without it the upstream error is returned.
	GetQuote(ctx context.Context, useFallback bool) (*domain.Quote, error)
}

var fallbackQuotes = []struct {
	content, author string
	tags            []string
}{
	{"The only way to do great work is to love what you do.", "Steve Jobs", []string{"motivational", "work"}},
	{"Innovation distinguishes between a leader and a follower.", "Steve Jobs", []string{"innovation", "leadership"}},
	{"The future belongs to those who believe in the beauty of their dreams.", "Eleanor Roosevelt", []string{"dreams", "future", "motivational"}},
	{"Success is not final, failure is not fatal: it is the courage to continue that counts.", "Winston Churchill", []string{"success", "courage", "perseverance"}},
	{"The only impossible journey is the one you never begin.", "Tony Robbins", []string{"journey", "beginning", "motivation"}},
}

type quoteService struct {
	fetcher   QuoteFetcher
	generator generation.QuoteGenerator
	pick      func(n int) int
	logger    *slog.Logger
}

// NewQuoteService creates a QuoteService. generator may be nil, in which
// case failures fall straight back to the built-in quotes.
func NewQuoteService(fetcher QuoteFetcher, generator generation.QuoteGenerator, logger *slog.Logger) QuoteService {
	return &quoteService{
		fetcher:   fetcher,
		generator: generator,
		pick:      rand.IntN,
		logger:    logger.With("component", "quote_service"),
	}
}

func (s *quoteService) GetQuote(ctx context.Context, useFallback bool) (*domain.Quote, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	quote, err := s.fetcher.FetchQuote(ctx)
	if err == nil {
		return quote, nil
	}
	if !useFallback {
		return nil, err
	}
	reason := err.Error()
	log.Warn("quote API failed, using fallback", "error", err)

	if s.generator != nil {
		generated, genErr := s.generator.GenerateQuote(ctx)
		if genErr == nil {
			generated.FallbackReason = reason
			return generated, nil
		}
		log.Warn("quote generation failed", "error", genErr)
	}

	i := s.pick(len(fallbackQuotes))
	q := domain.NewQuote(fallbackQuotes[i].content, fallbackQuotes[i].author, fallbackQuotes[i].tags, domain.QuoteSourceFallback)
	q.FallbackReason = reason
	return q, nil
}
