package generation

import (
	"context"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// QuoteGenerator produces a motivational quote from a language model.
type QuoteGenerator interface {
	// GenerateQuote returns a quote with Source set to domain.QuoteSourceGenerated.
	// Errors wrap one of the sentinels in errors.go.
	GenerateQuote(ctx context.Context) (*domain.Quote, error)
}
