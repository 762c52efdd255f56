package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/service"
)

const (
	quoteHealthy   = "healthy"
	quoteUnhealthy = "unhealthy"

	// Quotes are never cached; every request goes upstream.
	quoteCacheMiss = "miss"
)

// QuoteHandler serves the motivational quote endpoints.
type QuoteHandler struct {
	quotes    service.QuoteService
	apiSource string
	now       func() time.Time
}

// NewQuoteHandler creates a QuoteHandler. apiSource names the upstream quote
// API in health reports.
func NewQuoteHandler(quotes service.QuoteService, apiSource string) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, apiSource: apiSource, now: time.Now}
}

// GetQuote handles GET /api/external/quote. Fallbacks are enabled unless
// use_fallback=false is passed.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	useFallback, ok := parseUseFallback(w, r)
	if !ok {
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), useFallback)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch quote")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, quote)
}

// GetQuoteDetailed handles GET /api/external/quote/detailed: the quote plus
// request metadata.
func (h *QuoteHandler) GetQuoteDetailed(w http.ResponseWriter, r *http.Request) {
	useFallback, ok := parseUseFallback(w, r)
	if !ok {
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), useFallback)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch quote")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, QuoteDetailedResponse{
		Quote:       *quote,
		FetchedAt:   h.now().UTC(),
		RequestID:   shortID("req_", 10),
		CacheStatus: quoteCacheMiss,
	})
}

// QuoteHealth handles GET /api/external/quote/health. It fetches once with
// fallbacks disabled, so a healthy report always reflects the upstream API.
func (h *QuoteHandler) QuoteHealth(w http.ResponseWriter, r *http.Request) {
	checkID := shortID("health_", 8)
	started := h.now()

	quote, err := h.quotes.GetQuote(r.Context(), false)
	finished := h.now()
	resp := QuoteHealthResponse{
		APISource:      h.apiSource,
		ResponseTimeMS: finished.Sub(started).Milliseconds(),
		LastCheck:      finished.UTC(),
		CheckID:        checkID,
	}

	if err != nil {
		resp.Status = quoteUnhealthy
		resp.ErrorMessage = GetSafeErrorMessage(err)
		shared.RespondWithJSON(w, r, MapErrorToStatusCode(err), resp)
		return
	}

	resp.Status = quoteHealthy
	if resp.APISource == "" {
		resp.APISource = string(quote.Source)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// parseUseFallback reads the use_fallback query flag, defaulting to true. It
// writes a 400 and returns false when the value is not a boolean.
func parseUseFallback(w http.ResponseWriter, r *http.Request) (bool, bool) {
	v := r.URL.Query().Get("use_fallback")
	if v == "" {
		return true, true
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid use_fallback: must be true or false")
		return false, false
	}
	return parsed, true
}

// shortID returns prefix followed by n hex characters of a random UUID.
func shortID(prefix string, n int) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
