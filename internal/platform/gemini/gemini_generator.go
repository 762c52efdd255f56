package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/generation"
	"google.golang.org/genai"
)

const quotePrompt = `Write one short, original motivational quote about getting work done.
Reply with only a JSON object of the form {"content": "...", "author": "...", "tags": ["..."]}.
Use "Unknown" as the author if the quote is not attributed to a real person.`

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements generation.QuoteGenerator using the Gemini API.
type GeminiGenerator struct {
	logger *slog.Logger
	models contentGenerator
	model  string
}

var _ generation.QuoteGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator from the quote configuration.
// It fails with generation.ErrInvalidConfig when no API key is configured.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.QuoteConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, client.Models, cfg.GeminiModel), nil
}

func newGenerator(logger *slog.Logger, models contentGenerator, model string) *GeminiGenerator {
	return &GeminiGenerator{
		logger: logger.With("component", "gemini_generator"),
		models: models,
		model:  model,
	}
}

type quoteSchema struct {
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// GenerateQuote asks the model for one quote.
func (g *GeminiGenerator) GenerateQuote(ctx context.Context) (*domain.Quote, error) {
	g.logger.DebugContext(ctx, "requesting generated quote", "model", g.model)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(quotePrompt), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var parsed quoteSchema
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	parsed.Content = strings.TrimSpace(parsed.Content)
	parsed.Author = strings.TrimSpace(parsed.Author)
	if parsed.Content == "" {
		return nil, fmt.Errorf("%w: quote content is empty", generation.ErrInvalidResponse)
	}
	if parsed.Author == "" {
		parsed.Author = "Unknown"
	}

	g.logger.InfoContext(ctx, "generated quote", "author", parsed.Author)
	return domain.NewQuote(parsed.Content, parsed.Author, parsed.Tags, domain.QuoteSourceGenerated), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, ErrEmptyResponse)
	}
	candidate := resp.Candidates[0]
	if string(candidate.FinishReason) == "SAFETY" {
		return "", generation.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, ErrEmptyResponse)
	}
	return sb.String(), nil
}

// stripCodeFence removes a surrounding ```json fence, which models add even
// when asked not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
