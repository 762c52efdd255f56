package domain

import "unicode/utf8"

// QuoteSource records where a quote came from.
type QuoteSource string

const (
	QuoteSourceAPI       QuoteSource = "api"
	QuoteSourceGenerated QuoteSource = "generated"
	QuoteSourceFallback  QuoteSource = "fallback"
)

// Quote is a motivational quote shown to users.
type Quote struct {
	Content        string      `json:"content"`
	Author         string      `json:"author"`
	Tags           []string    `json:"tags"`
	Length         int         `json:"length"`
	Source         QuoteSource `json:"source"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
}

// NewQuote builds a quote, computing its length from the content.
func NewQuote(content, author string, tags []string, source QuoteSource) *Quote {
	if tags == nil {
		tags = []string{}
	}
	return &Quote{
		Content: content,
		Author:  author,
		Tags:    tags,
		Length:  utf8.RuneCountInString(content),
		Source:  source,
	}
}
