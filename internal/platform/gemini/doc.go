// Package gemini implements generation.QuoteGenerator with Google's Gemini
// API. It asks the model for a single quote as JSON and maps the reply, or
// the reason there is none, onto the generation package's errors.
package gemini
