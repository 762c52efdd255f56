// Package quotes fetches motivational quotes from an HTTP quote API,
// retrying transient failures with exponential backoff.
package quotes
