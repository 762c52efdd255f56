// Package generation defines the boundary between the application and
// language-model services used to generate content, currently motivational
// quotes when the quote API is unavailable.
package generation
