package tokens

import (
	"unicode/utf8"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// Counter estimates token counts.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// CountBytes estimates the number of tokens in n bytes of text that
	// were not retained.
	CountBytes(n int) int
}

// EstimatingCounter uses a character-to-token ratio for estimation.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a token counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{
		CharsPerToken: DefaultCharsPerToken,
	}
}

// NewEstimatingCounterWithRatio creates a token counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio (4.0) is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{
		CharsPerToken: charsPerToken,
	}
}

// Count estimates the number of tokens in the given text.
// Runes are counted rather than bytes.
func (c *EstimatingCounter) Count(text string) int {
	return c.estimate(utf8.RuneCountInString(text))
}

// CountBytes treats every byte as a character, which overestimates
// multi-byte text.
func (c *EstimatingCounter) CountBytes(n int) int {
	if n <= 0 {
		return 0
	}
	return c.estimate(n)
}

func (c *EstimatingCounter) estimate(chars int) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	// Round to nearest integer
	return int(float64(chars)/ratio + 0.5)
}

// EstimateTokens is a convenience function using the default estimator.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}
