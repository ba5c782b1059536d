package stream

import (
	"github.com/randalmurphal/tagstream/parser"
	"github.com/randalmurphal/tagstream/tokens"
)

// Stats summarises what a processor has classified.
type Stats struct {
	// ByType is keyed by content type.
	ByType map[string]tokens.Usage `json:"by_type" yaml:"by_type"`

	// Total sums ByType.
	Total tokens.Usage `json:"total" yaml:"total"`
}

// For returns the usage recorded for content type t.
func (s Stats) For(t parser.ContentType) tokens.Usage {
	return s.ByType[string(t)]
}

// Suppressed reports whether any segment has been hidden, which callers use
// to tell a silent turn from an idle one.
func (s Stats) Suppressed() bool {
	return s.Total.Suppressed > 0
}
