// Package display decides which classified segments reach the terminal.
//
// The decision is a pure function of the segment's content type, its tool
// name, and a Config fixed when the Filter is built:
//
//	f := display.NewFilter(display.DefaultConfig(), parser.DefaultRegistry())
//	if f.Allows(seg) {
//	    fmt.Print(seg.Text)
//	}
package display

import (
	"github.com/randalmurphal/tagstream/parser"
)

// Config controls which kinds of output are visible.
type Config struct {
	// ShowThinking shows the model's internal reasoning.
	ShowThinking bool `json:"show_thinking" yaml:"show_thinking" toml:"show_thinking" jsonschema:"description=Show <thinking> sections"`

	// ShowTools shows tool invocations. The always-visible tool is shown
	// regardless.
	ShowTools bool `json:"show_tools" yaml:"show_tools" toml:"show_tools" jsonschema:"description=Show tool invocations"`

	// ShowSystem shows tool results and system notices.
	ShowSystem bool `json:"show_system" yaml:"show_system" toml:"show_system" jsonschema:"description=Show tool results and system notices"`

	// ShowResponse surfaces completion events even when their message
	// filters to nothing. Answer text itself is always shown.
	ShowResponse bool `json:"show_response" yaml:"show_response" toml:"show_response" jsonschema:"description=Surface completion events,default=true"`

	// Verbose surfaces every event and logs each classified segment.
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" jsonschema:"description=Surface all events and log segments"`
}

// DefaultConfig shows answer text and completions only.
func DefaultConfig() Config {
	return Config{
		ShowResponse: true,
	}
}

// Visible reports whether text of type t is shown under
// cfg. alwaysVisible marks the designated always-visible tool.
func Visible(cfg Config, t parser.ContentType, alwaysVisible bool) bool {
	switch t {
	case parser.ContentTypeContent:
		return true
	case parser.ContentTypeThinking:
		return cfg.ShowThinking
	case parser.ContentTypeToolCall:
		return alwaysVisible || cfg.ShowTools
	case parser.ContentTypeToolResult, parser.ContentTypeSystem:
		return cfg.ShowSystem
	}
	return false
}

// Filter applies a Config to classified segments.
type Filter struct {
	cfg      Config
	registry *parser.Registry
}

// NewFilter creates a filter. The registry identifies always-visible tags;
// nil uses parser.DefaultRegistry.
func NewFilter(cfg Config, reg *parser.Registry) Filter {
	if reg == nil {
		reg = parser.DefaultRegistry()
	}
	return Filter{cfg: cfg, registry: reg}
}

// Config returns the filter's configuration.
func (f Filter) Config() Config {
	return f.cfg
}

// Allows reports whether seg is shown.
func (f Filter) Allows(seg parser.Segment) bool {
	return f.AllowsTag(seg.Type, seg.Tag)
}

// AllowsTag reports whether text of type t inside tag is shown.
// It has the signature of parser.RetentionFunc.
func (f Filter) AllowsTag(t parser.ContentType, tag string) bool {
	return Visible(f.cfg, t, tag != "" && f.registry.IsAlwaysVisible(tag))
}
