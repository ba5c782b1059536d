package stream

import (
	"slices"

	"github.com/randalmurphal/tagstream/display"
)

// Event is a structured progress update from the agent core.
// The "type" and "message" keys are interpreted; all others pass through.
type Event map[string]any

// Event keys and types interpreted by ProcessData.
const (
	KeyType    = "type"
	KeyMessage = "message"

	EventTypeError            = "error"
	EventTypeCompletionResult = "completion_result"
	EventTypeTurnStart        = "turn_start"
)

// Type returns the event's "type" value, or "" if absent or not a string.
func (e Event) Type() string {
	s, _ := e[KeyType].(string)
	return s
}

// DataResult is the outcome of ProcessData.
type DataResult struct {
	// ShouldOutput reports whether the event should be surfaced.
	ShouldOutput bool `json:"should_output"`

	// Content is the event with its message filtered.
	Content Event `json:"content"`
}

// EventPolicy decides whether events are surfaced.
type EventPolicy struct {
	// AlwaysSurface lists event types surfaced even when their message
	// filters to nothing.
	AlwaysSurface []string `json:"always_surface" yaml:"always_surface" toml:"always_surface"`

	// EmitEmpty surfaces every event regardless of its filtered message.
	EmitEmpty bool `json:"emit_empty" yaml:"emit_empty" toml:"emit_empty"`

	// ResetOn lists event types that mark a new turn. The classifier is
	// reset before such an event is processed.
	ResetOn []string `json:"reset_on" yaml:"reset_on" toml:"reset_on"`
}

// DefaultEventPolicy derives the event policy from a display config:
// errors are always surfaced, completions when ShowResponse is set, and
// everything when Verbose is set.
func DefaultEventPolicy(cfg display.Config) EventPolicy {
	policy := EventPolicy{
		AlwaysSurface: []string{EventTypeError},
		EmitEmpty:     cfg.Verbose,
		ResetOn:       []string{EventTypeTurnStart},
	}
	if cfg.ShowResponse {
		policy.AlwaysSurface = append(policy.AlwaysSurface, EventTypeCompletionResult)
	}
	return policy
}

// surfaces reports whether an event of type typ is surfaced with an empty
// filtered message.
func (p EventPolicy) surfaces(typ string) bool {
	return p.EmitEmpty || slices.Contains(p.AlwaysSurface, typ)
}

func (p EventPolicy) resets(typ string) bool {
	return typ != "" && slices.Contains(p.ResetOn, typ)
}

// ProcessData filters the message of an event.
//
// An event whose message is absent or not a string has nothing to filter
// and is returned unchanged with ShouldOutput set. Otherwise the message is
// passed through ProcessText and a shallow copy of the event carrying the
// filtered message is returned; ShouldOutput is set when the filtered
// message is non-empty or the policy surfaces the event's type.
func (p *Processor) ProcessData(event Event) DataResult {
	typ := event.Type()
	if p.policy.resets(typ) {
		p.Reset()
	}

	msg, ok := event[KeyMessage].(string)
	if !ok {
		return DataResult{ShouldOutput: true, Content: event}
	}

	filtered := p.ProcessText(msg)

	content := make(Event, len(event))
	for k, v := range event {
		content[k] = v
	}
	content[KeyMessage] = filtered

	return DataResult{
		ShouldOutput: filtered != "" || p.policy.surfaces(typ),
		Content:      content,
	}
}
