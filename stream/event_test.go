package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/tagstream/display"
	"github.com/randalmurphal/tagstream/parser"
)

func TestProcessor_ProcessData(t *testing.T) {
	tests := []struct {
		name       string
		cfg        display.Config
		event      Event
		wantOutput bool
		want       Event
	}{
		{
			name:       "filters message",
			cfg:        display.DefaultConfig(),
			event:      Event{"type": "say", "message": "<thinking>x</thinking>answer", "ts": 1},
			wantOutput: true,
			want:       Event{"type": "say", "message": "answer", "ts": 1},
		},
		{
			name:       "thinking-only update is not surfaced",
			cfg:        display.DefaultConfig(),
			event:      Event{"type": "say", "message": "<thinking>x</thinking>"},
			wantOutput: false,
			want:       Event{"type": "say", "message": ""},
		},
		{
			name:       "verbose surfaces empty updates",
			cfg:        display.Config{Verbose: true},
			event:      Event{"type": "say", "message": "<thinking>x</thinking>"},
			wantOutput: true,
			want:       Event{"type": "say", "message": ""},
		},
		{
			name:       "error always surfaced",
			cfg:        display.DefaultConfig(),
			event:      Event{"type": "error", "message": ""},
			wantOutput: true,
			want:       Event{"type": "error", "message": ""},
		},
		{
			name:       "completion surfaced when responses shown",
			cfg:        display.Config{ShowResponse: true},
			event:      Event{"type": "completion_result", "message": ""},
			wantOutput: true,
			want:       Event{"type": "completion_result", "message": ""},
		},
		{
			name:       "completion not surfaced when responses hidden",
			cfg:        display.Config{},
			event:      Event{"type": "completion_result", "message": ""},
			wantOutput: false,
			want:       Event{"type": "completion_result", "message": ""},
		},
		{
			name:       "numeric message passes through",
			cfg:        display.DefaultConfig(),
			event:      Event{"type": "progress", "message": 42},
			wantOutput: true,
			want:       Event{"type": "progress", "message": 42},
		},
		{
			name:       "missing message passes through",
			cfg:        display.DefaultConfig(),
			event:      Event{"type": "status", "done": true},
			wantOutput: true,
			want:       Event{"type": "status", "done": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.cfg)
			res := p.ProcessData(tt.event)
			assert.Equal(t, tt.wantOutput, res.ShouldOutput)
			assert.Equal(t, tt.want, res.Content)
		})
	}
}

func TestProcessor_ProcessDataDoesNotMutateEvent(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())
	event := Event{"type": "say", "message": "<thinking>x</thinking>y"}

	res := p.ProcessData(event)

	assert.Equal(t, "<thinking>x</thinking>y", event["message"])
	assert.Equal(t, "y", res.Content["message"])
}

func TestProcessor_ProcessDataAcrossEvents(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())

	first := p.ProcessData(Event{"type": "say", "message": "Let me check.<thin"})
	second := p.ProcessData(Event{"type": "say", "message": "king>hmm</thinking> Done."})

	assert.Equal(t, "Let me check.", first.Content["message"])
	assert.Equal(t, " Done.", second.Content["message"])
}

func TestProcessor_ProcessDataResetsOnTurnStart(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())

	p.ProcessData(Event{"type": "say", "message": "<thinking>never closed"})
	assert.Equal(t, parser.StateInsideTag, p.ParserState())

	res := p.ProcessData(Event{"type": "turn_start", "message": "fresh"})
	assert.True(t, res.ShouldOutput)
	assert.Equal(t, "fresh", res.Content["message"])
	assert.Equal(t, parser.StateNormal, p.ParserState())
}

func TestProcessor_CustomEventPolicy(t *testing.T) {
	p := NewProcessor(display.DefaultConfig(), WithEventPolicy(EventPolicy{
		AlwaysSurface: []string{"heartbeat"},
	}))

	assert.True(t, p.ProcessData(Event{"type": "heartbeat", "message": ""}).ShouldOutput)
	assert.False(t, p.ProcessData(Event{"type": "error", "message": ""}).ShouldOutput)

	p.ProcessData(Event{"type": "say", "message": "<thinking>open"})
	p.ProcessData(Event{"type": "turn_start", "message": ""})
	assert.Equal(t, parser.StateInsideTag, p.ParserState(), "no reset without ResetOn")
}

func TestDefaultEventPolicy(t *testing.T) {
	policy := DefaultEventPolicy(display.Config{ShowResponse: true, Verbose: true})

	assert.Equal(t, []string{EventTypeError, EventTypeCompletionResult}, policy.AlwaysSurface)
	assert.True(t, policy.EmitEmpty)
	assert.Equal(t, []string{EventTypeTurnStart}, policy.ResetOn)

	policy = DefaultEventPolicy(display.Config{})
	assert.Equal(t, []string{EventTypeError}, policy.AlwaysSurface)
	assert.False(t, policy.EmitEmpty)
}

func TestEvent_Type(t *testing.T) {
	assert.Equal(t, "say", Event{"type": "say"}.Type())
	assert.Equal(t, "", Event{"type": 3}.Type())
	assert.Equal(t, "", Event{}.Type())
}
