package stream

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tagstream/display"
	"github.com/randalmurphal/tagstream/parser"
)

func processAll(p *Processor, chunks ...string) string {
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(p.ProcessText(chunk))
	}
	return b.String()
}

func TestProcessor_ProcessText(t *testing.T) {
	hidden := display.DefaultConfig()
	shown := display.Config{ShowThinking: true, ShowTools: true, ShowSystem: true}

	tests := []struct {
		name   string
		cfg    display.Config
		chunks []string
		want   string
	}{
		{
			name:   "hidden thinking in one chunk",
			cfg:    hidden,
			chunks: []string{"<thinking>hidden</thinking>after"},
			want:   "after",
		},
		{
			name:   "hidden thinking split across chunks",
			cfg:    hidden,
			chunks: []string{"<thin", "king>hidden</thin", "king>after"},
			want:   "after",
		},
		{
			name:   "case mismatch passes through",
			cfg:    hidden,
			chunks: []string{"<THINKING>x</THINKING>"},
			want:   "<THINKING>x</THINKING>",
		},
		{
			name:   "orphan closing tag passes through",
			cfg:    hidden,
			chunks: []string{"content</thinking>"},
			want:   "content</thinking>",
		},
		{
			name:   "attributes on hidden tag",
			cfg:    hidden,
			chunks: []string{`<thinking extra="attr">content</thinking>`},
			want:   "",
		},
		{
			name:   "self-closing style opening stays hidden",
			cfg:    hidden,
			chunks: []string{"<thinking/>x</thinking>after"},
			want:   "after",
		},
		{
			name:   "quoted attribute without space stays hidden",
			cfg:    hidden,
			chunks: []string{`<thinking"a">x</thin`, "king>after"},
			want:   "after",
		},
		{
			name:   "multiple hidden sections",
			cfg:    hidden,
			chunks: []string{"<thinking>first</thinking>middle<thinking>second</thinking>"},
			want:   "middle",
		},
		{
			name:   "hidden tool call",
			cfg:    hidden,
			chunks: []string{"Reading.<read_file><path>a.go</path></read_file>"},
			want:   "Reading.",
		},
		{
			name:   "always visible tool with tools hidden",
			cfg:    hidden,
			chunks: []string{"<attempt_completion><result>done</result></attempt_completion>"},
			want:   "<attempt_completion><result>done</result></attempt_completion>",
		},
		{
			name:   "hidden results and system",
			cfg:    hidden,
			chunks: []string{"a<tool_result>r</tool_result>b<environment_details>e</environment_details>c"},
			want:   "abc",
		},
		{
			name:   "shown thinking keeps markup",
			cfg:    shown,
			chunks: []string{"<thinking>x</thinking>y"},
			want:   "<thinking>x</thinking>y",
		},
		{
			name:   "prose with less-than",
			cfg:    hidden,
			chunks: []string{"if a <", " b then c"},
			want:   "if a < b then c",
		},
		{
			name:   "unterminated hidden tag stays hidden",
			cfg:    hidden,
			chunks: []string{"before <thinking>never closed"},
			want:   "before ",
		},
		{
			name:   "unterminated shown tag is held",
			cfg:    shown,
			chunks: []string{"before <thinking>never closed"},
			want:   "before ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.cfg)
			assert.Equal(t, tt.want, processAll(p, tt.chunks...))
		})
	}
}

func TestProcessor_ChunkInvariance(t *testing.T) {
	inputs := []string{
		"<thinking>hidden</thinking>after",
		"a<thinking x=\"1\">b</thinkin</thinking>c<read_file>d</read_file>e",
		"<attempt_completion>done</attempt_completion><tool_result>r</tool_result>",
		"x < y <<thinking>z</thinking> </thinking> <THINKING>",
		"<thinking/>x</thinking>after",
		`<thinking"a">x</thinking>after<read_file/>p</read_file>.`,
	}
	configs := []display.Config{
		display.DefaultConfig(),
		{ShowThinking: true},
		{ShowTools: true, ShowSystem: true},
	}

	for _, cfg := range configs {
		for _, input := range inputs {
			want := NewProcessor(cfg).ProcessText(input)

			for i := 0; i <= len(input); i++ {
				got := processAll(NewProcessor(cfg), input[:i], input[i:])
				require.Equal(t, want, got, "cfg %+v input %q split at %d", cfg, input, i)
			}

			p := NewProcessor(cfg)
			var b strings.Builder
			for i := 0; i < len(input); i++ {
				b.WriteString(p.ProcessText(input[i : i+1]))
			}
			assert.Equal(t, want, b.String(), "single-byte chunks of %q", input)
		}
	}
}

func TestProcessor_Introspection(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())

	p.ProcessText("<thi")
	assert.Equal(t, parser.StateTagOpening, p.ParserState())
	assert.Equal(t, "<thi", p.TagBuffer())

	p.ProcessText("nking>secret")
	assert.Equal(t, parser.StateInsideTag, p.ParserState())
	tag, ok := p.CurrentTag()
	assert.True(t, ok)
	assert.Equal(t, "thinking", tag)
	assert.Empty(t, p.TagBuffer())
}

func TestProcessor_Reset(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())
	p.ProcessText("<thinking>unfinished")

	p.Reset()
	assert.Equal(t, parser.StateNormal, p.ParserState())
	_, ok := p.CurrentTag()
	assert.False(t, ok)
	assert.Empty(t, p.TagBuffer())

	p.Reset()
	assert.Equal(t, parser.StateNormal, p.ParserState())

	input := "a<thinking>b</thinking>c"
	assert.Equal(t, NewProcessor(display.DefaultConfig()).ProcessText(input), p.ProcessText(input))
}

func TestProcessor_BoundedBuffer(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())

	for i := 0; i < 1000; i++ {
		p.ProcessText(fmt.Sprintf("unrelated chunk %d with x<y ", i))
	}
	assert.Less(t, len(p.TagBuffer()), 1000)
	assert.Equal(t, parser.StateNormal, p.ParserState())
}

func TestProcessor_LargeHiddenSection(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())
	limit := parser.DefaultRegistry().MaxNameLen() + len("</>")

	assert.Empty(t, p.ProcessText("<thinking>"))
	block := strings.Repeat("reasoning <step> ", 256)
	for i := 0; i < 1024; i++ {
		require.Empty(t, p.ProcessText(block))
		require.LessOrEqual(t, len(p.TagBuffer()), limit)
	}
	assert.Equal(t, "visible", p.ProcessText("</thinking>visible"))

	thinking := p.Stats().For(parser.ContentTypeThinking)
	assert.Equal(t, 1, thinking.Segments)
	assert.Equal(t, 1, thinking.Suppressed)
	assert.Equal(t, len("<thinking>")+1024*len(block)+len("</thinking>"), thinking.Bytes)
}

func TestProcessor_Stats(t *testing.T) {
	p := NewProcessor(display.DefaultConfig())
	assert.False(t, p.Stats().Suppressed())

	p.ProcessText("<thinking>abcd</thinking>Hello World")

	stats := p.Stats()
	assert.True(t, stats.Suppressed())
	assert.Equal(t, 11, stats.For(parser.ContentTypeContent).Bytes)
	assert.Equal(t, 3, stats.For(parser.ContentTypeContent).Tokens)
	assert.Equal(t, 0, stats.For(parser.ContentTypeContent).Suppressed)
	assert.Equal(t, 2, stats.Total.Segments)

	p.Reset()
	assert.Equal(t, 2, p.Stats().Total.Segments, "reset keeps stats")
	p.ResetStats()
	assert.Equal(t, 0, p.Stats().Total.Segments)
}

func TestProcessor_VerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewProcessor(display.Config{Verbose: true}, WithLogger(logger), WithSessionID("sess-1"))
	p.ProcessText("<thinking>x</thinking>y")

	out := buf.String()
	assert.Contains(t, out, "classified segment")
	assert.Contains(t, out, "session_id=sess-1")
	assert.Contains(t, out, "type=thinking")
	assert.Contains(t, out, "visible=false")

	buf.Reset()
	quiet := NewProcessor(display.DefaultConfig(), WithLogger(logger))
	quiet.ProcessText("<thinking>x</thinking>y")
	assert.Empty(t, buf.String())
}

func TestProcessor_SessionID(t *testing.T) {
	a := NewProcessor(display.DefaultConfig())
	b := NewProcessor(display.DefaultConfig())

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
	assert.Equal(t, "fixed", NewProcessor(display.DefaultConfig(), WithSessionID("fixed")).SessionID())
}

func TestProcessor_CustomRegistry(t *testing.T) {
	reg := parser.DefaultRegistry().With(parser.TagEntry{Name: "scratchpad", Type: parser.ContentTypeThinking})
	p := NewProcessor(display.DefaultConfig(), WithRegistry(reg))

	assert.Equal(t, "ab", p.ProcessText("a<scratchpad>notes</scratchpad>b"))
}

func TestProcessor_Copy(t *testing.T) {
	input := "intro <thinking>" + strings.Repeat("z", 10000) + "</thinking>answer <read_file>x</read_file>done"

	var out bytes.Buffer
	n, err := NewProcessor(display.DefaultConfig()).Copy(context.Background(), &out, strings.NewReader(input), 7)
	require.NoError(t, err)
	assert.Equal(t, "intro answer done", out.String())
	assert.Equal(t, int64(out.Len()), n)
}

func TestProcessor_CopyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NewProcessor(display.DefaultConfig()).Copy(ctx, &out, strings.NewReader("text"), 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
