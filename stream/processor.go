package stream

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/randalmurphal/tagstream/display"
	"github.com/randalmurphal/tagstream/parser"
	"github.com/randalmurphal/tagstream/tokens"
)

// Processor filters a stream of model output for display.
//
// A Processor owns one classifier and is owned by one session. It is not
// safe for concurrent use. Call Reset between independent turns.
type Processor struct {
	sessionID string
	filter    display.Filter
	policy    EventPolicy
	logger    *slog.Logger
	counter   tokens.Counter
	registry  *parser.Registry

	classifier *parser.Classifier
	stats      *tokens.Tally
}

// Option configures a Processor.
type Option func(*Processor)

// WithRegistry sets the tag registry. Default: parser.DefaultRegistry.
func WithRegistry(reg *parser.Registry) Option {
	return func(p *Processor) {
		if reg != nil {
			p.registry = reg
		}
	}
}

// WithEventPolicy sets the policy used by ProcessData.
// Default: DefaultEventPolicy of the display config.
func WithEventPolicy(policy EventPolicy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithLogger sets the logger. Default: slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCounter sets the token counter used for stats.
func WithCounter(counter tokens.Counter) Option {
	return func(p *Processor) {
		if counter != nil {
			p.counter = counter
		}
	}
}

// WithSessionID sets the session identifier. Default: a random UUID.
func WithSessionID(id string) Option {
	return func(p *Processor) {
		if id != "" {
			p.sessionID = id
		}
	}
}

// NewProcessor creates a processor that shows output according to cfg.
func NewProcessor(cfg display.Config, opts ...Option) *Processor {
	p := &Processor{
		sessionID: uuid.NewString(),
		policy:    DefaultEventPolicy(cfg),
		logger:    slog.Default(),
		counter:   tokens.NewEstimatingCounter(),
		registry:  parser.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.filter = display.NewFilter(cfg, p.registry)
	p.classifier = parser.NewClassifier(p.registry, parser.WithRetention(p.filter.AllowsTag))
	p.stats = tokens.NewTally(p.counter)
	p.logger = p.logger.With(slog.String("session_id", p.sessionID))
	return p
}

// SessionID returns the session identifier.
func (p *Processor) SessionID() string {
	return p.sessionID
}

// Config returns the display configuration.
func (p *Processor) Config() display.Config {
	return p.filter.Config()
}

// ProcessText classifies chunk and returns the visible text it completes.
// Hidden sections contribute nothing; text inside a tag that has not closed
// yet is held until it does.
func (p *Processor) ProcessText(chunk string) string {
	segs := p.classifier.Feed(chunk)
	if len(segs) == 0 {
		return ""
	}

	var b strings.Builder
	for _, seg := range segs {
		visible := p.filter.Allows(seg)
		p.record(seg, visible)
		if visible {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func (p *Processor) record(seg parser.Segment, visible bool) {
	p.stats.Add(string(seg.Type), seg.Text, seg.Len, !visible)

	if p.filter.Config().Verbose {
		p.logger.Debug("classified segment",
			slog.String("type", string(seg.Type)),
			slog.String("tag", seg.Tag),
			slog.Int("bytes", seg.Len),
			slog.Bool("visible", visible))
	}
}

// ParserState returns the classifier state.
func (p *Processor) ParserState() parser.State {
	return p.classifier.State()
}

// CurrentTag returns the open tag name while inside one.
func (p *Processor) CurrentTag() (string, bool) {
	return p.classifier.CurrentTag()
}

// TagBuffer returns the unconfirmed tag text held by the classifier.
func (p *Processor) TagBuffer() string {
	return p.classifier.PendingBuffer()
}

// Reset returns the classifier to its initial state. Any unterminated tag
// is discarded with its content. Stats are kept; see ResetStats.
func (p *Processor) Reset() {
	if tag, ok := p.classifier.CurrentTag(); ok {
		p.logger.Debug("discarding unterminated tag", slog.String("tag", tag))
	}
	p.classifier.Reset()
}

// Stats returns usage recorded since construction or ResetStats.
func (p *Processor) Stats() Stats {
	return Stats{
		ByType: p.stats.Snapshot(),
		Total:  p.stats.Total(),
	}
}

// ResetStats clears recorded usage.
func (p *Processor) ResetStats() {
	p.stats.Reset()
}
