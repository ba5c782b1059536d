package parser

import (
	"strings"
)

// State is the classifier's position relative to tag syntax.
type State int

// Classifier states. Exactly one is active at a time.
const (
	// StateNormal is outside any tag, scanning for '<'.
	StateNormal State = iota

	// StateTagOpening has consumed '<' and is accumulating a candidate tag
	// name, or has committed to a name and is skipping attributes up to '>'.
	StateTagOpening

	// StateInsideTag is inside a recognized tag, watching for its closing tag.
	StateInsideTag

	// StateTagClosing is inside a tag with a partial match of the closing tag.
	StateTagClosing
)

// String returns the upper-case state name.
func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateTagOpening:
		return "TAG_OPENING"
	case StateInsideTag:
		return "INSIDE_TAG"
	case StateTagClosing:
		return "TAG_CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Segment is a run of input classified uniformly as one content type.
type Segment struct {
	// Type is the classification of the run.
	Type ContentType

	// Tag is the name of the enclosing tag. Empty for ContentTypeContent.
	Tag string

	// ToolName is set for tool_call segments.
	ToolName string

	// Text is the raw input of the run. Scope segments include their
	// opening and closing markup. Empty when Dropped.
	Text string

	// Len is the number of input bytes in the run, set even when Dropped.
	Len int

	// Dropped reports that Text was discarded by the retention policy.
	Dropped bool
}

// RetentionFunc decides whether the text of a scope is kept.
// It is called once per scope, when the tag name is committed.
type RetentionFunc func(t ContentType, tag string) bool

// Option configures a Classifier.
type Option func(*Classifier)

// WithRetention sets the retention policy for scope text.
// Scopes for which fn returns false keep only their byte count, so memory
// stays bounded however large they grow.
func WithRetention(fn RetentionFunc) Option {
	return func(c *Classifier) {
		c.retain = fn
	}
}

// Classifier incrementally splits a chunked stream into classified segments.
//
// Feed may be called with chunks of any size; tag names and markup may be
// split across any number of calls. A Classifier is not safe for concurrent
// use. Call Reset between independent streams.
type Classifier struct {
	registry *Registry
	retain   RetentionFunc

	state State

	// pending holds "<" plus a candidate tag name while opening.
	pending []byte

	// attrs is set once a tag name is committed but '>' has not arrived.
	attrs bool

	name      string
	scopeType ContentType
	keep      bool
	scope     strings.Builder
	scopeLen  int

	// closing is "</name>"; matched counts how much of it has been seen.
	closing string
	matched int

	content strings.Builder
	out     []Segment
}

// NewClassifier creates a classifier for the tags in reg.
// A nil registry uses DefaultRegistry.
func NewClassifier(reg *Registry, opts ...Option) *Classifier {
	if reg == nil {
		reg = DefaultRegistry()
	}
	c := &Classifier{
		registry: reg,
		pending:  make([]byte, 0, reg.MaxNameLen()+2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry used for tag lookup.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// State returns the current parser state.
func (c *Classifier) State() State {
	return c.state
}

// CurrentTag returns the name of the open tag while inside one.
func (c *Classifier) CurrentTag() (string, bool) {
	if c.state == StateInsideTag || c.state == StateTagClosing {
		return c.name, true
	}
	return "", false
}

// PendingBuffer returns the unconfirmed text held back from classification:
// a candidate opening tag or a partial closing tag.
func (c *Classifier) PendingBuffer() string {
	switch c.state {
	case StateTagOpening:
		return string(c.pending)
	case StateTagClosing:
		return c.closing[:c.matched]
	}
	return ""
}

// Reset discards all state, including any unterminated tag and its content.
func (c *Classifier) Reset() {
	c.state = StateNormal
	c.pending = c.pending[:0]
	c.attrs = false
	c.name = ""
	c.scopeType = ""
	c.keep = false
	c.scope.Reset()
	c.scopeLen = 0
	c.closing = ""
	c.matched = 0
	c.content.Reset()
	c.out = nil
}

// Feed classifies chunk and returns the segments completed by it, in input
// order. Text inside an unterminated tag is held until its closing tag
// arrives; it is never flushed early.
func (c *Classifier) Feed(chunk string) []Segment {
	c.out = nil

	for i := 0; i < len(chunk); {
		switch c.state {
		case StateNormal:
			j := strings.IndexByte(chunk[i:], '<')
			if j < 0 {
				c.content.WriteString(chunk[i:])
				i = len(chunk)
				continue
			}
			c.content.WriteString(chunk[i : i+j])
			c.pending = append(c.pending[:0], '<')
			c.state = StateTagOpening
			i += j + 1

		case StateTagOpening:
			if c.attrs {
				j := strings.IndexByte(chunk[i:], '>')
				if j < 0 {
					c.appendScope(chunk[i:])
					i = len(chunk)
					continue
				}
				c.appendScope(chunk[i : i+j+1])
				c.enterScope()
				i += j + 1
				continue
			}
			if c.open(chunk[i]) {
				i++
			}

		case StateInsideTag, StateTagClosing:
			i = c.scanScope(chunk, i)
		}
	}

	c.flushContent()
	out := c.out
	c.out = nil
	return out
}

// open advances the opening-tag candidate by one byte. It returns false when
// the byte was not consumed and must be scanned again in StateNormal.
func (c *Classifier) open(b byte) bool {
	n := len(c.pending) - 1
	if b == '>' && n > 0 {
		if e, ok := c.registry.lookup(c.pending[1:]); ok {
			c.beginScope(e)
			c.appendScope(string(c.pending))
			c.appendScope(">")
			c.enterScope()
			return true
		}
	}

	c.pending = append(c.pending, b)
	if c.registry.isPrefix(c.pending[1:]) {
		return true
	}

	// Past every longer name. Once a full registered name has been seen,
	// whatever follows up to '>' is attributes.
	for k := n; k > 0; k-- {
		e, ok := c.registry.lookup(c.pending[1 : 1+k])
		if !ok {
			continue
		}
		c.beginScope(e)
		c.appendScope(string(c.pending))
		if b == '>' {
			c.enterScope()
		} else {
			c.pending = c.pending[:0]
			c.attrs = true
		}
		return true
	}

	// Not a tag: the candidate is literal text.
	c.pending = c.pending[:n+1]
	c.content.Write(c.pending)
	c.pending = c.pending[:0]
	c.state = StateNormal
	return false
}

// scanScope consumes scope content from chunk[i:], watching for the closing
// tag. It returns the index of the first unconsumed byte.
func (c *Classifier) scanScope(chunk string, i int) int {
	for i < len(chunk) {
		if c.matched == 0 {
			j := strings.IndexByte(chunk[i:], '<')
			if j < 0 {
				c.appendScope(chunk[i:])
				return len(chunk)
			}
			c.appendScope(chunk[i : i+j])
			c.matched = 1
			c.state = StateTagClosing
			i += j + 1
			continue
		}

		if chunk[i] == c.closing[c.matched] {
			c.matched++
			i++
			if c.matched == len(c.closing) {
				c.appendScope(c.closing)
				c.closeScope()
				return i
			}
			continue
		}

		// The held bytes were content after all. The current byte is
		// re-examined since it may start a new closing candidate.
		c.appendScope(c.closing[:c.matched])
		c.matched = 0
		c.state = StateInsideTag
	}
	return i
}

func (c *Classifier) beginScope(e TagEntry) {
	c.flushContent()
	c.name = e.Name
	c.scopeType = e.Type
	c.keep = c.retain == nil || c.retain(e.Type, e.Name)
	c.scope.Reset()
	c.scopeLen = 0
	c.closing = "</" + e.Name + ">"
	c.matched = 0
}

func (c *Classifier) enterScope() {
	c.pending = c.pending[:0]
	c.attrs = false
	c.state = StateInsideTag
}

func (c *Classifier) appendScope(s string) {
	c.scopeLen += len(s)
	if c.keep {
		c.scope.WriteString(s)
	}
}

func (c *Classifier) closeScope() {
	seg := Segment{
		Type:    c.scopeType,
		Tag:     c.name,
		Len:     c.scopeLen,
		Dropped: !c.keep,
	}
	if c.scopeType == ContentTypeToolCall {
		seg.ToolName = c.name
	}
	if c.keep {
		seg.Text = c.scope.String()
	}
	c.out = append(c.out, seg)

	c.scope.Reset()
	c.scopeLen = 0
	c.name = ""
	c.scopeType = ""
	c.keep = false
	c.closing = ""
	c.matched = 0
	c.state = StateNormal
}

func (c *Classifier) flushContent() {
	if c.content.Len() == 0 {
		return
	}
	text := c.content.String()
	c.out = append(c.out, Segment{
		Type: ContentTypeContent,
		Text: text,
		Len:  len(text),
	})
	c.content.Reset()
}
