package parser

import (
	"sort"
)

// ContentType classifies a run of model output.
type ContentType string

// Content types produced by the classifier.
const (
	ContentTypeContent    ContentType = "content"
	ContentTypeThinking   ContentType = "thinking"
	ContentTypeToolCall   ContentType = "tool_call"
	ContentTypeToolResult ContentType = "tool_result"
	ContentTypeSystem     ContentType = "system"
)

// ParseContentType converts a string to a ContentType.
// Returns false if the string names no known content type.
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(s) {
	case ContentTypeContent, ContentTypeThinking, ContentTypeToolCall,
		ContentTypeToolResult, ContentTypeSystem:
		return ContentType(s), true
	}
	return "", false
}

// String returns the string representation of the ContentType.
func (c ContentType) String() string {
	return string(c)
}

// AlwaysVisibleTool carries the user-facing final answer wrapped in tool
// syntax. Its segments are shown even when tool calls are hidden.
const AlwaysVisibleTool = "attempt_completion"

// TagEntry maps a tag name to its content type.
type TagEntry struct {
	// Name is the exact, case-sensitive tag name without angle brackets.
	Name string

	// Type is the content type of text inside the tag.
	Type ContentType

	// AlwaysVisible marks the tag as bypassing display suppression.
	AlwaysVisible bool
}

// Registry maps tag names to content types.
// A Registry is immutable after construction and safe for concurrent use.
//
// Example:
//
//	reg := NewRegistry(
//	    TagEntry{Name: "thinking", Type: ContentTypeThinking},
//	    TagEntry{Name: "attempt_completion", Type: ContentTypeToolCall, AlwaysVisible: true},
//	)
type Registry struct {
	entries  map[string]TagEntry
	prefixes map[string]struct{}
	maxLen   int
}

// NewRegistry creates a registry for the given tags.
// Entries with an empty name or unknown content type are ignored. When a
// name repeats, the last entry wins.
func NewRegistry(entries ...TagEntry) *Registry {
	r := &Registry{
		entries:  make(map[string]TagEntry, len(entries)),
		prefixes: make(map[string]struct{}),
	}
	for _, e := range entries {
		r.add(e)
	}
	return r
}

func (r *Registry) add(e TagEntry) {
	if e.Name == "" {
		return
	}
	if _, ok := ParseContentType(string(e.Type)); !ok || e.Type == ContentTypeContent {
		return
	}
	r.entries[e.Name] = e
	for i := 1; i <= len(e.Name); i++ {
		r.prefixes[e.Name[:i]] = struct{}{}
	}
	if len(e.Name) > r.maxLen {
		r.maxLen = len(e.Name)
	}
}

// With returns a copy of the registry extended with entries.
func (r *Registry) With(entries ...TagEntry) *Registry {
	next := NewRegistry(r.Tags()...)
	for _, e := range entries {
		next.add(e)
	}
	return next
}

// Classify returns the content type registered for name.
// Lookup is exact and case-sensitive.
func (r *Registry) Classify(name string) (ContentType, bool) {
	e, ok := r.entries[name]
	if !ok {
		return "", false
	}
	return e.Type, true
}

// IsAlwaysVisible reports whether name bypasses display suppression.
func (r *Registry) IsAlwaysVisible(name string) bool {
	return r.entries[name].AlwaysVisible
}

// HasPrefix reports whether p is a non-empty prefix of some registered name.
func (r *Registry) HasPrefix(p string) bool {
	_, ok := r.prefixes[p]
	return ok
}

// MaxNameLen returns the length of the longest registered name.
func (r *Registry) MaxNameLen() int {
	return r.maxLen
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Tags returns all entries sorted by name.
func (r *Registry) Tags() []TagEntry {
	result := make([]TagEntry, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// defaultTags are the tags emitted by the agent core.
var defaultTags = []TagEntry{
	{Name: "thinking", Type: ContentTypeThinking},

	{Name: AlwaysVisibleTool, Type: ContentTypeToolCall, AlwaysVisible: true},
	{Name: "read_file", Type: ContentTypeToolCall},
	{Name: "write_to_file", Type: ContentTypeToolCall},
	{Name: "replace_in_file", Type: ContentTypeToolCall},
	{Name: "execute_command", Type: ContentTypeToolCall},
	{Name: "search_files", Type: ContentTypeToolCall},
	{Name: "list_files", Type: ContentTypeToolCall},
	{Name: "list_code_definition_names", Type: ContentTypeToolCall},
	{Name: "browser_action", Type: ContentTypeToolCall},
	{Name: "use_mcp_tool", Type: ContentTypeToolCall},
	{Name: "access_mcp_resource", Type: ContentTypeToolCall},
	{Name: "ask_followup_question", Type: ContentTypeToolCall},
	{Name: "new_task", Type: ContentTypeToolCall},
	{Name: "plan_mode_respond", Type: ContentTypeToolCall},

	{Name: "tool_result", Type: ContentTypeToolResult},
	{Name: "function_results", Type: ContentTypeToolResult},

	{Name: "system", Type: ContentTypeSystem},
	{Name: "environment_details", Type: ContentTypeSystem},
}

var defaultRegistry = NewRegistry(defaultTags...)

// DefaultRegistry returns the registry of tags emitted by the agent core.
// The returned registry is shared; use With to extend it.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// isPrefix and lookup take a byte slice so the classifier can check names
// without allocating a string per byte.
func (r *Registry) isPrefix(b []byte) bool {
	_, ok := r.prefixes[string(b)]
	return ok
}

func (r *Registry) lookup(b []byte) (TagEntry, bool) {
	e, ok := r.entries[string(b)]
	return e, ok
}
