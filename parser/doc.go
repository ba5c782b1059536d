// Package parser classifies streamed LLM output by its XML-style tags.
//
// Core types:
//   - Registry: maps exact, case-sensitive tag names to a ContentType
//   - Classifier: a state machine that splits arbitrarily chunked text into
//     ordered Segments
//   - Segment: a run of input classified as one ContentType
//
// Example usage:
//
//	c := parser.NewClassifier(parser.DefaultRegistry())
//	for chunk := range chunks {
//	    for _, seg := range c.Feed(chunk) {
//	        fmt.Printf("%s: %q\n", seg.Type, seg.Text)
//	    }
//	}
//
// Tag names, and the '<' that starts them, may be split across any number of
// Feed calls. Text that only resembles a tag (an unknown name, a case
// mismatch, or a closing tag with no open scope) passes through as
// ContentTypeContent. Only the literal closing tag of the open scope ends
// it; other tags inside are ordinary content.
//
// Text inside an unterminated tag is held until the tag closes or Reset is
// called. It is never flushed early.
//
// Memory: the pending buffer never exceeds the longest registered name plus
// the closing syntax. Use WithRetention to discard the text of scopes the
// caller will not display, so that large hidden sections cost only their
// byte count.
package parser
