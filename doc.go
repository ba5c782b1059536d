// Package tagstream filters streamed LLM agent output by tag.
//
// Agent output interleaves the answer with XML-like sections such as
// <thinking>, tool calls (<read_file>, <attempt_completion>, ...), tool
// results and system context. tagstream classifies that text as it arrives,
// in chunks of any size, and passes through only what the display settings
// allow. Tags split across chunk boundaries are handled, prose that merely
// contains '<' is left alone, and memory use stays bounded no matter how
// large a hidden section grows.
//
// Subpackages:
//
//   - parser: tag registry and the streaming classifier state machine
//   - display: visibility settings and the segment filter
//   - stream: Processor, the chunk-level API for text and JSON events
//   - tokens: token estimation and per-type usage tallies
//   - config: file, environment and schema handling for settings
//   - jsonl: reading and tailing JSONL event files
//
// # Quick Start
//
// Filtering text chunks:
//
//	import (
//	    "github.com/randalmurphal/tagstream/display"
//	    "github.com/randalmurphal/tagstream/stream"
//	)
//	p := stream.NewProcessor(display.DefaultConfig())
//	fmt.Print(p.ProcessText("Let me check.<thin"))
//	fmt.Print(p.ProcessText("king>hmm</thinking> Done."))
//	// Output: Let me check. Done.
//
// Filtering event payloads:
//
//	res := p.ProcessData(stream.Event{"type": "say", "message": chunk})
//	if res.ShouldOutput {
//	    send(res.Content)
//	}
//
// Loading settings:
//
//	import "github.com/randalmurphal/tagstream/config"
//	cfg, err := config.Resolve("")
//	if err != nil {
//	    return err
//	}
//	p := cfg.NewProcessor()
//
// The cmd/tagstream command wraps the same API for files, pipes and
// followed JSONL logs.
package tagstream
