// Package stream is the entry point for filtering live model output.
//
// A Processor composes a parser.Classifier with a display.Filter:
//
//	p := stream.NewProcessor(display.Config{ShowThinking: false})
//	for chunk := range chunks {
//	    fmt.Print(p.ProcessText(chunk))
//	}
//
// Structured events are filtered with ProcessData:
//
//	res := p.ProcessData(stream.Event{"type": "say", "message": chunk})
//	if res.ShouldOutput {
//	    emit(res.Content)
//	}
//
// Hidden sections never have their text retained, so memory stays bounded
// by the longest tag name regardless of how much is suppressed. Stats
// records byte and token counts per content type, hidden or not.
package stream
