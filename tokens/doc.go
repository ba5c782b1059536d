// Package tokens estimates token counts for streamed output.
//
// Estimation uses the rule of thumb that approximately 4 characters equals
// 1 token for English text. No model-specific tokenizer is needed.
//
// # Counter
//
//	counter := tokens.NewEstimatingCounter()
//	count := counter.Count("Hello, world!")   // ~3 tokens
//	hidden := counter.CountBytes(4096)        // text that was not kept
//
// # Tally
//
// Tally accumulates usage per key, typically per content type:
//
//	t := tokens.NewTally(nil)
//	t.Add("thinking", "", 4096, true)
//	t.Get("thinking").Tokens                  // 1024
package tokens
