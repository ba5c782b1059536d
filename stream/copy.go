package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the read size used by Copy when none is given.
const DefaultChunkSize = 4096

// Copy reads raw output from r in chunks of at most chunkSize bytes and
// writes the visible text to w as each chunk is processed. It returns the
// number of visible bytes written. Copy stops at EOF, on error, or when ctx
// is cancelled between reads.
func (p *Processor) Copy(ctx context.Context, w io.Writer, r io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if out := p.ProcessText(string(buf[:n])); out != "" {
				m, err := io.WriteString(w, out)
				written += int64(m)
				if err != nil {
					return written, fmt.Errorf("write output: %w", err)
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("read input: %w", readErr)
		}
	}
}
