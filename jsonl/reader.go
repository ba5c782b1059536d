// Package jsonl reads and tails newline-delimited JSON event streams.
//
// Each line is a JSON object: one stream.Event from the agent core. Blank
// and malformed lines are skipped. Files can be read whole, read from a byte
// offset, or followed as they grow:
//
//	r, err := jsonl.NewReader("session.jsonl")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	for ev := range r.Tail(ctx) {
//	    res := p.ProcessData(ev)
//	    ...
//	}
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/randalmurphal/tagstream/stream"
)

// MaxLineSize is the longest line accepted.
const MaxLineSize = 10 * 1024 * 1024

// PollInterval is how often Tail checks the file when fsnotify is unavailable.
var PollInterval = 100 * time.Millisecond

// ParseEvent decodes one JSON line into an event.
// Numbers decode as json.Number so they round-trip unchanged.
func ParseEvent(line []byte) (stream.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var ev stream.Event
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	if ev == nil {
		return nil, fmt.Errorf("parse event: not an object")
	}
	return ev, nil
}

// Decode reads events from r until EOF, calling fn for each. A final line
// without a newline is decoded too. Decoding stops at the first error
// returned by fn.
func Decode(r io.Reader, fn func(stream.Event) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read jsonl: %w", err)
		}
		if ev, ok := decodeLine(line); ok {
			if ferr := fn(ev); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

// decodeLine parses one raw line. Blank, oversized and malformed lines are
// skipped.
func decodeLine(line []byte) (stream.Event, bool) {
	if len(line) > MaxLineSize {
		slog.Debug("skipping oversized event line", slog.Int("size", len(line)))
		return nil, false
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	ev, err := ParseEvent(line)
	if err != nil {
		slog.Debug("skipping malformed event line", slog.Any("error", err))
		return nil, false
	}
	return ev, true
}

// Reader reads a JSONL event file.
type Reader struct {
	path string
	file *os.File
}

// NewReader opens a JSONL event file.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	return &Reader{path: path, file: file}, nil
}

// Path returns the file path being read.
func (r *Reader) Path() string {
	return r.path
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadAll reads every event in the file.
func (r *Reader) ReadAll() ([]stream.Event, error) {
	events, _, err := r.ReadFrom(0)
	return events, err
}

// ReadFrom reads the complete lines starting at a byte offset and returns
// the offset just past the last complete line. A trailing partial line is
// left for the next call.
func (r *Reader) ReadFrom(offset int64) ([]stream.Event, int64, error) {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek to offset: %w", err)
	}

	var events []stream.Event
	offset, err := readLines(bufio.NewReader(r.file), offset, func(ev stream.Event) {
		events = append(events, ev)
	})
	if err != nil {
		return events, offset, err
	}
	return events, offset, nil
}

// Tail follows the file from its current end and sends new events to the
// returned channel. The channel is closed when ctx is cancelled.
// fsnotify is used when available, with polling as the fallback.
func (r *Reader) Tail(ctx context.Context) <-chan stream.Event {
	return r.TailFrom(ctx, -1)
}

// TailFrom is like Tail but starts at a byte offset, typically the one
// returned by ReadFrom. A negative offset starts at the end of the file.
func (r *Reader) TailFrom(ctx context.Context, offset int64) <-chan stream.Event {
	ch := make(chan stream.Event, 100)

	go func() {
		defer close(ch)

		if offset < 0 {
			end, err := r.file.Seek(0, io.SeekEnd)
			if err != nil {
				return
			}
			offset = end
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			r.tailPolling(ctx, ch, offset)
			return
		}
		defer watcher.Close()

		// Watching the directory survives editors that replace the file.
		if err := watcher.Add(filepath.Dir(r.path)); err != nil {
			r.tailPolling(ctx, ch, offset)
			return
		}

		// Catch up on anything written before the watch started.
		offset = r.readNew(ctx, ch, offset)
		r.tailWithWatcher(ctx, ch, watcher, offset)
	}()

	return ch
}

func (r *Reader) tailWithWatcher(ctx context.Context, ch chan<- stream.Event, watcher *fsnotify.Watcher, offset int64) {
	baseName := filepath.Base(r.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != baseName || !event.Has(fsnotify.Write) {
				continue
			}
			offset = r.readNew(ctx, ch, offset)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("jsonl watcher error", slog.String("path", r.path), slog.Any("error", err))
		}
	}
}

func (r *Reader) tailPolling(ctx context.Context, ch chan<- stream.Event, offset int64) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			offset = r.readNew(ctx, ch, offset)
		}
	}
}

// readNew sends events appended since offset and returns the new offset.
// A truncated file is read again from the start.
func (r *Reader) readNew(ctx context.Context, ch chan<- stream.Event, offset int64) int64 {
	info, err := r.file.Stat()
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		offset = 0
	}

	events, next, err := r.ReadFrom(offset)
	if err != nil {
		slog.Debug("jsonl read failed", slog.String("path", r.path), slog.Any("error", err))
	}
	for _, ev := range events {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return next
		}
	}
	return next
}

// readLines calls fn for each complete, well-formed line and returns the
// offset past the last complete line.
func readLines(reader *bufio.Reader, offset int64, fn func(stream.Event)) (int64, error) {
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Partial line: wait for the rest.
				return offset, nil
			}
			return offset, fmt.Errorf("read jsonl: %w", err)
		}
		offset += int64(len(line))
		if ev, ok := decodeLine(line); ok {
			fn(ev)
		}
	}
}

// ReadFile reads all events from a JSONL file path.
func ReadFile(path string) ([]stream.Event, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}
