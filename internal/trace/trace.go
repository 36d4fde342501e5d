// Package trace writes episode events as zstd-compressed JSON lines.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"skirmish/internal/combat"
)

// Entry is one engine event tagged with the run and episode it came from.
type Entry struct {
	Run     string `json:"run"`
	Episode int    `json:"episode"`
	combat.Event
}

type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create truncates path and opens a new trace there.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("trace %s: write after close", w.path)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Sink adapts the writer to an engine event hook for one episode. Write
// errors are reported through onErr.
func (w *Writer) Sink(run string, episode int, onErr func(error)) func(combat.Event) {
	return func(ev combat.Event) {
		if err := w.Write(Entry{Run: run, Episode: episode, Event: ev}); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	ferr := w.w.Flush()
	if err := w.enc.Close(); ferr == nil {
		ferr = err
	}
	if err := w.f.Close(); ferr == nil {
		ferr = err
	}
	w.w, w.enc, w.f = nil, nil, nil
	return ferr
}

// ReadEvents decodes a whole trace file.
func ReadEvents(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return decode(dec)
}

func decode(r io.Reader) ([]Entry, error) {
	var out []Entry
	jd := json.NewDecoder(r)
	for {
		var e Entry
		if err := jd.Decode(&e); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, fmt.Errorf("trace entry %d: %w", len(out), err)
		}
		out = append(out, e)
	}
}
