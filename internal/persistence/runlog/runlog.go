// Package runlog records one compressed JSON line per simulation step.
// A run's log is a single zstd-framed JSONL file of world.TickStats
// entries, written as the run progresses and read back for replay.
package runlog

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/fgamador/evo2/internal/sim/world"
)

// Writer appends TickStats entries to a run's log file. It implements
// world.StatsLogger, so it can be attached to a world directly.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens a fresh log file at path, creating parent directories as
// needed. An existing file is truncated.
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
	return &Writer{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// WriteTick appends one entry and flushes it into the compressor.
func (w *Writer) WriteTick(s world.TickStats) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the compressor frame and closes the file. The log is
// not readable until Close has run.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// Reader streams TickStats entries back out of a run's log file.
type Reader struct {
	f   *os.File
	dec *zstd.Decoder
	sc  *bufio.Scanner
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Reader{f: f, dec: dec, sc: sc}, nil
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (world.TickStats, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return world.TickStats{}, err
		}
		return world.TickStats{}, io.EOF
	}
	var s world.TickStats
	if err := json.Unmarshal(r.sc.Bytes(), &s); err != nil {
		return world.TickStats{}, err
	}
	return s, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// ReadAll decodes an entire run log into memory.
func ReadAll(path string) ([]world.TickStats, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []world.TickStats
	for {
		s, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}
