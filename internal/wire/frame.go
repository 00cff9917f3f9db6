package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single envelope. Large asset payloads belong in
// files, not in the command stream.
const maxFrameBytes = 8 << 20

// Reader reads newline-delimited JSON envelopes from a stream.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader wraps a stream in an envelope reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxFrameBytes)
	return &Reader{sc: sc}
}

// Next returns the raw bytes of the next frame. Empty lines are skipped.
// Returns io.EOF when the stream ends.
func (r *Reader) Next() ([]byte, error) {
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer; callers keep frames across reads.
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// NextCommand reads and decodes the next command envelope.
func (r *Reader) NextCommand() (*Command, error) {
	data, err := r.Next()
	if err != nil {
		return nil, err
	}
	return DecodeCommand(data)
}

// Writer writes newline-delimited JSON envelopes to a stream.
type Writer struct {
	w io.Writer
}

// NewWriter wraps a stream in an envelope writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write serializes v as one frame.
func (w *Writer) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
