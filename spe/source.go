package spe

import "io"

// TraceSource supplies successive chunks of raw SPE trace data to a
// Decoder. Implementations may serve a memory-mapped AUX buffer, a
// file, or a live device.
//
// NextChunk returns the next span of trace bytes. An empty chunk with
// a nil error signals end of stream: no further bytes are, or will
// become, available. The returned slice is borrowed; it is valid only
// until the next NextChunk call and the decoder never retains it
// across pulls. Every span must end on a packet boundary: a packet
// split across two pulls is reported as malformed, not reassembled.
type TraceSource interface {
	NextChunk() ([]byte, error)
}

// TraceSourceFunc adapts a plain function to the TraceSource
// interface. Per-stream state lives in the closure.
type TraceSourceFunc func() ([]byte, error)

func (f TraceSourceFunc) NextChunk() ([]byte, error) { return f() }

// BufferSource serves an in-memory trace image in fixed-size chunks.
// It is the usual source for decoding a captured AUX buffer or the
// contents of a trace file read into memory.
type BufferSource struct {
	data      []byte
	chunkSize int
	off       int
}

// NewBufferSource creates a source over data. chunkSize bounds the
// span handed out per pull; chunkSize <= 0 serves the whole remainder
// in one pull. Chunk boundaries must coincide with packet boundaries:
// a packet split across two pulls is reported as malformed, not
// reassembled.
func NewBufferSource(data []byte, chunkSize int) *BufferSource {
	return &BufferSource{data: data, chunkSize: chunkSize}
}

// NextChunk implements TraceSource.
func (s *BufferSource) NextChunk() ([]byte, error) {
	if s.off >= len(s.data) {
		return nil, nil
	}
	end := len(s.data)
	if s.chunkSize > 0 && s.off+s.chunkSize < end {
		end = s.off + s.chunkSize
	}
	chunk := s.data[s.off:end]
	s.off = end
	return chunk, nil
}

// ReaderSource serves trace data from an io.Reader through a reused
// internal buffer. Each pull overwrites the previous span, matching
// the borrowed-buffer contract of TraceSource.
type ReaderSource struct {
	r   io.Reader
	buf []byte

	// err is a read error received together with data. The data is
	// delivered first; the error is held for the following pull.
	err error
}

// NewReaderSource creates a source reading from r in chunks of up to
// bufSize bytes. bufSize <= 0 selects a 4KiB buffer.
func NewReaderSource(r io.Reader, bufSize int) *ReaderSource {
	if bufSize <= 0 {
		bufSize = 4096
	}
	return &ReaderSource{r: r, buf: make([]byte, bufSize)}
}

// NextChunk implements TraceSource. A read that returns data together
// with an error delivers the data first; the stored error surfaces on
// the following pull without touching the reader again. io.EOF maps
// to the empty end-of-stream chunk.
func (s *ReaderSource) NextChunk() ([]byte, error) {
	if err := s.err; err != nil {
		s.err = nil
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.err = err
			return s.buf[:n], nil
		}
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
