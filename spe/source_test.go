package spe

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBufferSource_WholeBuffer(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	s := NewBufferSource(data, 0)

	chunk, err := s.NextChunk()
	if err != nil {
		t.Fatalf("NextChunk() error: %v", err)
	}
	if !bytes.Equal(chunk, data) {
		t.Errorf("NextChunk() = %v, want %v", chunk, data)
	}

	chunk, err = s.NextChunk()
	if err != nil || len(chunk) != 0 {
		t.Errorf("NextChunk() after exhaustion = (%v, %v), want empty end-of-stream", chunk, err)
	}
}

func TestBufferSource_ChunkSizes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	s := NewBufferSource(data, 2)

	var got [][]byte
	for {
		chunk, err := s.NextChunk()
		if err != nil {
			t.Fatalf("NextChunk() error: %v", err)
		}
		if len(chunk) == 0 {
			break
		}
		got = append(got, chunk)
	}

	want := [][]byte{{1, 2}, {3, 4}, {5}}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("chunk %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReaderSource_ServesAndEnds(t *testing.T) {
	s := NewReaderSource(bytes.NewReader([]byte{1, 2, 3}), 2)

	var got []byte
	for {
		chunk, err := s.NextChunk()
		if err != nil {
			t.Fatalf("NextChunk() error: %v", err)
		}
		if len(chunk) == 0 {
			break
		}
		got = append(got, chunk...)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("read %v, want [1 2 3]", got)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestReaderSource_PropagatesError(t *testing.T) {
	readErr := errors.New("device gone")
	s := NewReaderSource(failingReader{err: readErr}, 16)

	_, err := s.NextChunk()
	if !errors.Is(err, readErr) {
		t.Fatalf("NextChunk() error = %v, want %v", err, readErr)
	}
}

// dataThenErrReader returns its data and error from one Read call,
// then io.EOF forever.
type dataThenErrReader struct {
	data []byte
	err  error
	done bool
}

func (r *dataThenErrReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	return copy(p, r.data), r.err
}

func TestReaderSource_ErrorAfterDataSurfacesOnNextPull(t *testing.T) {
	readErr := errors.New("device gone")
	s := NewReaderSource(&dataThenErrReader{data: []byte{0x71}, err: readErr}, 16)

	chunk, err := s.NextChunk()
	if err != nil {
		t.Fatalf("NextChunk() error: %v", err)
	}
	if !bytes.Equal(chunk, []byte{0x71}) {
		t.Fatalf("NextChunk() = %v, want the data delivered before the error", chunk)
	}

	// The error must not be lost even though the reader never returns
	// it again.
	if _, err := s.NextChunk(); !errors.Is(err, readErr) {
		t.Fatalf("second NextChunk() error = %v, want %v", err, readErr)
	}
}

func TestReaderSource_EOFWithFinalData(t *testing.T) {
	s := NewReaderSource(&dataThenErrReader{data: []byte{1, 2}, err: io.EOF}, 16)

	chunk, err := s.NextChunk()
	if err != nil {
		t.Fatalf("NextChunk() error: %v", err)
	}
	if !bytes.Equal(chunk, []byte{1, 2}) {
		t.Fatalf("NextChunk() = %v, want [1 2]", chunk)
	}

	chunk, err = s.NextChunk()
	if err != nil || len(chunk) != 0 {
		t.Errorf("NextChunk() after final read = (%v, %v), want empty end-of-stream", chunk, err)
	}
}

func TestReaderSource_BorrowedSpanReused(t *testing.T) {
	// The span handed out is overwritten by the following pull; a
	// decoder must consume it before pulling again.
	s := NewReaderSource(bytes.NewReader([]byte{1, 2, 3, 4}), 2)

	first, err := s.NextChunk()
	if err != nil {
		t.Fatalf("NextChunk() error: %v", err)
	}
	firstCopy := append([]byte(nil), first...)

	if _, err := s.NextChunk(); err != nil {
		t.Fatalf("NextChunk() error: %v", err)
	}

	if bytes.Equal(first, firstCopy) {
		t.Skip("reader returned identical bytes; reuse not observable")
	}
}

func TestReaderSource_DecodesStream(t *testing.T) {
	raw := stream(encTimestamp(3), encTimestamp(4))
	d, err := NewDecoder(Params{
		// Chunk boundary placed exactly between the two packets.
		Source: NewReaderSource(bytes.NewReader(raw), 9),
	})
	if err != nil {
		t.Fatalf("NewDecoder() error: %v", err)
	}

	for _, want := range []uint64{3, 4} {
		rec, err := d.Decode()
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		assertEqual(t, want, rec.Timestamp, "Timestamp")
	}
	if _, err := d.Decode(); !errors.Is(err, io.EOF) {
		t.Fatalf("Decode() after stream end: got %v, want io.EOF", err)
	}
}

func TestDecode_ChunkBoundaryInsidePacketIsMalformed(t *testing.T) {
	// Spans must end on packet boundaries; a timestamp packet split by
	// the chunk size decodes as malformed bytes, not as a record.
	d := newTestDecoder(t, encTimestamp(1), 5)

	if _, err := d.Decode(); !errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("Decode() across a split packet: got %v, want ErrMalformedPacket", err)
	}
}
