package spe

import (
	"errors"
	"fmt"
)

// Errors reported by the packet parser and the decoder. End of stream
// is reported as io.EOF.
var (
	// ErrNeedMoreBytes is returned by a PacketDecoder when the buffer
	// ends before the packet does.
	ErrNeedMoreBytes = errors.New("spe: truncated packet")

	// ErrBadHeader is returned by a PacketDecoder for a reserved or
	// unknown header byte.
	ErrBadHeader = errors.New("spe: bad packet header")

	// ErrMalformedPacket is returned by Decode when no packet could be
	// parsed at the current stream position. The decoder has advanced
	// the stream by exactly one byte; calling Decode again resumes
	// decoding at the next position.
	ErrMalformedPacket = errors.New("spe: malformed packet")

	// ErrBadPacketSeq is returned by Decode when a packet kind or an
	// operation class outside the protocol is met. The record being
	// assembled is abandoned.
	ErrBadPacketSeq = errors.New("spe: bad packet sequence")
)

// SourceError wraps an error returned by the TraceSource pull
// callback. The underlying error is available through Unwrap.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("spe: trace source: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
