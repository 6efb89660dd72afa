package spe

import "encoding/binary"

// PacketDecoder parses exactly one packet from the front of a byte
// span. It returns the packet and the number of bytes it occupies. A
// count of zero or less, together with a non-nil error, means no
// valid packet starts at this position; the caller decides how to
// resynchronise.
type PacketDecoder interface {
	DecodePacket(buf []byte) (Packet, int, error)
}

// PacketDecoderFunc adapts a function to the PacketDecoder interface.
type PacketDecoderFunc func(buf []byte) (Packet, int, error)

func (f PacketDecoderFunc) DecodePacket(buf []byte) (Packet, int, error) { return f(buf) }

// SPE packet header encodings. A header is one byte, except for the
// extended form where a 0b001xxxxx prefix byte carries the upper
// index bits and the following byte selects address or counter.
const (
	hdrPad       = 0x00
	hdrEnd       = 0x01
	hdrTimestamp = 0x71

	hdrEvents     = 0x42 // mask 0xcf, bits 5:4 select payload size
	hdrDataSource = 0x43 // mask 0xcf
	maskEvSrc     = 0xcf

	hdrContext  = 0x64 // mask 0xfc, bits 1:0 index
	hdrOpType   = 0x48 // mask 0xfc, bits 1:0 class
	maskCtxOp   = 0xfc
	hdrExtended = 0x20 // mask 0xe0, bits 1:0 upper index bits
	maskExt     = 0xe0

	hdrAddress   = 0xb0 // mask 0xf8, bits 2:0 index
	hdrCounter   = 0x98 // mask 0xf8
	maskAddrCnt  = 0xf8
	hdrAlignment = 0x00 // second byte of an extended header

	// Runs of zero pad bytes coalesce into a single packet, bounded so
	// one packet never spans more than a cache line of padding.
	maxPadRun = 16
)

// payloadLen returns the payload size encoded in bits 5:4 of a header
// byte: 1, 2, 4 or 8 bytes.
func payloadLen(hdr byte) int {
	return 1 << ((hdr & 0x30) >> 4)
}

// WireFormat is the standard SPE byte encoding. It is the
// PacketDecoder a Decoder uses unless the caller supplies another.
// The zero value is ready to use.
type WireFormat struct{}

// DecodePacket implements PacketDecoder.
func (WireFormat) DecodePacket(buf []byte) (Packet, int, error) {
	pkt, n, err := decodeOne(buf)
	if err != nil {
		return Packet{}, n, err
	}
	// Put consecutive pad bytes in the same packet.
	if pkt.Kind == PacketPad {
		for n < maxPadRun && n < len(buf) && buf[n] == hdrPad {
			n++
		}
	}
	return pkt, n, nil
}

func decodeOne(buf []byte) (Packet, int, error) {
	if len(buf) == 0 {
		return Packet{}, 0, ErrNeedMoreBytes
	}

	hdr := buf[0]
	switch {
	case hdr == hdrPad:
		return Packet{Kind: PacketPad}, 1, nil

	case hdr == hdrEnd:
		return Packet{Kind: PacketEnd}, 1, nil

	case hdr == hdrTimestamp:
		return withPayload(PacketTimestamp, 0, buf, 1)

	case hdr&maskEvSrc == hdrEvents:
		// The events packet index reports the payload length so
		// consumers know which event bits were captured.
		return withPayload(PacketEvents, payloadLen(hdr), buf, 1)

	case hdr&maskEvSrc == hdrDataSource:
		return withPayload(PacketDataSource, 0, buf, 1)

	case hdr&maskCtxOp == hdrContext:
		return withPayload(PacketContext, int(hdr&0x3), buf, 1)

	case hdr&maskCtxOp == hdrOpType:
		return withPayload(PacketOpType, int(hdr&0x3), buf, 1)

	case hdr&maskExt == hdrExtended:
		return decodeExtended(buf)

	case hdr&maskAddrCnt == hdrAddress:
		return withPayload(PacketAddress, int(hdr&0x7), buf, 1)

	case hdr&maskAddrCnt == hdrCounter:
		return withPayload(PacketCounter, int(hdr&0x7), buf, 1)
	}

	return Packet{}, 0, ErrBadHeader
}

// decodeExtended handles the two-byte header form. The second byte is
// an address or counter header whose 3-bit index is widened to 5 bits
// by the prefix byte.
func decodeExtended(buf []byte) (Packet, int, error) {
	if len(buf) < 2 {
		return Packet{}, 0, ErrNeedMoreBytes
	}
	hdr := buf[1]
	index := int(buf[0]&0x3)<<3 | int(hdr&0x7)

	switch {
	case hdr == hdrAlignment:
		// Alignment packet. The zero filler bytes that follow are
		// ordinary pads, so only the header itself is consumed here.
		return Packet{Kind: PacketPad}, 2, nil
	case hdr&maskAddrCnt == hdrAddress:
		return withPayload(PacketAddress, index, buf, 2)
	case hdr&maskAddrCnt == hdrCounter:
		return withPayload(PacketCounter, index, buf, 2)
	}

	return Packet{}, 0, ErrBadHeader
}

// withPayload reads the little-endian payload that follows hdrLen
// header bytes. The payload size comes from the last header byte.
func withPayload(kind PacketKind, index int, buf []byte, hdrLen int) (Packet, int, error) {
	plen := payloadLen(buf[hdrLen-1])
	if len(buf) < hdrLen+plen {
		return Packet{}, 0, ErrNeedMoreBytes
	}

	var payload uint64
	p := buf[hdrLen:]
	switch plen {
	case 1:
		payload = uint64(p[0])
	case 2:
		payload = uint64(binary.LittleEndian.Uint16(p))
	case 4:
		payload = uint64(binary.LittleEndian.Uint32(p))
	case 8:
		payload = binary.LittleEndian.Uint64(p)
	}

	return Packet{Kind: kind, Index: index, Payload: payload}, hdrLen + plen, nil
}
