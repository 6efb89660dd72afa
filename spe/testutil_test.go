package spe

import (
	"encoding/binary"
	"testing"
)

// Wire format encoders used to build test streams.

func sizeBits(n int) byte {
	switch n {
	case 1:
		return 0x00
	case 2:
		return 0x10
	case 4:
		return 0x20
	case 8:
		return 0x30
	}
	panic("bad payload size")
}

func le(v uint64, n int) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:n]
}

func encPad(n int) []byte {
	return make([]byte, n)
}

func encEnd() []byte {
	return []byte{0x01}
}

func encTimestamp(ts uint64) []byte {
	return append([]byte{0x71}, le(ts, 8)...)
}

func encEvents(payload uint64, size int) []byte {
	return append([]byte{0x42 | sizeBits(size)}, le(payload, size)...)
}

func encDataSource(payload uint64, size int) []byte {
	return append([]byte{0x43 | sizeBits(size)}, le(payload, size)...)
}

func encContext(id uint32) []byte {
	return append([]byte{0x64}, le(uint64(id), 4)...)
}

func encOpType(class int, payload byte) []byte {
	return []byte{byte(0x48 | class), payload}
}

func encAddress(index int, payload uint64) []byte {
	if index <= 7 {
		return append([]byte{byte(0xb0 | index)}, le(payload, 8)...)
	}
	hdr := []byte{byte(0x20 | index>>3), byte(0xb0 | index&0x7)}
	return append(hdr, le(payload, 8)...)
}

func encCounter(index int, count uint16) []byte {
	if index <= 7 {
		return append([]byte{byte(0x98 | index)}, le(uint64(count), 2)...)
	}
	hdr := []byte{byte(0x20 | index>>3), byte(0x98 | index&0x7)}
	return append(hdr, le(uint64(count), 2)...)
}

// addrPayload builds an instruction/branch address payload with the
// given NS bit, EL field and 56-bit address.
func addrPayload(ns, el, addr uint64) uint64 {
	return ns<<63 | el<<61 | addr&addrMask56
}

func stream(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func newTestDecoder(t *testing.T, data []byte, chunkSize int) *Decoder {
	t.Helper()
	d, err := NewDecoder(Params{Source: NewBufferSource(data, chunkSize)})
	if err != nil {
		t.Fatalf("NewDecoder() error: %v", err)
	}
	return d
}

func assertEqual[T comparable](t *testing.T, want, got T, what string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}
