package spe

import (
	"errors"
	"io"
	"iter"

	"armspe/common"
)

// Params configures a Decoder.
type Params struct {
	// Source supplies the raw trace bytes. Required.
	Source TraceSource

	// PacketDecoder parses single packets from the stream. Nil selects
	// the standard WireFormat encoding.
	PacketDecoder PacketDecoder

	// Log receives advisory diagnostics. Nil disables them.
	Log common.Logger
}

// Decoder assembles SPE sample records from a pulled byte stream.
//
// A Decoder is created once per trace stream. It is not safe for
// concurrent use; distinct Decoder instances share no state and may
// run on separate goroutines.
type Decoder struct {
	src    TraceSource
	pktDec PacketDecoder
	log    common.Logger

	// buf is the unconsumed tail of the span borrowed from the source.
	// It is replaced wholesale on every pull and never retained across
	// pull boundaries.
	buf []byte

	// packet is scratch state, overwritten for every packet parsed.
	packet Packet

	record Record

	// seenAddrIndex records which unsupported address packet indexes
	// have already been warned about for this instance.
	seenAddrIndex uint32
}

// NewDecoder creates a Decoder for one trace stream. It fails if
// p.Source is nil: a decoder with no data source is meaningless.
func NewDecoder(p Params) (*Decoder, error) {
	if p.Source == nil {
		return nil, errors.New("spe: NewDecoder: no trace source")
	}
	d := &Decoder{
		src:    p.Source,
		pktDec: p.PacketDecoder,
		log:    p.Log,
	}
	if d.pktDec == nil {
		d.pktDec = WireFormat{}
	}
	if d.log == nil {
		d.log = common.NewNoOpLogger()
	}
	return d, nil
}

// Close releases the decoder's hold on the current borrowed span and
// its source. The decoder must not be used afterwards.
func (d *Decoder) Close() error {
	d.buf = nil
	d.src = nil
	return nil
}

// Decode assembles and returns the next sample record.
//
// The error result distinguishes the non-record outcomes: io.EOF when
// the source has no further bytes, ErrMalformedPacket after a one-byte
// resynchronisation (retryable: call Decode again), ErrBadPacketSeq
// when the stream contains a packet outside the protocol, and a
// *SourceError when the pull callback fails. No partially assembled
// record is ever returned.
func (d *Decoder) Decode() (Record, error) {
	d.record = Record{ContextID: UnsetContextID}

	for {
		if err := d.nextPacket(); err != nil {
			return Record{}, err
		}

		index := d.packet.Index
		payload := d.packet.Payload

		switch d.packet.Kind {
		case PacketTimestamp:
			d.record.Timestamp = payload
			return d.record, nil

		case PacketEnd:
			return d.record, nil

		case PacketAddress:
			ip := d.calcIP(index, payload)
			switch index {
			case AddrIndexIns:
				d.record.FromIP = ip
			case AddrIndexBranch:
				d.record.ToIP = ip
			case AddrIndexDataVirt:
				d.record.VirtAddr = ip
			case AddrIndexDataPhys:
				d.record.PhysAddr = ip
			case AddrIndexPrevBranch:
				d.record.PrevBrTgt = ip
			}

		case PacketCounter:
			if index == CounterTotalLat {
				d.record.Latency = payload
			}

		case PacketContext:
			d.record.ContextID = payload

		case PacketOpType:
			if err := d.decodeOpType(index, payload); err != nil {
				return Record{}, err
			}

		case PacketEvents:
			d.decodeEvents(payload)

		case PacketDataSource:
			d.record.Source = payload

		case PacketBad, PacketPad:
			// Bad packets carry nothing usable; pads are filtered
			// before dispatch but tolerated here.

		default:
			d.log.Logf(common.SeverityError,
				"unknown packet kind %d in record", d.packet.Kind)
			return Record{}, ErrBadPacketSeq
		}
	}
}

// nextPacket parses the next non-pad packet into d.packet, pulling
// more trace data whenever the current span is exhausted.
func (d *Decoder) nextPacket() error {
	for {
		for len(d.buf) == 0 {
			chunk, err := d.src.NextChunk()
			if err != nil {
				return &SourceError{Err: err}
			}
			if len(chunk) == 0 {
				return io.EOF
			}
			d.buf = chunk
		}

		pkt, n, err := d.pktDec.DecodePacket(d.buf)
		if n <= 0 || err != nil {
			// Deliberate byte-level resynchronisation: skip one byte
			// and let the caller retry from the next position.
			d.buf = d.buf[1:]
			d.log.Logf(common.SeverityDebug, "packet parse failed: %v", err)
			return ErrMalformedPacket
		}

		d.packet = pkt
		d.buf = d.buf[n:]

		if pkt.Kind != PacketPad {
			return nil
		}
	}
}

func (d *Decoder) decodeOpType(class int, payload uint64) error {
	switch class {
	case OpClassLdStAtomic:
		d.record.Op |= OpLDST
		if payload&opLdStStBit != 0 {
			d.record.Op |= OpST
		} else {
			d.record.Op |= OpLD
		}
		if opIsLdStSVE(payload) {
			d.record.Op |= OpSVELdSt
		}

	case OpClassOther:
		d.record.Op |= OpOther
		if opIsOtherSVE(payload) {
			d.record.Op |= OpSVEOther
		}

	case OpClassBrEret:
		d.record.Op |= OpBranchEret
		if payload&opBrCondBit != 0 {
			d.record.Op |= OpBrCond
		}
		if payload&opBrIndirectBit != 0 {
			d.record.Op |= OpBrIndirect
		}
		if payload&opBrGCSBit != 0 {
			d.record.Op |= OpBrGCS
		}
		switch opBrCr(payload) {
		case opBrCrBL:
			d.record.Op |= OpBrCrBL
		case opBrCrRet:
			d.record.Op |= OpBrCrRet
		case opBrCrNonBLRet:
			d.record.Op |= OpBrCrNonBLRet
		}

	default:
		d.log.Logf(common.SeverityError,
			"unknown operation class %d in op type packet", class)
		return ErrBadPacketSeq
	}

	return nil
}

var eventSampleFlags = []struct {
	bit  int
	flag SampleFlag
}{
	{EvL1DRefill, SampleL1DMiss},
	{EvL1DAccess, SampleL1DAccess},
	{EvTLBWalk, SampleTLBMiss},
	{EvTLBAccess, SampleTLBAccess},
	{EvLLCMiss, SampleLLCMiss},
	{EvLLCAccess, SampleLLCAccess},
	{EvRemoteAccess, SampleRemoteAccess},
	{EvMispred, SampleBranchMiss},
	{EvNotTaken, SampleBranchNotTaken},
	{EvTransactional, SampleInTxn},
	{EvPartialPredicate, SampleSVEPartialPred},
	{EvEmptyPredicate, SampleSVEEmptyPred},
}

func (d *Decoder) decodeEvents(payload uint64) {
	for _, ev := range eventSampleFlags {
		if payload&(1<<uint(ev.bit)) != 0 {
			d.record.Type |= ev.flag
		}
	}
}

// Records returns the remaining stream as a lazy sequence of records.
// Positions holding malformed bytes are skipped. The sequence ends
// silently at end of stream; any other failure is yielded once with a
// zero Record and then the sequence stops. The sequence is not
// restartable after a fatal error.
func (d *Decoder) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := d.Decode()
			switch {
			case err == nil:
				if !yield(rec, nil) {
					return
				}
			case errors.Is(err, ErrMalformedPacket):
				// Resynchronised one byte further on; keep going.
			case errors.Is(err, io.EOF):
				return
			default:
				yield(Record{}, err)
				return
			}
		}
	}
}
