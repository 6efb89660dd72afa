// Package spe decodes an ARM Statistical Profiling Extension (SPE)
// trace byte stream into structured sample records.
//
// The stream is a sequence of variable-length packets. A group of
// packets terminated by a Timestamp or End packet forms one sample
// record. Decoder pulls raw bytes on demand from a TraceSource,
// parses packets with a PacketDecoder and folds them into Record
// values, one per Decode call.
package spe

import (
	"fmt"
	"strings"
)

// PacketKind identifies the kind of an SPE packet.
type PacketKind int

const (
	PacketBad PacketKind = iota // undecodable or reserved encoding
	PacketPad
	PacketEnd
	PacketTimestamp
	PacketAddress
	PacketCounter
	PacketContext
	PacketOpType
	PacketEvents
	PacketDataSource
)

func (k PacketKind) String() string {
	switch k {
	case PacketBad:
		return "BAD"
	case PacketPad:
		return "PAD"
	case PacketEnd:
		return "END"
	case PacketTimestamp:
		return "TS"
	case PacketAddress:
		return "ADDR"
	case PacketCounter:
		return "LAT"
	case PacketContext:
		return "CONTEXT"
	case PacketOpType:
		return "OP-TYPE"
	case PacketEvents:
		return "EVENTS"
	case PacketDataSource:
		return "DATA-SOURCE"
	default:
		return "UNKNOWN"
	}
}

// Address packet index values. The index selects which address the
// packet carries.
const (
	AddrIndexIns        = 0 // instruction virtual address
	AddrIndexBranch     = 1 // branch target address
	AddrIndexDataVirt   = 2 // data access virtual address
	AddrIndexDataPhys   = 3 // data access physical address
	AddrIndexPrevBranch = 4 // previous branch target address
)

// Counter packet index values.
const (
	CounterTotalLat = 0 // total latency
	CounterIssueLat = 1 // issue latency
	CounterTransLat = 2 // translation latency
)

// Operation type packet class values (packet header index field).
const (
	OpClassLdStAtomic = 0
	OpClassOther      = 1
	OpClassBrEret     = 2
)

// Events packet payload bit positions.
const (
	EvExceptionGen     = 0
	EvRetired          = 1
	EvL1DAccess        = 2
	EvL1DRefill        = 3
	EvTLBAccess        = 4
	EvTLBWalk          = 5
	EvNotTaken         = 6
	EvMispred          = 7
	EvLLCAccess        = 8
	EvLLCMiss          = 9
	EvRemoteAccess     = 10
	EvAlignment        = 11
	EvTransactional    = 16
	EvPartialPredicate = 17
	EvEmptyPredicate   = 18
)

// Packet is one decoded SPE packet. It is scratch state inside the
// decoder: a fresh value is produced for every packet parsed and is
// never retained across decode steps.
type Packet struct {
	Kind    PacketKind
	Index   int    // sub-selector within the kind (address index, counter index, op class)
	Payload uint64 // raw little-endian payload
}

// OpFlag classifies the sampled operation. The bit assignments match
// the values consumers of the records depend on; they must not be
// renumbered.
type OpFlag uint32

const (
	OpLD OpFlag = 1 << iota
	OpST
	OpLDST
	OpSVELdSt
	OpOther
	OpSVEOther
	OpBranchEret
	OpBrCond
	OpBrIndirect
	OpBrGCS
	OpBrCrBL
	OpBrCrRet
	OpBrCrNonBLRet
)

var opFlagNames = []struct {
	flag OpFlag
	name string
}{
	{OpLD, "LD"},
	{OpST, "ST"},
	{OpLDST, "LDST"},
	{OpSVELdSt, "SVE-LDST"},
	{OpOther, "OTHER"},
	{OpSVEOther, "SVE-OTHER"},
	{OpBranchEret, "B"},
	{OpBrCond, "COND"},
	{OpBrIndirect, "IND"},
	{OpBrGCS, "GCS"},
	{OpBrCrBL, "CR-BL"},
	{OpBrCrRet, "CR-RET"},
	{OpBrCrNonBLRet, "CR-NON-BL-RET"},
}

func (f OpFlag) String() string {
	return formatFlags(uint32(f), len(opFlagNames), func(i int) (uint32, string) {
		return uint32(opFlagNames[i].flag), opFlagNames[i].name
	})
}

// SampleFlag records the micro-architectural events observed for the
// sampled operation. Bit assignments are fixed, as for OpFlag.
type SampleFlag uint32

const (
	SampleL1DAccess SampleFlag = 1 << iota
	SampleL1DMiss
	SampleLLCAccess
	SampleLLCMiss
	SampleTLBAccess
	SampleTLBMiss
	SampleBranchMiss
	SampleRemoteAccess
	SampleSVEPartialPred
	SampleSVEEmptyPred
	SampleBranchNotTaken
	SampleInTxn
)

var sampleFlagNames = []struct {
	flag SampleFlag
	name string
}{
	{SampleL1DAccess, "L1D-ACCESS"},
	{SampleL1DMiss, "L1D-MISS"},
	{SampleLLCAccess, "LLC-ACCESS"},
	{SampleLLCMiss, "LLC-MISS"},
	{SampleTLBAccess, "TLB-ACCESS"},
	{SampleTLBMiss, "TLB-MISS"},
	{SampleBranchMiss, "BR-MISS"},
	{SampleRemoteAccess, "REMOTE"},
	{SampleSVEPartialPred, "SVE-PARTIAL-PRED"},
	{SampleSVEEmptyPred, "SVE-EMPTY-PRED"},
	{SampleBranchNotTaken, "BR-NOT-TAKEN"},
	{SampleInTxn, "TXN"},
}

func (f SampleFlag) String() string {
	return formatFlags(uint32(f), len(sampleFlagNames), func(i int) (uint32, string) {
		return uint32(sampleFlagNames[i].flag), sampleFlagNames[i].name
	})
}

func formatFlags(v uint32, n int, at func(int) (uint32, string)) string {
	if v == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		bit, name := at(i)
		if v&bit == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(name)
		v &^= bit
	}
	if v != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "0x%x", v)
	}
	return sb.String()
}

// UnsetContextID is the ContextID value of a record that carried no
// Context packet. Zero is a valid context id, so the sentinel is
// all-ones.
const UnsetContextID = ^uint64(0)

// Record is one fully assembled sample. All address, timestamp and
// latency fields use zero as "not present"; ContextID uses
// UnsetContextID. A Record is built from scratch on every Decode call
// and handed to the caller by value.
type Record struct {
	Type      SampleFlag
	Op        OpFlag
	FromIP    uint64 // sampled instruction virtual address
	ToIP      uint64 // branch target virtual address
	Timestamp uint64
	VirtAddr  uint64 // data access virtual address
	PhysAddr  uint64 // data access physical address
	PrevBrTgt uint64 // previous branch target address
	ContextID uint64
	Latency   uint64 // total latency in cycles
	Source    uint64 // raw data source payload
}
