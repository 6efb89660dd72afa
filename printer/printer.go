// Package printer renders decoded SPE packets and records as fixed
// format text lines for the debug tools.
package printer

import (
	"fmt"
	"strings"

	"armspe/spe"
)

// FormatPacketLine formats one raw packet with its stream offset.
func FormatPacketLine(offset uint64, pkt spe.Packet) string {
	return fmt.Sprintf("Idx:%d; %s : %s", offset, pkt.Kind, packetDescription(pkt))
}

// FormatRecordLine formats one record with its ordinal in the stream.
func FormatRecordLine(n uint64, rec spe.Record) string {
	return fmt.Sprintf("Rec:%d; %s", n, FormatRecord(rec))
}

// FormatRecord formats a record on a single line. Fields still at
// their unset value are elided.
func FormatRecord(rec spe.Record) string {
	var parts []string

	if rec.Timestamp != 0 {
		parts = append(parts, fmt.Sprintf("TS=%d", rec.Timestamp))
	}
	if rec.FromIP != 0 {
		parts = append(parts, fmt.Sprintf("PC=0x%x", rec.FromIP))
	}
	if rec.ToIP != 0 {
		parts = append(parts, fmt.Sprintf("TGT=0x%x", rec.ToIP))
	}
	if rec.PrevBrTgt != 0 {
		parts = append(parts, fmt.Sprintf("PBT=0x%x", rec.PrevBrTgt))
	}
	if rec.VirtAddr != 0 {
		parts = append(parts, fmt.Sprintf("VA=0x%x", rec.VirtAddr))
	}
	if rec.PhysAddr != 0 {
		parts = append(parts, fmt.Sprintf("PA=0x%x", rec.PhysAddr))
	}
	if rec.ContextID != spe.UnsetContextID {
		parts = append(parts, fmt.Sprintf("CONTEXT=0x%x", rec.ContextID))
	}
	if rec.Latency != 0 {
		parts = append(parts, fmt.Sprintf("LAT=%d", rec.Latency))
	}
	if rec.Op != 0 {
		parts = append(parts, fmt.Sprintf("OP=%s", rec.Op))
	}
	if rec.Type != 0 {
		parts = append(parts, fmt.Sprintf("EV=%s", rec.Type))
	}
	if rec.Source != 0 {
		parts = append(parts, fmt.Sprintf("SRC=0x%x", rec.Source))
	}

	if len(parts) == 0 {
		return "(empty record)"
	}
	return strings.Join(parts, "; ")
}

func packetDescription(pkt spe.Packet) string {
	switch pkt.Kind {
	case spe.PacketPad:
		return "Padding"
	case spe.PacketEnd:
		return "End of record"
	case spe.PacketTimestamp:
		return fmt.Sprintf("Timestamp; TS=%d", pkt.Payload)
	case spe.PacketAddress:
		return fmt.Sprintf("Address packet; index=%s; payload=0x%016x",
			addrIndexName(pkt.Index), pkt.Payload)
	case spe.PacketCounter:
		return fmt.Sprintf("Counter packet; index=%s; count=%d",
			counterIndexName(pkt.Index), pkt.Payload)
	case spe.PacketContext:
		return fmt.Sprintf("Context packet; id=0x%x", pkt.Payload)
	case spe.PacketOpType:
		return fmt.Sprintf("Operation type packet; class=%d; payload=0x%02x",
			pkt.Index, pkt.Payload)
	case spe.PacketEvents:
		return fmt.Sprintf("Events packet; payload=0x%x", pkt.Payload)
	case spe.PacketDataSource:
		return fmt.Sprintf("Data source packet; source=0x%x", pkt.Payload)
	case spe.PacketBad:
		return "Bad packet"
	default:
		return "Unknown packet"
	}
}

func addrIndexName(index int) string {
	switch index {
	case spe.AddrIndexIns:
		return "PC"
	case spe.AddrIndexBranch:
		return "BRANCH-TGT"
	case spe.AddrIndexDataVirt:
		return "DATA-VA"
	case spe.AddrIndexDataPhys:
		return "DATA-PA"
	case spe.AddrIndexPrevBranch:
		return "PREV-BRANCH-TGT"
	default:
		return fmt.Sprintf("RESERVED(%d)", index)
	}
}

func counterIndexName(index int) string {
	switch index {
	case spe.CounterTotalLat:
		return "TOTAL-LAT"
	case spe.CounterIssueLat:
		return "ISSUE-LAT"
	case spe.CounterTransLat:
		return "TRANS-LAT"
	default:
		return fmt.Sprintf("RESERVED(%d)", index)
	}
}
