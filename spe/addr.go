package spe

import "armspe/common"

// Address packet payload layout. Bits 55:0 carry the address; the top
// byte carries tag bits whose meaning depends on the address index.
const (
	addrMask56   = (uint64(1) << 56) - 1
	addrTopShift = 56

	// Exception level field of instruction and branch addresses.
	EL0 = 0
	EL1 = 1
	EL2 = 2
	EL3 = 3
)

func addrNS(payload uint64) uint64 { return payload >> 63 & 0x1 }
func addrEL(payload uint64) uint64 { return payload >> 61 & 0x3 }

// calcIP converts a raw address packet payload into a canonical
// 64-bit address for the given address index. The tag byte is
// replaced by 0x00 or 0xFF so that the address can be matched against
// kernel or user symbols directly.
func (d *Decoder) calcIP(index int, payload uint64) uint64 {
	switch index {
	case AddrIndexIns, AddrIndexBranch, AddrIndexPrevBranch:
		ns := addrNS(payload)
		el := addrEL(payload)

		payload &= addrMask56

		// Kernel-space sign extension for EL1 or EL2 (VHE) mode.
		if ns == 1 && (el == EL1 || el == EL2) {
			payload |= 0xff << addrTopShift
		}

	case AddrIndexDataVirt:
		// The top byte is the top-byte tag, so only bits 55:0 carry
		// address. A 0xF pattern in bits 55:52 marks a kernel-space
		// address; restore the top byte so symbol lookup works.
		payload &= addrMask56
		if payload>>52&0xf == 0xf {
			payload |= 0xff << addrTopShift
		}

	case AddrIndexDataPhys:
		payload &= addrMask56

	default:
		// Indexes the 32-bit mask cannot hold share its top bit so the
		// warning stays once-only for them too.
		bit := uint32(1) << 31
		if index >= 0 && index < 31 {
			bit = 1 << uint(index)
		}
		if d.seenAddrIndex&bit == 0 {
			d.seenAddrIndex |= bit
			d.log.Logf(common.SeverityWarning,
				"ignoring unsupported address packet index: %#x", index)
		}
	}

	return payload
}

// Operation packet payload bit accessors, per class.

const (
	opLdStStBit = 1 << 0

	opBrCondBit     = 1 << 0
	opBrIndirectBit = 1 << 1
	opBrGCSBit      = 1 << 2

	opBrCrShift = 3
	opBrCrMask  = 0x3 << opBrCrShift

	opBrCrBL       = 1
	opBrCrRet      = 2
	opBrCrNonBLRet = 3
)

// opIsLdStSVE reports an SVE load/store/gather in a load-store-atomic
// class payload.
func opIsLdStSVE(payload uint64) bool {
	return payload&(1<<3|1<<1) == 0x8
}

// opIsOtherSVE reports an SVE operation in an other class payload.
func opIsOtherSVE(payload uint64) bool {
	return payload&(1<<7|1<<3|1<<1) == 0x8
}

// opBrCr extracts the call-return refinement field of a branch-or-eret
// class payload: 1 = branch-and-link, 2 = return, 3 = neither.
func opBrCr(payload uint64) uint64 {
	return (payload & opBrCrMask) >> opBrCrShift
}
