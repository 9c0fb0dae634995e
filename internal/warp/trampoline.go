// Package warp synthesizes and drives the THUMB trampoline that forces
// the game engine into a map load, working around its high-level warp
// routine being unavailable as a stable call target (spec.md §4.G).
package warp

import "encoding/binary"

// verifyHalfword is the fixed first halfword of the trampoline
// (PUSH {R4, LR}); reading it back after placement is how Engine
// confirms the write landed.
const verifyHalfword = 0xB510

const trampolineSize = 0x1C

// THUMB halfword encodings for the trampoline's 8 instructions
// (spec.md §4.G layout). Only R4/R1/LR/PC are ever used, so these are
// fixed constants rather than a general encoder.
const (
	insnPushR4LR      = 0xB510 // PUSH {R4, LR}
	insnLdrR4PC12     = 0x4C03 // LDR R4, [PC, #12]
	insnMovLRPc       = 0x46FE // MOV LR, PC
	insnBxR4          = 0x4720 // BX R4
	insnLdrR4PC8      = 0x4C02 // LDR R4, [PC, #8]
	insnLdrR1PC12     = 0x4903 // LDR R1, [PC, #12]
	insnStrR4R1       = 0x600C // STR R4, [R1]
	insnPopR4PC       = 0xBD10 // POP {R4, PC}
)

// Encode builds the trampoline's 28-byte byte image (spec.md §4.G).
// loadCurrentMapData and cb2LoadMap are THUMB function addresses (bit 0
// already set by the caller if required); callback2Addr is the address
// of the engine's second-level callback pointer.
func Encode(loadCurrentMapData, cb2LoadMap, callback2Addr uint32) []byte {
	out := make([]byte, trampolineSize)
	h := func(off int, v uint16) { binary.LittleEndian.PutUint16(out[off:], v) }
	w := func(off int, v uint32) { binary.LittleEndian.PutUint32(out[off:], v) }

	h(0x00, insnPushR4LR)
	h(0x02, insnLdrR4PC12)
	h(0x04, insnMovLRPc)
	h(0x06, insnBxR4)
	h(0x08, insnLdrR4PC8)
	h(0x0A, insnLdrR1PC12)
	h(0x0C, insnStrR4R1)
	h(0x0E, insnPopR4PC)
	w(0x10, loadCurrentMapData)
	w(0x14, cb2LoadMap)
	w(0x18, callback2Addr)
	return out
}
