package battle

import (
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/pkg/bits"
)

// ExecFlags mirrors the engine's 4-byte controller-execute-flags word
// (spec.md §4.I "Invariant for both sides").
type ExecFlags struct {
	B0, B1, B2, B3 uint8
}

// ReadExecFlags loads the raw word from domain at addr.
func ReadExecFlags(gw *memory.Gateway, domain memory.Domain, addr uint32) (ExecFlags, bool) {
	v, ok := gw.ReadU32(domain, addr)
	if !ok {
		return ExecFlags{}, false
	}
	return ExecFlags{
		B0: uint8(v),
		B1: uint8(v >> 8),
		B2: uint8(v >> 16),
		B3: uint8(v >> 24),
	}, true
}

// WriteExecFlags stores e back to domain at addr.
func WriteExecFlags(gw *memory.Gateway, domain memory.Domain, addr uint32, e ExecFlags) bool {
	return gw.WriteU32(domain, addr, bits.Uint32(e.B0, e.B1, e.B2, e.B3))
}

// Active reports whether the engine wants battler b's controller to run.
func (e ExecFlags) Active(b int) bool { return bits.Test(e.B0, uint8(b)) }

// SetActive sets or clears battler b's active bit.
func (e *ExecFlags) SetActive(b int, v bool) { setBit(&e.B0, uint8(b), v) }

// NetworkWait reports whether the protocol is holding battler b pending
// the peer.
func (e ExecFlags) NetworkWait(b int) bool { return bits.Test(e.B0, uint8(4+b)) }

// SetNetworkWait sets or clears battler b's network-wait bit.
func (e *ExecFlags) SetNetworkWait(b int, v bool) { setBit(&e.B0, uint8(4+b), v) }

// LinkDispatch reports whether MarkBattlerForControllerExec has flagged
// battler b's bufferA for relay. Some ROM builds set this in the low
// nibble of byte 3 rather than the documented high nibble; both are
// checked (spec.md §4.I "shift up before interpreting").
func (e ExecFlags) LinkDispatch(b int) bool {
	return bits.Test(e.B3, uint8(4+b)) || bits.Test(e.B3, uint8(b))
}

// ClearLinkDispatch clears battler b's dispatch bit in both nibble
// positions, so a low-nibble-set build is handled identically.
func (e *ExecFlags) ClearLinkDispatch(b int) {
	e.B3 = bits.Reset(e.B3, uint8(4+b))
	e.B3 = bits.Reset(e.B3, uint8(b))
}

// ClearByte2 zeroes byte 2, which the engine clears every frame
// (spec.md §4.I, §8 invariant 5).
func (e *ExecFlags) ClearByte2() { e.B2 = 0 }

func setBit(b *uint8, bit uint8, v bool) {
	if v {
		*b = bits.Set(*b, bit)
	} else {
		*b = bits.Reset(*b, bit)
	}
}
