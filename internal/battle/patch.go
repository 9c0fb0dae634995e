package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

// appliedPatch is one recorded, applied edit, remembered so it can be
// restored exactly (spec.md §5 "Patch discipline").
type appliedPatch struct {
	domain   memory.Domain
	addr     uint32
	width    config.PatchWidth
	original uint32
}

func readWidth(gw *memory.Gateway, d memory.Domain, addr uint32, w config.PatchWidth) (uint32, bool) {
	switch w {
	case config.Width8:
		v, ok := gw.ReadU8(d, addr)
		return uint32(v), ok
	case config.Width16:
		v, ok := gw.ReadU16(d, addr)
		return uint32(v), ok
	default:
		return gw.ReadU32(d, addr)
	}
}

func writeWidth(gw *memory.Gateway, d memory.Domain, addr uint32, w config.PatchWidth, v uint32) bool {
	switch w {
	case config.Width8:
		return gw.WriteU8(d, addr, uint8(v))
	case config.Width16:
		return gw.WriteU16(d, addr, uint16(v))
	default:
		return gw.WriteU32(d, addr, v)
	}
}

// applyPatch reads the original value, writes the new one, and
// verifies the write by reading back. A verification mismatch rejects
// the patch: it is not recorded and not applied (spec.md §7 "Patch
// verification failure").
func applyPatch(gw *memory.Gateway, d memory.Domain, addr uint32, w config.PatchWidth, value uint32) (appliedPatch, bool) {
	original, ok := readWidth(gw, d, addr, w)
	if !ok {
		return appliedPatch{}, false
	}
	if !writeWidth(gw, d, addr, w, value) {
		return appliedPatch{}, false
	}
	readback, ok := readWidth(gw, d, addr, w)
	if !ok || readback != value {
		writeWidth(gw, d, addr, w, original)
		return appliedPatch{}, false
	}
	return appliedPatch{domain: d, addr: addr, width: w, original: original}, true
}

func restorePatch(gw *memory.Gateway, p appliedPatch) bool {
	return writeWidth(gw, p.domain, p.addr, p.width, p.original)
}

// restoreAll restores patches in reverse application order (spec.md §5).
func restoreAll(gw *memory.Gateway, patches []appliedPatch) {
	for i := len(patches) - 1; i >= 0; i-- {
		restorePatch(gw, patches[i])
	}
}

// getMultiplayerIDPatch builds the THUMB "MOV R0,#v; BX LR" 4-byte
// patch body that overwrites GetMultiplayerId so it always reports the
// configured master/slave role (spec.md §4.I "Patching preamble").
func getMultiplayerIDPatch(isMaster bool) uint32 {
	var v uint16
	if isMaster {
		v = 0
	} else {
		v = 1
	}
	mov := uint16(0x2000) | v // MOV R0, #v
	const bxLR = uint16(0x4770)
	return uint32(mov) | uint32(bxLR)<<16
}

// applyRAMPatches applies the two fixed RAM patches every battle start
// needs (spec.md §4.I "Patching preamble" 1).
func (c *Controller) applyRAMPatches() bool {
	bl := c.cfg.BattleLink
	ok := true
	if addr, rok := config.Resolve(c.gw, bl.WirelessCommType); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			if p, pok := applyPatch(c.gw, d, addr, config.Width8, 0); pok {
				c.state.RAMPatches = append(c.state.RAMPatches, p)
			} else {
				ok = false
			}
		}
	}
	if addr, rok := config.Resolve(c.gw, bl.ReceivedRemote); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			if p, pok := applyPatch(c.gw, d, addr, config.Width8, 1); pok {
				c.state.RAMPatches = append(c.state.RAMPatches, p)
			} else {
				ok = false
			}
		}
	}
	return ok
}

// applyROMPatches overwrites GetMultiplayerId and applies every named
// patch from the address map's patch table (spec.md §4.I "Patching
// preamble" 2).
func (c *Controller) applyROMPatches() bool {
	ok := true
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.GetMultiplayerID); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			if p, pok := applyPatch(c.gw, d, addr, config.Width32, getMultiplayerIDPatch(c.state.IsMaster)); pok {
				c.state.ROMPatches = append(c.state.ROMPatches, p)
			} else {
				ok = false
			}
		}
	}
	for _, named := range c.cfg.Patches {
		d, dok := memory.DomainForAddress(named.ROMOffset)
		if !dok {
			continue
		}
		if p, pok := applyPatch(c.gw, d, named.ROMOffset, named.Width, named.Value); pok {
			c.state.ROMPatches = append(c.state.ROMPatches, p)
		} else {
			ok = false
		}
	}
	return ok
}

// restorePatches restores every ROM and RAM patch applied this session
// and clears both lists.
func (c *Controller) restorePatches() {
	restoreAll(c.gw, c.state.ROMPatches)
	restoreAll(c.gw, c.state.RAMPatches)
	c.state.ROMPatches = nil
	c.state.RAMPatches = nil
}

// staleSweep restores any named patch still bearing its applied value,
// left over from a session that crashed or was killed before teardown
// (spec.md §5 "pre-battle stale patch sweep"). It relies on each named
// patch's configured Original carrying the ROM's true vanilla bytes, not
// a value this session recorded.
func (c *Controller) staleSweep() {
	for _, named := range c.cfg.Patches {
		d, ok := memory.DomainForAddress(named.ROMOffset)
		if !ok {
			continue
		}
		cur, ok := readWidth(c.gw, d, named.ROMOffset, named.Width)
		if !ok || cur != named.Value {
			continue
		}
		if writeWidth(c.gw, d, named.ROMOffset, named.Width, named.Original) {
			c.log.Debugf("battle: stale patch %q swept back to original", named.Name)
		}
	}
}
