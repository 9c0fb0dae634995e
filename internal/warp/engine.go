package warp

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/pkg/log"
)

// Destination is the map position the engine writes into the game's
// internal warp-destination struct.
type Destination struct {
	MapGroup, MapID uint8
	WarpID          uint8
	X, Y            uint16
}

// Engine places the trampoline, verifies it, and drives a warp to
// completion (spec.md §4.G).
type Engine struct {
	gw    *memory.Gateway
	addrs *config.AddressMap
	log   log.Logger

	trampolineAddr uint32
	placed         bool
}

// New returns an Engine bound to gw and addrs.
func New(gw *memory.Gateway, addrs *config.AddressMap, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Engine{gw: gw, addrs: addrs, log: logger}
}

// Place writes the trampoline into its configured region and verifies
// the write landed by reading back the first halfword. loadCurrentMapData
// is resolved by the caller (configured, or discovered via Find*).
func (e *Engine) Place(loadCurrentMapData uint32) bool {
	addr, ok := config.Resolve(e.gw, e.addrs.TrampolineRegion)
	if !ok {
		return false
	}
	domain, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}

	code := Encode(loadCurrentMapData, e.addrs.CB2LoadMap, e.addrs.Callback2Addr)
	if !e.gw.WriteRange(domain, addr, code) {
		e.log.Errorf("warp: failed to write trampoline at %#x", addr)
		return false
	}

	hw, ok := e.gw.ReadU16(domain, addr)
	if !ok || hw != verifyHalfword {
		e.log.Errorf("warp: trampoline verification failed at %#x", addr)
		return false
	}

	e.trampolineAddr = addr
	e.placed = true
	return true
}

// Execute writes dest into the warp-destination struct (and the save
// block's mirror), then redirects the engine's main callback to the
// trampoline, thumb-bit set (spec.md §4.G).
func (e *Engine) Execute(dest Destination) bool {
	if !e.placed {
		e.log.Errorf("warp: Execute called before trampoline placement")
		return false
	}

	structDomain, ok := memory.DomainForAddress(e.addrs.WarpDestStruct)
	if !ok {
		return false
	}
	if !e.gw.WriteU8(structDomain, e.addrs.WarpDestStruct, dest.MapGroup) {
		return false
	}
	if !e.gw.WriteU8(structDomain, e.addrs.WarpDestStruct+1, dest.MapID) {
		return false
	}
	if !e.gw.WriteU8(structDomain, e.addrs.WarpDestStruct+2, dest.WarpID) {
		return false
	}
	if !e.gw.WriteU16(structDomain, e.addrs.WarpDestStruct+4, dest.X) {
		return false
	}
	if !e.gw.WriteU16(structDomain, e.addrs.WarpDestStruct+6, dest.Y) {
		return false
	}

	if saveAddr, ok := config.Resolve(e.gw, e.addrs.BattleLink.SaveBlock2Ptr); ok {
		if saveDomain, ok := memory.DomainForAddress(saveAddr); ok {
			mirror := saveAddr + e.addrs.SaveBlock2WarpOffset
			if mirrorDomain, ok := memory.DomainForAddress(mirror); ok {
				e.gw.WriteU8(mirrorDomain, mirror, dest.MapGroup)
				e.gw.WriteU8(mirrorDomain, mirror+1, dest.MapID)
				e.gw.WriteU16(mirrorDomain, mirror+4, dest.X)
				e.gw.WriteU16(mirrorDomain, mirror+6, dest.Y)
			}
			_ = saveDomain
		}
	}

	if mainCBDomain, ok := memory.DomainForAddress(e.addrs.SavedCallbackOffset); ok {
		e.gw.WriteU32(mainCBDomain, e.addrs.SavedCallbackOffset, 0)
	}
	if mainStateDomain, ok := memory.DomainForAddress(e.addrs.MainStateOffset); ok {
		e.gw.WriteU8(mainStateDomain, e.addrs.MainStateOffset, 0)
	}

	cbDomain, ok := memory.DomainForAddress(e.addrs.Callback2Addr)
	if !ok {
		return false
	}
	if !e.gw.WriteU32(cbDomain, e.addrs.Callback2Addr, e.trampolineAddr|1) {
		return false
	}

	return true
}
