// Package textbox synthesizes the scripts that drive the game engine's
// own message box to show a remote prompt or notice (spec.md §4.F).
package textbox

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

const (
	startupDelayFrames  = 6
	settleFrames        = 2
	resultSentinel      = 0x007F
)

// Kind is which of the two canned programs is currently loaded.
type Kind uint8

const (
	KindYesNo Kind = iota
	KindMessage
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseWaitingStartup
	phaseWaitingResult
	phaseSettling
)

// Addrs is the subset of the address map the injector touches.
type Addrs struct {
	ScriptLoad config.AddressRef
	ScriptData config.AddressRef
	TextData   config.AddressRef
	VarResult  config.AddressRef
	Var8001    config.AddressRef
}

// Injector writes and polls a single in-flight script at a time.
type Injector struct {
	gw     *memory.Gateway
	addrs  Addrs
	kind   Kind
	ph     phase
	frames int
	result bool
}

// New returns an idle Injector.
func New(gw *memory.Gateway, addrs Addrs) *Injector {
	return &Injector{gw: gw, addrs: addrs, ph: phaseIdle}
}

// Active reports whether a script is currently in flight.
func (in *Injector) Active() bool {
	return in.ph != phaseIdle
}

// ShowYesNo writes the Yes/No prompt program with text at the text data
// address, then triggers the engine's script-load mechanism.
func (in *Injector) ShowYesNo(text string) bool {
	return in.show(KindYesNo, text, buildYesNo)
}

// ShowMessage writes the blocking-message program with text at the text
// data address, then triggers the engine's script-load mechanism.
func (in *Injector) ShowMessage(text string) bool {
	return in.show(KindMessage, text, buildBlockingMessage)
}

func (in *Injector) show(kind Kind, text string, build func(uint32) []byte) bool {
	textAddr, ok := config.Resolve(in.gw, in.addrs.TextData)
	if !ok {
		return false
	}
	textDomain, ok := memory.DomainForAddress(textAddr)
	if !ok {
		return false
	}
	if !in.gw.WriteRange(textDomain, textAddr, Encode(text)) {
		return false
	}

	scriptAddr, ok := config.Resolve(in.gw, in.addrs.ScriptData)
	if !ok {
		return false
	}
	scriptDomain, ok := memory.DomainForAddress(scriptAddr)
	if !ok {
		return false
	}
	if !in.gw.WriteRange(scriptDomain, scriptAddr, build(textAddr)) {
		return false
	}

	loadAddr, ok := config.Resolve(in.gw, in.addrs.ScriptLoad)
	if !ok {
		return false
	}
	loadDomain, ok := memory.DomainForAddress(loadAddr)
	if !ok {
		return false
	}
	if !in.gw.WriteRange(loadDomain, loadAddr, dataModeTable(scriptAddr)) {
		return false
	}

	if resultAddr, ok := config.Resolve(in.gw, in.addrs.VarResult); ok {
		if resultDomain, ok := memory.DomainForAddress(resultAddr); ok {
			in.gw.WriteU16(resultDomain, resultAddr, resultSentinel)
		}
	}

	in.kind = kind
	in.ph = phaseWaitingStartup
	in.frames = 0
	return true
}

// Poll advances the injector by one frame. done reports the script has
// finished (result has settled and is safe to act on); yes is only
// meaningful for KindYesNo.
func (in *Injector) Poll() (done bool, yes bool) {
	switch in.ph {
	case phaseIdle:
		return false, false

	case phaseWaitingStartup:
		in.frames++
		if in.frames >= startupDelayFrames {
			in.ph = phaseWaitingResult
		}
		return false, false

	case phaseWaitingResult:
		addr, ok := config.Resolve(in.gw, in.addrs.VarResult)
		if !ok {
			return false, false
		}
		domain, ok := memory.DomainForAddress(addr)
		if !ok {
			return false, false
		}
		val, ok := in.gw.ReadU16(domain, addr)
		if !ok || val == resultSentinel {
			return false, false
		}
		in.result = val == 1
		in.ph = phaseSettling
		in.frames = 0
		return false, false

	case phaseSettling:
		in.frames++
		if in.frames >= settleFrames {
			in.ph = phaseIdle
			return true, in.result
		}
		return false, false
	}
	return false, false
}

// Clear unblocks any waiting script path and marks the injector idle
// (spec.md §4.F "Error-recovery").
func (in *Injector) Clear() {
	if in.ph == phaseIdle {
		return
	}
	if addr, ok := config.Resolve(in.gw, in.addrs.VarResult); ok {
		if domain, ok := memory.DomainForAddress(addr); ok {
			in.gw.WriteU16(domain, addr, 0)
		}
	}
	if addr, ok := config.Resolve(in.gw, in.addrs.Var8001); ok {
		if domain, ok := memory.DomainForAddress(addr); ok {
			in.gw.WriteU16(domain, addr, 1)
		}
	}
	in.ph = phaseIdle
}
