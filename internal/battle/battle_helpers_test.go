package battle

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/transport"
)

// fakeAdapter mirrors the double used throughout internal/scheduler's
// tests: it records every outbound send and lets a test drive inbound
// delivery directly through the registered callback.
type fakeAdapter struct {
	sent     []transport.Type
	payloads []interface{}
	inbound  func(transport.Message)
}

func (f *fakeAdapter) Send(t transport.Type, payload interface{}) error {
	f.sent = append(f.sent, t)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeAdapter) RegisterInbound(cb func(transport.Message)) {
	f.inbound = cb
}

func (f *fakeAdapter) lastBufferCmd() *transport.BufferCmd {
	for i := len(f.payloads) - 1; i >= 0; i-- {
		if cmd, ok := f.payloads[i].(transport.BufferCmd); ok {
			return &cmd
		}
	}
	return nil
}

// newRelayTestController builds a Controller already seated in MainLoop,
// with just enough of the address map bound for the buffer-relay
// protocol and natural-end detection to run: a resolvable
// BattleResources pointer (so bufferA/bufferB bases resolve to a
// verifiedBufferGap apart), a live ExecFlags word, and a Callback2Addr
// distinct from CB2BattleMain. Tests that need Starting-stage or
// patch-table behavior build their own narrower config directly.
func newRelayTestController(t *testing.T, isMaster bool) (*Controller, *memory.Gateway, *fakeAdapter, *config.AddressMap) {
	t.Helper()
	gw := memory.New(nil)
	gw.Bind(memory.EWRAM, make([]byte, 256*1024))
	gw.Bind(memory.IWRAM, make([]byte, 32*1024))

	resourcesPtrAddr := memory.Base(memory.IWRAM) + 0x1000
	resourcesBase := memory.Base(memory.EWRAM) + 0x4000
	const bufferAOffset = 0x0
	const bufferBOffset = 0x800

	if !gw.WriteU32(memory.IWRAM, resourcesPtrAddr, resourcesBase) {
		t.Fatalf("failed to seed BattleResources pointer")
	}

	cfg := &config.AddressMap{
		Const:            config.DefaultConstants(),
		Callback2Addr:    memory.Base(memory.IWRAM) + 0x2000,
		CB2BattleMain:    0x08040000,
		CB2Overworld:     0x08050000,
		CB2ReturnToField: 0x08060000,
		Battle: config.Battle{
			ExecFlags: config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1800),
		},
		BattleLink: config.BattleLink{
			BattleResources:    config.Static(memory.IWRAM, resourcesPtrAddr),
			BufferAOffset:      bufferAOffset,
			BufferBOffset:      bufferBOffset,
			BattlerAttacker:    config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1900),
			BattlerTarget:      config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1901),
			AbsentBattlerFlags: config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1902),
			EffectBattler:      config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1903),
			BattleMainFunc:     config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x1904),
		},
	}

	tp := &fakeAdapter{}
	c := New(gw, cfg, tp, nil)
	c.state.Stage = MainLoop
	c.state.IsMaster = isMaster
	c.state.Relay.LocalSlot = boolToSlot(isMaster)
	c.state.Relay.RemoteSlot = 1 - c.state.Relay.LocalSlot
	return c, gw, tp, cfg
}

func writeExecFlagsDirect(t *testing.T, gw *memory.Gateway, cfg *config.AddressMap, e ExecFlags) {
	t.Helper()
	addr, ok := config.Resolve(gw, cfg.Battle.ExecFlags)
	if !ok {
		t.Fatalf("exec flags address did not resolve")
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		t.Fatalf("exec flags address did not classify to a domain")
	}
	if !WriteExecFlags(gw, d, addr, e) {
		t.Fatalf("WriteExecFlags failed")
	}
}

func readExecFlagsDirect(t *testing.T, gw *memory.Gateway, cfg *config.AddressMap) ExecFlags {
	t.Helper()
	addr, ok := config.Resolve(gw, cfg.Battle.ExecFlags)
	if !ok {
		t.Fatalf("exec flags address did not resolve")
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		t.Fatalf("exec flags address did not classify to a domain")
	}
	e, ok := ReadExecFlags(gw, d, addr)
	if !ok {
		t.Fatalf("ReadExecFlags failed")
	}
	return e
}
