package battle

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

// TestForfeitForcesGetAwayExitAndEndsAsForfeit drives a ForceEnd(forfeit)
// through the full 30-frame GetAwayExit hammer and the Ending stage's
// phases, and checks the controller lands on Done with the forced
// outcome and every applied patch restored (spec.md §4.I "Forfeit /
// force-exit", §5 "Patch discipline").
func TestForfeitForcesGetAwayExitAndEndsAsForfeit(t *testing.T) {
	c, gw, tp, cfg := newRelayTestController(t, true)
	_ = tp

	gw.Bind(memory.Cart, make([]byte, 0x1000))
	patchAddr := memory.Base(memory.Cart) + 0x40
	gw.WriteU8(memory.Cart, patchAddr, 0x5A)
	cfg.Patches = []config.Patch{
		{Name: "probe", ROMOffset: patchAddr, Value: 0x11, Width: config.Width8},
	}
	if !c.applyROMPatches() {
		t.Fatalf("applyROMPatches failed")
	}
	if v, _ := gw.ReadU8(memory.Cart, patchAddr); v != 0x11 {
		t.Fatalf("patch not applied before forfeit: got %#x", v)
	}

	c.Tick(1)
	c.ForceEnd(OutcomeForfeit)

	var sawGetAwayExit bool
	frame := int64(2)
	for ; frame < 40 && c.Stage() == MainLoop; frame++ {
		c.Tick(frame)
		if addr, ok := c.bufferAAddr(0); ok {
			if b, rok := gw.ReadU8(memory.EWRAM, addr); rok && b == 0x37 {
				sawGetAwayExit = true
			}
		}
	}
	if !sawGetAwayExit {
		t.Fatalf("expected GetAwayExit (0x37) injected into bufferA[0] during the forfeit window")
	}
	if c.Stage() != Ending {
		t.Fatalf("expected stage Ending after the 30-frame forfeit window, got %s", c.Stage())
	}

	for ; frame < 250 && c.Stage() != Done; frame++ {
		c.Tick(frame)
	}
	if c.Stage() != Done {
		t.Fatalf("battle did not reach Done within the expected window, stuck at %s", c.Stage())
	}
	if c.Outcome() == nil || *c.Outcome() != OutcomeForfeit {
		t.Fatalf("expected outcome forfeit, got %v", c.Outcome())
	}

	if v, _ := gw.ReadU8(memory.Cart, patchAddr); v != 0x5A {
		t.Fatalf("patch not restored on teardown: got %#x want %#x", v, 0x5A)
	}
}

// TestForceEndIgnoredOutsideStartingOrMainLoop checks the documented
// guard: ForceEnd only takes effect while the controller is actually
// running a battle (spec.md §4.I "Forfeit / force-exit" preconditions).
func TestForceEndIgnoredOutsideStartingOrMainLoop(t *testing.T) {
	c, _, _, _ := newRelayTestController(t, true)
	c.state.Stage = Idle

	c.ForceEnd(OutcomeForfeit)

	if c.state.ForceEndPending {
		t.Fatalf("ForceEnd should be a no-op outside Starting/MainLoop")
	}
}
