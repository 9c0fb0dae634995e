package textbox

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

func newTestInjector() (*Injector, *memory.Gateway) {
	gw := memory.New(nil)
	gw.Bind(memory.EWRAM, make([]byte, 256*1024))
	gw.Bind(memory.IWRAM, make([]byte, 32*1024))

	addrs := Addrs{
		ScriptLoad: config.Static(memory.IWRAM, memory.Base(memory.IWRAM)+0x100),
		ScriptData: config.Static(memory.EWRAM, memory.Base(memory.EWRAM)+0x200),
		TextData:   config.Static(memory.EWRAM, memory.Base(memory.EWRAM)+0x300),
		VarResult:  config.Static(memory.EWRAM, memory.Base(memory.EWRAM)+0x400),
		Var8001:    config.Static(memory.EWRAM, memory.Base(memory.EWRAM)+0x402),
	}
	return New(gw, addrs), gw
}

func TestShowYesNoWritesProgramAndTable(t *testing.T) {
	in, gw := newTestInjector()
	if !in.ShowYesNo("Battle?") {
		t.Fatalf("expected ShowYesNo to succeed")
	}
	if !in.Active() {
		t.Fatalf("expected injector active after show")
	}

	prog, ok := gw.ReadRange(memory.EWRAM, memory.Base(memory.EWRAM)+0x200, 12)
	if !ok {
		t.Fatalf("expected script program readable")
	}
	want := buildYesNo(memory.Base(memory.EWRAM) + 0x300)
	for i := range want {
		if prog[i] != want[i] {
			t.Fatalf("script program mismatch at byte %d: got %#x want %#x", i, prog[i], want[i])
		}
	}

	table, ok := gw.ReadRange(memory.IWRAM, memory.Base(memory.IWRAM)+0x100, 48)
	if !ok || len(table) != 48 {
		t.Fatalf("expected 12-word data mode table readable")
	}
}

func TestPollStartupDelayThenSentinelThenSettle(t *testing.T) {
	in, gw := newTestInjector()
	in.ShowYesNo("Battle?")

	for i := 0; i < startupDelayFrames; i++ {
		if done, _ := in.Poll(); done {
			t.Fatalf("should not be done before startup delay elapses")
		}
	}

	// Still sentinel: waiting on result.
	gw.WriteU16(memory.EWRAM, memory.Base(memory.EWRAM)+0x400, resultSentinel)
	if done, _ := in.Poll(); done {
		t.Fatalf("should not be done while VAR_RESULT is sentinel")
	}

	gw.WriteU16(memory.EWRAM, memory.Base(memory.EWRAM)+0x400, 1)
	for i := 0; i < settleFrames; i++ {
		if done, _ := in.Poll(); done {
			t.Fatalf("expected settle delay before done")
		}
	}
	done, yes := in.Poll()
	if !done || !yes {
		t.Fatalf("expected done=true yes=true after settle frames, got done=%v yes=%v", done, yes)
	}
	if in.Active() {
		t.Fatalf("expected injector idle after completion")
	}
}

func TestClearUnblocksWaitingScript(t *testing.T) {
	in, gw := newTestInjector()
	in.ShowMessage("Hello there.")
	in.Clear()
	if in.Active() {
		t.Fatalf("expected injector idle after clear")
	}
	v, _ := gw.ReadU16(memory.EWRAM, memory.Base(memory.EWRAM)+0x402)
	if v != 1 {
		t.Fatalf("expected VAR_0x8001=1 after clearing a message, got %d", v)
	}
}
