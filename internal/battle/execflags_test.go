package battle

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/memory"
)

func TestExecFlagsBitSemantics(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExecFlags)
		check  func(t *testing.T, e ExecFlags)
	}{
		{
			name:   "SetActive sets only the targeted battler's bit",
			mutate: func(e *ExecFlags) { e.SetActive(1, true) },
			check: func(t *testing.T, e ExecFlags) {
				if e.Active(0) {
					t.Fatalf("battler 0 should not be active")
				}
				if !e.Active(1) {
					t.Fatalf("battler 1 should be active")
				}
			},
		},
		{
			name:   "SetNetworkWait sets only the targeted battler's bit",
			mutate: func(e *ExecFlags) { e.SetNetworkWait(0, true) },
			check: func(t *testing.T, e ExecFlags) {
				if !e.NetworkWait(0) {
					t.Fatalf("battler 0 should be network-waiting")
				}
				if e.NetworkWait(1) {
					t.Fatalf("battler 1 should not be network-waiting")
				}
			},
		},
		{
			name: "ClearLinkDispatch clears both the high and low nibble convention",
			mutate: func(e *ExecFlags) {
				e.B3 = 0x11 // bit 0 and bit 4 both set for battler 0
				e.ClearLinkDispatch(0)
			},
			check: func(t *testing.T, e ExecFlags) {
				if e.LinkDispatch(0) {
					t.Fatalf("dispatch bit should be cleared in both nibble positions")
				}
			},
		},
		{
			name: "ClearByte2 zeroes byte 2 and nothing else",
			mutate: func(e *ExecFlags) {
				e.B0, e.B1, e.B2, e.B3 = 0xFF, 0xFF, 0xFF, 0xFF
				e.ClearByte2()
			},
			check: func(t *testing.T, e ExecFlags) {
				if e.B2 != 0 {
					t.Fatalf("byte 2 should be zero, got %#x", e.B2)
				}
				if e.B0 != 0xFF || e.B1 != 0xFF || e.B3 != 0xFF {
					t.Fatalf("ClearByte2 touched other bytes: %+v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e ExecFlags
			tt.mutate(&e)
			tt.check(t, e)
		})
	}
}

func TestReadWriteExecFlagsRoundTrip(t *testing.T) {
	gw := memory.New(nil)
	gw.Bind(memory.IWRAM, make([]byte, 4096))
	addr := memory.Base(memory.IWRAM) + 0x100

	want := ExecFlags{B0: 0x03, B1: 0x00, B2: 0x00, B3: 0x21}
	if !WriteExecFlags(gw, memory.IWRAM, addr, want) {
		t.Fatalf("WriteExecFlags failed")
	}
	got, ok := ReadExecFlags(gw, memory.IWRAM, addr)
	if !ok || got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}
